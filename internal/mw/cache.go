package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// CacheHeader reports whether a response came from the cache ("hit") or
// was rendered by the handler ("miss").
const CacheHeader = "X-Cache"

type snapshot struct {
	status      int
	contentType string
	body        []byte
}

// recorder tees the handler output into buf.
type recorder struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (r recorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r recorder) WriteString(s string) (int, error) {
	r.buf.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}

// Cache replays successful GET responses for ttl, keyed by request URI.
// Mount it only on routes whose output does not depend on the session.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if v, ok := store.Get(key); ok {
			snap := v.(snapshot)
			c.Header(CacheHeader, "hit")
			c.Data(snap.status, snap.contentType, snap.body)
			c.Abort()
			return
		}

		c.Header(CacheHeader, "miss")
		rec := recorder{ResponseWriter: c.Writer, buf: &bytes.Buffer{}}
		c.Writer = rec
		c.Next()

		if status := rec.Status(); status >= 200 && status < 300 {
			store.Set(key, snapshot{
				status:      status,
				contentType: rec.Header().Get("Content-Type"),
				body:        rec.buf.Bytes(),
			}, ttl)
		}
	}
}

// Invalidate drops every cached response after a successful write request.
func Invalidate(store *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}
		if c.Writer.Status() < http.StatusBadRequest {
			store.Flush()
		}
	}
}

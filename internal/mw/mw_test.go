package mw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"fleet-timesheet-backend/internal/apperr"
	"fleet-timesheet-backend/internal/model"
	"fleet-timesheet-backend/internal/shift"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(0.001, 1, "X-Real-IP"))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping", map[string]string{"X-Real-IP": "10.0.0.1"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/ping", map[string]string{"X-Real-IP": "10.0.0.1"}).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping", map[string]string{"X-Real-IP": "10.0.0.2"}).Code, "limits are per client")
}

func TestIPRateLimiter_ReusesLimiter(t *testing.T) {
	l := NewIPRateLimiter(1, 1, time.Minute)
	assert.Same(t, l.GetLimiter("a"), l.GetLimiter("a"))
	assert.NotSame(t, l.GetLimiter("a"), l.GetLimiter("b"))
}

func TestCacheAndInvalidate(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	calls := 0

	r := gin.New()
	r.Use(Invalidate(store))
	r.GET("/types", Cache(store, time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.POST("/types", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.POST("/fail", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	first := serve(r, http.MethodGet, "/types", nil)
	second := serve(r, http.MethodGet, "/types", nil)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "miss", first.Header().Get(CacheHeader))
	assert.Equal(t, "hit", second.Header().Get(CacheHeader))
	assert.Equal(t, "application/json; charset=utf-8", second.Header().Get("Content-Type"))
	assert.Equal(t, 1, calls)

	serve(r, http.MethodPost, "/fail", nil)
	serve(r, http.MethodGet, "/types", nil)
	assert.Equal(t, 1, calls, "failed writes keep the cache")

	serve(r, http.MethodPost, "/types", nil)
	serve(r, http.MethodGet, "/types", nil)
	assert.Equal(t, 2, calls, "successful writes flush the cache")
}

type lookupStub map[string]model.Operator

func (l lookupStub) Get(_ context.Context, id string) (model.Operator, error) {
	if o, ok := l[id]; ok {
		return o, nil
	}
	return model.Operator{}, apperr.NotFound("operator", id)
}

func TestSession(t *testing.T) {
	lookup := lookupStub{
		"admin":   {ID: "admin", Role: model.RoleAdmin, Active: true},
		"op":      {ID: "op", Role: model.RoleOperator, Active: true},
		"retired": {ID: "retired", Role: model.RoleAdmin, Active: false},
	}

	tokens := NewTokens(time.Hour)
	r := gin.New()
	api := r.Group("/", Session(tokens, lookup))
	api.GET("/me", func(c *gin.Context) {
		s := CurrentSession(c)
		c.JSON(http.StatusOK, gin.H{"id": s.OperatorID, "admin": s.Admin})
	})
	api.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	testCases := []struct {
		name     string
		path     string
		operator string
		forged   bool
		expected int
		body     string
	}{
		{name: "Missing header", path: "/me", expected: http.StatusUnauthorized},
		{name: "Forged token", path: "/me", operator: "admin", forged: true, expected: http.StatusUnauthorized},
		{name: "Unknown operator", path: "/me", operator: "ghost", expected: http.StatusUnauthorized},
		{name: "Inactive operator", path: "/me", operator: "retired", expected: http.StatusUnauthorized},
		{name: "Operator", path: "/me", operator: "op", expected: http.StatusOK, body: `{"admin":false,"id":"op"}`},
		{name: "Operator on admin route", path: "/admin", operator: "op", expected: http.StatusForbidden},
		{name: "Admin on admin route", path: "/admin", operator: "admin", expected: http.StatusNoContent},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			headers := map[string]string{}
			switch {
			case tc.forged:
				headers[SessionHeader] = tc.operator
			case tc.operator != "":
				headers[SessionHeader] = tokens.Issue(tc.operator)
			}
			w := serve(r, http.MethodGet, tc.path, headers)
			assert.Equal(t, tc.expected, w.Code)
			if tc.body != "" {
				assert.JSONEq(t, tc.body, w.Body.String())
			}
		})
	}
}

func TestTokens(t *testing.T) {
	tokens := NewTokens(time.Hour)

	first := tokens.Issue("op-1")
	second := tokens.Issue("op-1")
	assert.NotEqual(t, first, second, "every login gets a fresh token")

	id, ok := tokens.Resolve(first)
	require.True(t, ok)
	assert.Equal(t, "op-1", id)

	_, ok = tokens.Resolve("op-1")
	assert.False(t, ok, "an operator ID is not a token")

	tokens.Revoke(first)
	_, ok = tokens.Resolve(first)
	assert.False(t, ok)
	_, ok = tokens.Resolve(second)
	assert.True(t, ok, "revoking one token keeps the others")
}

func TestTokens_Expire(t *testing.T) {
	tokens := NewTokens(20 * time.Millisecond)
	token := tokens.Issue("op-1")

	time.Sleep(50 * time.Millisecond)
	_, ok := tokens.Resolve(token)
	assert.False(t, ok)
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) {
		c.Set(sessionKey, shift.Session{OperatorID: "op-1"})
		c.Status(http.StatusOK)
	})
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(r, http.MethodGet, "/ok", nil)
	serve(r, http.MethodGet, "/boom", nil)

	require.Equal(t, 2, logs.Len())
	first := logs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, first.Level)
	assert.Equal(t, "/ok", first.ContextMap()["path"])
	assert.Equal(t, "op-1", first.ContextMap()["operator_id"])
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[1].Level)
}

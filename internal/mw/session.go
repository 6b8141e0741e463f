package mw

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-timesheet-backend/internal/apperr"
	"fleet-timesheet-backend/internal/model"
	"fleet-timesheet-backend/internal/shift"
)

// SessionHeader carries the token returned by the login call.
const SessionHeader = "X-Session-Token"

const sessionKey = "fleet.session"

// OperatorLookup resolves an operator by ID.
type OperatorLookup interface {
	Get(ctx context.Context, id string) (model.Operator, error)
}

// Session resolves the session token into a shift.Session. Missing or
// expired tokens get 401, as do operators deactivated since login.
func Session(tokens *Tokens, lookup OperatorLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(SessionHeader)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + SessionHeader + " header"})
			return
		}
		id, ok := tokens.Resolve(token)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		o, err := lookup.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown operator"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve session"})
			return
		}
		if !o.Active {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "operator is inactive"})
			return
		}
		c.Set(sessionKey, shift.Session{OperatorID: o.ID, Admin: o.Role == model.RoleAdmin})
		c.Next()
	}
}

// CurrentSession returns the session set by Session. It is the zero value
// on routes without the middleware.
func CurrentSession(c *gin.Context) shift.Session {
	if v, ok := c.Get(sessionKey); ok {
		return v.(shift.Session)
	}
	return shift.Session{}
}

// RequireAdmin rejects non-admin sessions with 403.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentSession(c).Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

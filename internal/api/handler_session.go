package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-timesheet-backend/internal/apperr"
	"fleet-timesheet-backend/internal/model"
	"fleet-timesheet-backend/internal/mw"
	"fleet-timesheet-backend/internal/parse"
)

type loginRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// sessionResponse is the operator as seen by the logged-in client. The PIN
// is not echoed back.
type sessionResponse struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Role   model.Role `json:"role"`
	Token  string     `json:"token"`
	Header string     `json:"header"`
}

// Login handles POST /api/session. The returned token goes into the session
// header of every later request.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pin, err := parse.PIN(req.PIN)
	if err != nil {
		badRequest(c, err)
		return
	}

	o, err := h.operators.Authenticate(c.Request.Context(), pin)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid pin"})
			return
		}
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		ID:     o.ID,
		Name:   o.Name,
		Role:   o.Role,
		Token:  h.tokens.Issue(o.ID),
		Header: mw.SessionHeader,
	})
}

// Logout handles DELETE /api/session by revoking the caller's token.
func (h *Handler) Logout(c *gin.Context) {
	h.tokens.Revoke(c.GetHeader(mw.SessionHeader))
	c.Status(http.StatusNoContent)
}

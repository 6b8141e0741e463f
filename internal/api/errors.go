package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-timesheet-backend/internal/apperr"
	"fleet-timesheet-backend/internal/parse"
)

// statusFor maps an error kind to its HTTP status. Anything unclassified is
// an infrastructure failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrPrecondition), errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrInvalidReading):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}

	body := gin.H{"error": err.Error()}
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields()
	}
	var cerr *apperr.ConflictError
	if errors.As(err, &cerr) {
		body["currentHourMeter"] = cerr.Actual
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// reading is an hour-meter value sent either as a JSON number or as text
// such as "1540,5".
type reading float64

func (r *reading) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*r = reading(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := parse.Reading(s)
	if err != nil {
		return err
	}
	*r = reading(v)
	return nil
}

func (r *reading) float() *float64 {
	if r == nil {
		return nil
	}
	v := float64(*r)
	return &v
}

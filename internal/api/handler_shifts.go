package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleet-timesheet-backend/internal/model"
	"fleet-timesheet-backend/internal/mw"
	"fleet-timesheet-backend/internal/shift"
)

type currentShiftResponse struct {
	Pending *model.PendingShift `json:"pending"`
	// Elapsed is H:MM since the shift was opened, empty when Idle.
	Elapsed string `json:"elapsed,omitempty"`
}

// GetCurrentShift handles GET /api/shift/current.
func (h *Handler) GetCurrentShift(c *gin.Context) {
	pending, err := h.shifts.Current(c.Request.Context(), mw.CurrentSession(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := currentShiftResponse{Pending: pending}
	if pending != nil {
		resp.Elapsed = shift.FormatElapsed(shift.Elapsed(*pending, h.clock.Now()))
	}
	c.JSON(http.StatusOK, resp)
}

type openShiftRequest struct {
	MachineID      string   `json:"machineId"`
	Site           string   `json:"site"`
	StartHourMeter *reading `json:"startHourMeter"`
}

// OpenShift handles POST /api/shift/open.
func (h *Handler) OpenShift(c *gin.Context) {
	var req openShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pending, err := h.shifts.Open(c.Request.Context(), mw.CurrentSession(c), shift.OpenRequest{
		MachineID:      req.MachineID,
		Site:           req.Site,
		StartHourMeter: req.StartHourMeter.float(),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, pending)
}

type closeShiftRequest struct {
	EndHourMeter *reading `json:"endHourMeter" binding:"required"`
	Notes        *string  `json:"notes"`
}

// CloseShift handles POST /api/shift/close.
func (h *Handler) CloseShift(c *gin.Context) {
	var req closeShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	record, err := h.shifts.Close(c.Request.Context(), mw.CurrentSession(c), shift.CloseRequest{
		EndHourMeter: float64(*req.EndHourMeter),
		Notes:        req.Notes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// CancelShift handles POST /api/shift/cancel.
func (h *Handler) CancelShift(c *gin.Context) {
	if err := h.shifts.Cancel(c.Request.Context(), mw.CurrentSession(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListShifts handles GET /api/shifts. Operators only see their own records.
func (h *Handler) ListShifts(c *gin.Context) {
	records, err := h.shifts.Records(c.Request.Context(), mw.CurrentSession(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

type manualShiftRequest struct {
	MachineID      string    `json:"machineId"`
	OperatorID     string    `json:"operatorId"`
	Site           string    `json:"site"`
	StartedAt      time.Time `json:"startedAt"`
	EndedAt        time.Time `json:"endedAt"`
	StartHourMeter reading   `json:"startHourMeter"`
	EndHourMeter   reading   `json:"endHourMeter"`
	Notes          *string   `json:"notes"`
}

// RecordShift handles POST /api/shifts, an admin entering a past shift.
func (h *Handler) RecordShift(c *gin.Context) {
	var req manualShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	record, err := h.shifts.RecordManual(c.Request.Context(), mw.CurrentSession(c), model.ShiftRecord{
		MachineID:      req.MachineID,
		OperatorID:     req.OperatorID,
		Site:           req.Site,
		StartedAt:      req.StartedAt,
		EndedAt:        req.EndedAt,
		StartHourMeter: float64(req.StartHourMeter),
		EndHourMeter:   float64(req.EndHourMeter),
		Notes:          req.Notes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// UpdateShift handles PATCH /api/shifts/:id.
func (h *Handler) UpdateShift(c *gin.Context) {
	var p model.ShiftRecordPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	record, err := h.shifts.EditRecord(c.Request.Context(), mw.CurrentSession(c), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// DeleteShift handles DELETE /api/shifts/:id.
func (h *Handler) DeleteShift(c *gin.Context) {
	deleted, err := h.shifts.DeleteRecord(c.Request.Context(), mw.CurrentSession(c), c.Param("id"))
	h.deleted(c, deleted, err)
}

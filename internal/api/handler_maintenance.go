package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleet-timesheet-backend/internal/maintenance"
	"fleet-timesheet-backend/internal/model"
)

// ListMaintenance handles GET /api/maintenance, optionally narrowed by
// ?machine_id=.
func (h *Handler) ListMaintenance(c *gin.Context) {
	events, err := h.store.ListMaintenance(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if machineID := c.Query("machine_id"); machineID != "" {
		filtered := make([]model.MaintenanceEvent, 0, len(events))
		for _, e := range events {
			if e.MachineID == machineID {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	c.JSON(http.StatusOK, events)
}

type createMaintenanceRequest struct {
	MachineID        string                  `json:"machineId"`
	Type             model.MaintenanceType   `json:"type"`
	Date             time.Time               `json:"date"`
	HourMeter        reading                 `json:"hourMeter"`
	Description      string                  `json:"description"`
	Parts            *string                 `json:"parts"`
	Cost             *float64                `json:"cost"`
	NextDueHourMeter *reading                `json:"nextDueHourMeter"`
	NextDueDate      *time.Time              `json:"nextDueDate"`
	Status           model.MaintenanceStatus `json:"status"`
}

// CreateMaintenance handles POST /api/maintenance. Status defaults to
// pending.
func (h *Handler) CreateMaintenance(c *gin.Context) {
	var req createMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	e := model.MaintenanceEvent{
		MachineID:        req.MachineID,
		Type:             req.Type,
		Date:             req.Date,
		HourMeter:        float64(req.HourMeter),
		Description:      req.Description,
		Parts:            req.Parts,
		Cost:             req.Cost,
		NextDueHourMeter: req.NextDueHourMeter.float(),
		NextDueDate:      req.NextDueDate,
		Status:           req.Status,
	}
	if e.Status == "" {
		e.Status = model.StatusPending
	}

	created, err := h.store.CreateMaintenance(c.Request.Context(), e)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateMaintenance handles PATCH /api/maintenance/:id.
func (h *Handler) UpdateMaintenance(c *gin.Context) {
	var p model.MaintenancePatch
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	e, err := h.store.UpdateMaintenance(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// MarkMaintenanceDone handles POST /api/maintenance/:id/done.
func (h *Handler) MarkMaintenanceDone(c *gin.Context) {
	e, err := maintenance.MarkDone(c.Request.Context(), h.store, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// DeleteMaintenance handles DELETE /api/maintenance/:id.
func (h *Handler) DeleteMaintenance(c *gin.Context) {
	deleted, err := h.store.DeleteMaintenance(c.Request.Context(), c.Param("id"))
	h.deleted(c, deleted, err)
}

// GetAttention handles GET /api/maintenance/attention.
func (h *Handler) GetAttention(c *gin.Context) {
	events, err := h.store.ListMaintenance(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, maintenance.AttentionList(events))
}

// GetMaintenanceSummary handles GET /api/maintenance/summary.
func (h *Handler) GetMaintenanceSummary(c *gin.Context) {
	events, err := h.store.ListMaintenance(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, maintenance.Aggregate(events))
}

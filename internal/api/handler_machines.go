package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-timesheet-backend/internal/model"
)

// GetMachineTypes handles GET /api/machine-types.
func (h *Handler) GetMachineTypes(c *gin.Context) {
	c.JSON(http.StatusOK, model.MachineTypes)
}

// ListMachines handles GET /api/machines.
func (h *Handler) ListMachines(c *gin.Context) {
	machines, err := h.store.ListMachines(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, machines)
}

type createMachineRequest struct {
	Name             string            `json:"name"`
	Type             model.MachineType `json:"type"`
	Plate            string            `json:"plate"`
	AssetTag         string            `json:"assetTag"`
	InitialHourMeter reading           `json:"initialHourMeter"`
	CurrentHourMeter *reading          `json:"currentHourMeter"`
	Active           *bool             `json:"active"`
}

// CreateMachine handles POST /api/machines. The current hour-meter starts at
// the initial reading unless one is given, and machines start active.
func (h *Handler) CreateMachine(c *gin.Context) {
	var req createMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	m := model.Machine{
		Name:             req.Name,
		Type:             req.Type,
		Plate:            req.Plate,
		AssetTag:         req.AssetTag,
		InitialHourMeter: float64(req.InitialHourMeter),
		CurrentHourMeter: float64(req.InitialHourMeter),
		Active:           true,
	}
	if req.CurrentHourMeter != nil {
		m.CurrentHourMeter = float64(*req.CurrentHourMeter)
	}
	if req.Active != nil {
		m.Active = *req.Active
	}

	created, err := h.store.CreateMachine(c.Request.Context(), m)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateMachine handles PATCH /api/machines/:id. The current hour-meter can
// be corrected upwards only.
func (h *Handler) UpdateMachine(c *gin.Context) {
	var p model.MachinePatch
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	m, err := h.store.EditMachine(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// DeleteMachine handles DELETE /api/machines/:id.
func (h *Handler) DeleteMachine(c *gin.Context) {
	deleted, err := h.store.DeleteMachine(c.Request.Context(), c.Param("id"))
	h.deleted(c, deleted, err)
}

func (h *Handler) deleted(c *gin.Context, deleted bool, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

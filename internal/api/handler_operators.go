package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-timesheet-backend/internal/model"
)

// ListOperators handles GET /api/operators.
func (h *Handler) ListOperators(c *gin.Context) {
	ops, err := h.operators.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ops)
}

type createOperatorRequest struct {
	Name   string     `json:"name"`
	PIN    string     `json:"pin"`
	Role   model.Role `json:"role"`
	Active *bool      `json:"active"`
}

// CreateOperator handles POST /api/operators.
func (h *Handler) CreateOperator(c *gin.Context) {
	var req createOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	o := model.Operator{Name: req.Name, PIN: req.PIN, Role: req.Role, Active: true}
	if o.Role == "" {
		o.Role = model.RoleOperator
	}
	if req.Active != nil {
		o.Active = *req.Active
	}

	created, err := h.operators.Create(c.Request.Context(), o)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateOperator handles PATCH /api/operators/:id.
func (h *Handler) UpdateOperator(c *gin.Context) {
	var p model.OperatorPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	o, err := h.operators.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetOperatorActive handles POST /api/operators/:id/active.
func (h *Handler) SetOperatorActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	o, err := h.operators.SetActive(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// DeleteOperator handles DELETE /api/operators/:id.
func (h *Handler) DeleteOperator(c *gin.Context) {
	deleted, err := h.operators.Delete(c.Request.Context(), c.Param("id"))
	h.deleted(c, deleted, err)
}

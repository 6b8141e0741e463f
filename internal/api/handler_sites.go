package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-timesheet-backend/internal/model"
)

// ListSites handles GET /api/sites.
func (h *Handler) ListSites(c *gin.Context) {
	sites, err := h.store.ListSites(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sites)
}

type createSiteRequest struct {
	Name    string  `json:"name"`
	Address *string `json:"address"`
	Active  *bool   `json:"active"`
}

// CreateSite handles POST /api/sites.
func (h *Handler) CreateSite(c *gin.Context) {
	var req createSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	site := model.Site{Name: req.Name, Address: req.Address, Active: true}
	if req.Active != nil {
		site.Active = *req.Active
	}
	created, err := h.store.CreateSite(c.Request.Context(), site)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateSite handles PATCH /api/sites/:id.
func (h *Handler) UpdateSite(c *gin.Context) {
	var p model.SitePatch
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	site, err := h.store.UpdateSite(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, site)
}

// DeleteSite handles DELETE /api/sites/:id.
func (h *Handler) DeleteSite(c *gin.Context) {
	deleted, err := h.store.DeleteSite(c.Request.Context(), c.Param("id"))
	h.deleted(c, deleted, err)
}

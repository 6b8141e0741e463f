package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-timesheet-backend/internal/parse"
	"fleet-timesheet-backend/internal/report"
)

// GetDashboard handles GET /api/dashboard.
func (h *Handler) GetDashboard(c *gin.Context) {
	d, err := h.reports.Dashboard(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GetReport handles GET /api/reports?from=YYYY-MM-DD&to=YYYY-MM-DD&machine_id=.
// Days are read in the report time zone and to includes its whole day.
func (h *Handler) GetReport(c *gin.Context) {
	loc := h.reports.Location()
	from, err := parse.OptionalDay(c.Query("from"), loc, false)
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := parse.OptionalDay(c.Query("to"), loc, true)
	if err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.reports.Period(c.Request.Context(), report.Filter{
		From:      from,
		To:        to,
		MachineID: c.Query("machine_id"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

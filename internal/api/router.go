package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"fleet-timesheet-backend/config"
	"fleet-timesheet-backend/internal/metrics"
	"fleet-timesheet-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router. reg may be nil, in
// which case /metrics is not mounted.
func NewRouter(h *Handler, cfg config.ServerConfig, reg *prometheus.Registry, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(mw.Logger(log), gin.Recovery())

	if reg != nil {
		r.GET("/metrics", gin.WrapH(metrics.HTTPHandler(reg)))
	}

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, cfg.RequestIPHeader)

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	api := r.Group("/api")
	api.Use(rateLimiter, mw.Invalidate(cacheStore))
	{
		api.POST("/session", h.Login)
		api.GET("/machine-types", caching, h.GetMachineTypes)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)

		authed := api.Group("")
		authed.Use(mw.Session(h.tokens, h.operators))

		authed.DELETE("/session", h.Logout)

		authed.GET("/machines", h.ListMachines)
		authed.GET("/sites", h.ListSites)
		authed.GET("/shifts", h.ListShifts)
		authed.GET("/maintenance", h.ListMaintenance)
		authed.GET("/maintenance/attention", h.GetAttention)
		authed.GET("/maintenance/summary", h.GetMaintenanceSummary)
		authed.GET("/dashboard", h.GetDashboard)

		authed.GET("/shift/current", h.GetCurrentShift)
		authed.POST("/shift/open", h.OpenShift)
		authed.POST("/shift/close", h.CloseShift)
		authed.POST("/shift/cancel", h.CancelShift)

		authed.PUT("/subscriptions", h.PutSubscription)
		authed.DELETE("/subscriptions", h.DeleteSubscription)

		admin := authed.Group("")
		admin.Use(mw.RequireAdmin())

		admin.POST("/machines", h.CreateMachine)
		admin.PATCH("/machines/:id", h.UpdateMachine)
		admin.DELETE("/machines/:id", h.DeleteMachine)

		admin.GET("/operators", h.ListOperators)
		admin.POST("/operators", h.CreateOperator)
		admin.PATCH("/operators/:id", h.UpdateOperator)
		admin.DELETE("/operators/:id", h.DeleteOperator)
		admin.POST("/operators/:id/active", h.SetOperatorActive)

		admin.POST("/sites", h.CreateSite)
		admin.PATCH("/sites/:id", h.UpdateSite)
		admin.DELETE("/sites/:id", h.DeleteSite)

		admin.POST("/shifts", h.RecordShift)
		admin.PATCH("/shifts/:id", h.UpdateShift)
		admin.DELETE("/shifts/:id", h.DeleteShift)

		admin.POST("/maintenance", h.CreateMaintenance)
		admin.PATCH("/maintenance/:id", h.UpdateMaintenance)
		admin.DELETE("/maintenance/:id", h.DeleteMaintenance)
		admin.POST("/maintenance/:id/done", h.MarkMaintenanceDone)

		admin.GET("/reports", h.GetReport)
	}

	return r
}

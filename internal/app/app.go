// Package app wires configuration into the fleet services shared by the
// server and the CLI.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fleet-timesheet-backend/config"
	"fleet-timesheet-backend/internal/api"
	"fleet-timesheet-backend/internal/clock"
	"fleet-timesheet-backend/internal/db"
	"fleet-timesheet-backend/internal/hourmeter"
	"fleet-timesheet-backend/internal/kv"
	"fleet-timesheet-backend/internal/metrics"
	"fleet-timesheet-backend/internal/mw"
	"fleet-timesheet-backend/internal/notification"
	"fleet-timesheet-backend/internal/operators"
	"fleet-timesheet-backend/internal/report"
	"fleet-timesheet-backend/internal/shift"
	"fleet-timesheet-backend/internal/store"
)

// App holds the assembled services.
type App struct {
	Config    *config.Config
	Log       *zap.Logger
	DB        *gorm.DB
	Store     *store.Store
	Dataset   store.Dataset
	Operators *operators.Service
	Shifts    *shift.Service
	Reports   *report.Builder
	Registry  *prometheus.Registry
	Notifier  *notification.WorkerPool

	clock   clock.Clock
	webpush *webpush.Options
}

// New opens the database and builds every service. It does not seed the
// store; call Init for that.
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	mode, err := hourmeter.ParseMode(cfg.Shifts.HourMeterGuard)
	if err != nil {
		return nil, err
	}
	ds, err := store.LoadDataset(cfg.Store.SeedFile)
	if err != nil {
		return nil, err
	}

	gormDB, err := db.Init(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var kvs kv.Store
	if gormDB == nil {
		kvs = kv.NewMemory()
	} else {
		kvs = kv.NewGormStore(gormDB)
	}
	if cfg.Store.CacheTTL > 0 {
		kvs = kv.NewCached(kvs, cfg.Store.CacheTTL)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewPrometheusRecorder(reg)

	clk := clock.Real{}
	s := store.New(kvs, clk, clock.UUIDGenerator{}, log.Named("store"))
	reconciler := hourmeter.NewReconciler(s, mode, log.Named("hourmeter"), rec)

	a := &App{
		Config:    cfg,
		Log:       log,
		DB:        gormDB,
		Store:     s,
		Dataset:   ds,
		Operators: operators.NewService(s, log.Named("operators")),
		Shifts:    shift.NewService(s, reconciler, clk, log.Named("shift"), rec),
		Reports:   report.NewBuilder(s, clk, cfg.Report.Location),
		Registry:  reg,
		clock:     clk,
	}

	if cfg.Push.Enabled {
		if err := a.enablePush(rec); err != nil {
			_ = a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *App) enablePush(rec metrics.Recorder) error {
	cfg := a.Config.Push
	if cfg.PublicKey == "" || cfg.PrivateKey == "" {
		return fmt.Errorf("push is enabled but VAPID keys are not configured")
	}
	if a.DB == nil {
		return fmt.Errorf("push reminders need the sqlite or postgres driver")
	}
	a.webpush = &webpush.Options{
		VAPIDPublicKey:  cfg.PublicKey,
		VAPIDPrivateKey: cfg.PrivateKey,
		Subscriber:      cfg.Subject,
		TTL:             cfg.TTL,
	}
	a.Notifier = notification.NewWorkerPool(a.Config.WorkerPool.Size, a.DB, a.Store, a.webpush, a.Log.Named("notification"), rec)
	a.Shifts.OnAdvance(a.Notifier)
	return nil
}

// Init seeds the store on first start.
func (a *App) Init(ctx context.Context) (bool, error) {
	return a.Store.Init(ctx, a.Dataset)
}

// Start launches the background workers. It is a no-op without push.
func (a *App) Start(ctx context.Context) {
	if a.Notifier != nil {
		a.Notifier.Start(ctx)
		a.Log.Info("notification workers started", zap.Int("workers", a.Config.WorkerPool.Size))
	}
}

// Handler builds the HTTP API.
func (a *App) Handler() http.Handler {
	h := api.NewHandler(api.Deps{
		Store:     a.Store,
		Operators: a.Operators,
		Shifts:    a.Shifts,
		Reports:   a.Reports,
		Clock:     a.clock,
		DB:        a.DB,
		WebPush:   a.webpush,
		Tokens:    mw.NewTokens(a.Config.Server.SessionTTL),
		Log:       a.Log,
	})
	return api.NewRouter(h, a.Config.Server, a.Registry, a.Log.Named("http"))
}

// Close releases the database connection.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// LoadConfig reads the YAML file at path, or returns the defaults when path
// is empty.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
	}
	return cfg, nil
}

package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fleet-timesheet-backend/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Driver = driver
	if driver == "sqlite" {
		cfg.Database.DSN = filepath.Join(t.TempDir(), "fleet.db")
	}
	return cfg
}

func TestNew_MemoryDriver(t *testing.T) {
	a, err := New(newConfig(t, "memory"), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.Nil(t, a.Notifier)

	seeded, err := a.Init(context.Background())
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = a.Init(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded, "second start keeps existing data")

	req := httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(`{"pin":"1234"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestNew_SQLiteSurvivesRestart(t *testing.T) {
	cfg := newConfig(t, "sqlite")
	ctx := context.Background()

	a, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	_, err = a.Init(ctx)
	require.NoError(t, err)
	_, err = a.Store.DeleteSite(ctx, "site-dam")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	defer b.Close()
	seeded, err := b.Init(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)

	sites, err := b.Store.ListSites(ctx)
	require.NoError(t, err)
	assert.Len(t, sites, 1)
}

func TestNew_MetricsEndpoint(t *testing.T) {
	a, err := New(newConfig(t, "memory"), zap.NewNop())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestNew_Errors(t *testing.T) {
	cfg := newConfig(t, "memory")
	cfg.Shifts.HourMeterGuard = "first_write_wins"
	_, err := New(cfg, zap.NewNop())
	assert.Error(t, err)

	cfg = newConfig(t, "memory")
	cfg.Push.Enabled = true
	cfg.Push.PublicKey = "pub"
	cfg.Push.PrivateKey = "priv"
	_, err = New(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "push reminders need")

	cfg = newConfig(t, "sqlite")
	cfg.Push.Enabled = true
	_, err = New(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "VAPID keys")
}

package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fleet-timesheet-backend/config"
	"fleet-timesheet-backend/internal/model"
)

func TestInit_SQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:                 "sqlite",
		DSN:                    filepath.Join(t.TempDir(), "fleet.db"),
		MaxOpenConns:           4,
		MaxIdleConns:           1,
		ConnMaxLifetimeMinutes: 5,
	}

	db, err := Init(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, db)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	assert.True(t, db.Migrator().HasTable(&model.KVEntry{}))
	assert.True(t, db.Migrator().HasTable(&model.PushSubscription{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestInit_Memory(t *testing.T) {
	db, err := Init(&config.DatabaseConfig{Driver: "memory"}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, db)
}

func TestInit_UnknownDriver(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "mysql"}, zap.NewNop())
	assert.Error(t, err)
}

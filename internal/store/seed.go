package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"fleet-timesheet-backend/internal/clock"
	"fleet-timesheet-backend/internal/kv"
	"fleet-timesheet-backend/internal/model"
)

//go:embed seed.yaml
var defaultSeed []byte

// Dataset is the content written to an empty store.
type Dataset struct {
	Operators   []model.Operator         `yaml:"operators"`
	Machines    []model.Machine          `yaml:"machines"`
	Sites       []model.Site             `yaml:"sites"`
	Shifts      []model.ShiftRecord      `yaml:"shifts"`
	Maintenance []model.MaintenanceEvent `yaml:"maintenance"`
}

// DefaultDataset returns the built-in sample fleet.
func DefaultDataset() (Dataset, error) {
	return decodeDataset(defaultSeed)
}

// LoadDataset reads a dataset from a YAML file. An empty path yields the
// built-in dataset.
func LoadDataset(path string) (Dataset, error) {
	if path == "" {
		return DefaultDataset()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	return decodeDataset(data)
}

func decodeDataset(data []byte) (Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return Dataset{}, fmt.Errorf("failed to decode seed dataset: %w", err)
	}
	return ds, nil
}

// Init writes ds when the store has never been initialized. It reports
// whether anything was written.
func (s *Store) Init(ctx context.Context, ds Dataset) (bool, error) {
	seeded := false
	err := s.Atomic(ctx, func(tx *Store) error {
		_, err := tx.kv.Get(ctx, keyInitialized)
		if err == nil {
			return nil
		}
		if !errors.Is(err, kv.ErrNotFound) {
			return err
		}
		if err := tx.write(ctx, ds); err != nil {
			return err
		}
		seeded = true
		return tx.kv.Set(ctx, keyInitialized, "true")
	})
	if err != nil {
		return false, fmt.Errorf("failed to initialize store: %w", err)
	}
	if seeded {
		s.log.Info("store seeded",
			zap.Int("operators", len(ds.Operators)),
			zap.Int("machines", len(ds.Machines)),
			zap.Int("sites", len(ds.Sites)),
			zap.Int("shifts", len(ds.Shifts)),
			zap.Int("maintenance", len(ds.Maintenance)),
		)
	}
	return seeded, nil
}

// Reset drops every collection and seeds ds again. Pending shifts of known
// operators are dropped too.
func (s *Store) Reset(ctx context.Context, ds Dataset) error {
	err := s.Atomic(ctx, func(tx *Store) error {
		ops, err := operators.list(ctx, tx.kv)
		if err != nil {
			return err
		}
		for _, o := range ops {
			if err := tx.kv.Remove(ctx, pendingKey(o.ID)); err != nil {
				return err
			}
		}
		for _, key := range []string{keyOperators, keyMachines, keyShifts, keyMaintenance, keySites, keyInitialized} {
			if err := tx.kv.Remove(ctx, key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	s.log.Warn("store reset")
	_, err = s.Init(ctx, ds)
	return err
}

// write stores ds as-is. Records without an ID get one.
func (s *Store) write(ctx context.Context, ds Dataset) error {
	now := s.clock.Now()
	for i := range ds.Operators {
		stamp(&ds.Operators[i], s.ids, now)
	}
	for i := range ds.Machines {
		stamp(&ds.Machines[i], s.ids, now)
	}
	for i := range ds.Sites {
		stamp(&ds.Sites[i], s.ids, now)
	}
	for i := range ds.Shifts {
		stamp(&ds.Shifts[i], s.ids, now)
	}
	for i := range ds.Maintenance {
		stamp(&ds.Maintenance[i], s.ids, now)
	}

	if err := operators.replace(ctx, s.kv, ds.Operators); err != nil {
		return err
	}
	if err := machines.replace(ctx, s.kv, ds.Machines); err != nil {
		return err
	}
	if err := sites.replace(ctx, s.kv, ds.Sites); err != nil {
		return err
	}
	if err := shifts.replace(ctx, s.kv, ds.Shifts); err != nil {
		return err
	}
	return maintenance.replace(ctx, s.kv, ds.Maintenance)
}

// stamp gives a seed record without an ID a fresh identity.
func stamp[T any, P record[T]](item P, ids clock.IDGenerator, at time.Time) {
	if item.GetID() == "" {
		item.Stamp(ids.New(), at)
	}
}

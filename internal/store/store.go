// Package store is the entity store of the fleet: operators, machines, shift
// records, maintenance events and sites, each kept as an ordered collection
// in a kv.Store.
package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"fleet-timesheet-backend/internal/apperr"
	"fleet-timesheet-backend/internal/clock"
	"fleet-timesheet-backend/internal/kv"
	"fleet-timesheet-backend/internal/model"
)

const (
	keyOperators   = "fleet_operators"
	keyMachines    = "fleet_machines"
	keyShifts      = "fleet_shifts"
	keyMaintenance = "fleet_maintenance"
	keySites       = "fleet_sites"
	keyInitialized = "fleet_initialized"

	pendingShiftPrefix = "fleet_pending_shift:"
)

var (
	operators   = collection[model.Operator, *model.Operator]{key: keyOperators, entity: "operator"}
	machines    = collection[model.Machine, *model.Machine]{key: keyMachines, entity: "machine"}
	shifts      = collection[model.ShiftRecord, *model.ShiftRecord]{key: keyShifts, entity: "shift record"}
	maintenance = collection[model.MaintenanceEvent, *model.MaintenanceEvent]{key: keyMaintenance, entity: "maintenance event"}
	sites       = collection[model.Site, *model.Site]{key: keySites, entity: "site"}
)

// Store serializes every read-modify-write cycle on the collections. A Store
// handed to an Atomic callback shares the parent's lock and writes through
// the transaction.
type Store struct {
	kv    kv.Store
	clock clock.Clock
	ids   clock.IDGenerator
	log   *zap.Logger

	mu   *sync.Mutex
	inTx bool
}

// New creates a Store over kvs.
func New(kvs kv.Store, clk clock.Clock, ids clock.IDGenerator, log *zap.Logger) *Store {
	return &Store{
		kv:    kvs,
		clock: clk,
		ids:   ids,
		log:   log,
		mu:    &sync.Mutex{},
	}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Atomic runs fn in one durable transaction. Nothing fn wrote is kept when
// it returns an error.
func (s *Store) Atomic(ctx context.Context, fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Atomic(ctx, func(kvTx kv.Store) error {
		return fn(&Store{
			kv:    kvTx,
			clock: s.clock,
			ids:   s.ids,
			log:   s.log,
			mu:    s.mu,
			inTx:  true,
		})
	})
}

// --- Operators ---

func (s *Store) ListOperators(ctx context.Context) ([]model.Operator, error) {
	defer s.lock()()
	return operators.list(ctx, s.kv)
}

func (s *Store) GetOperator(ctx context.Context, id string) (model.Operator, error) {
	defer s.lock()()
	return operators.get(ctx, s.kv, id)
}

func (s *Store) CreateOperator(ctx context.Context, o model.Operator) (model.Operator, error) {
	defer s.lock()()
	return operators.create(ctx, s.kv, o, s.ids.New(), s.clock.Now())
}

func (s *Store) UpdateOperator(ctx context.Context, id string, p model.OperatorPatch) (model.Operator, error) {
	defer s.lock()()
	return operators.update(ctx, s.kv, id, func(o *model.Operator) { p.Apply(o) })
}

func (s *Store) DeleteOperator(ctx context.Context, id string) (bool, error) {
	defer s.lock()()
	return operators.delete(ctx, s.kv, id)
}

// --- Machines ---

func (s *Store) ListMachines(ctx context.Context) ([]model.Machine, error) {
	defer s.lock()()
	return machines.list(ctx, s.kv)
}

func (s *Store) GetMachine(ctx context.Context, id string) (model.Machine, error) {
	defer s.lock()()
	return machines.get(ctx, s.kv, id)
}

func (s *Store) CreateMachine(ctx context.Context, m model.Machine) (model.Machine, error) {
	defer s.lock()()
	return machines.create(ctx, s.kv, m, s.ids.New(), s.clock.Now())
}

func (s *Store) UpdateMachine(ctx context.Context, id string, p model.MachinePatch) (model.Machine, error) {
	defer s.lock()()
	return machines.update(ctx, s.kv, id, func(m *model.Machine) { p.Apply(m) })
}

// EditMachine is the administrative update of a machine. Unlike
// UpdateMachine it never moves the current hour-meter backwards; only
// reconciliation sets it from a closed shift.
func (s *Store) EditMachine(ctx context.Context, id string, p model.MachinePatch) (model.Machine, error) {
	defer s.lock()()
	current, err := machines.get(ctx, s.kv, id)
	if err != nil {
		return model.Machine{}, err
	}
	if p.CurrentHourMeter != nil && *p.CurrentHourMeter < current.CurrentHourMeter {
		return model.Machine{}, apperr.Validation("machine",
			apperr.Field("currentHourMeter", "must not be below the current hour-meter"))
	}
	return machines.update(ctx, s.kv, id, func(m *model.Machine) { p.Apply(m) })
}

func (s *Store) DeleteMachine(ctx context.Context, id string) (bool, error) {
	defer s.lock()()
	return machines.delete(ctx, s.kv, id)
}

// --- Shift records ---

func (s *Store) ListShifts(ctx context.Context) ([]model.ShiftRecord, error) {
	defer s.lock()()
	return shifts.list(ctx, s.kv)
}

func (s *Store) GetShift(ctx context.Context, id string) (model.ShiftRecord, error) {
	defer s.lock()()
	return shifts.get(ctx, s.kv, id)
}

func (s *Store) CreateShift(ctx context.Context, r model.ShiftRecord) (model.ShiftRecord, error) {
	defer s.lock()()
	return shifts.create(ctx, s.kv, r, s.ids.New(), s.clock.Now())
}

// UpdateShift applies p verbatim. Recompute is the caller's business.
func (s *Store) UpdateShift(ctx context.Context, id string, p model.ShiftRecordPatch) (model.ShiftRecord, error) {
	defer s.lock()()
	return shifts.update(ctx, s.kv, id, func(r *model.ShiftRecord) { p.Apply(r) })
}

func (s *Store) DeleteShift(ctx context.Context, id string) (bool, error) {
	defer s.lock()()
	return shifts.delete(ctx, s.kv, id)
}

// --- Maintenance events ---

func (s *Store) ListMaintenance(ctx context.Context) ([]model.MaintenanceEvent, error) {
	defer s.lock()()
	return maintenance.list(ctx, s.kv)
}

func (s *Store) GetMaintenance(ctx context.Context, id string) (model.MaintenanceEvent, error) {
	defer s.lock()()
	return maintenance.get(ctx, s.kv, id)
}

func (s *Store) CreateMaintenance(ctx context.Context, e model.MaintenanceEvent) (model.MaintenanceEvent, error) {
	defer s.lock()()
	return maintenance.create(ctx, s.kv, e, s.ids.New(), s.clock.Now())
}

func (s *Store) UpdateMaintenance(ctx context.Context, id string, p model.MaintenancePatch) (model.MaintenanceEvent, error) {
	defer s.lock()()
	return maintenance.update(ctx, s.kv, id, func(e *model.MaintenanceEvent) { p.Apply(e) })
}

func (s *Store) DeleteMaintenance(ctx context.Context, id string) (bool, error) {
	defer s.lock()()
	return maintenance.delete(ctx, s.kv, id)
}

// --- Sites ---

func (s *Store) ListSites(ctx context.Context) ([]model.Site, error) {
	defer s.lock()()
	return sites.list(ctx, s.kv)
}

func (s *Store) GetSite(ctx context.Context, id string) (model.Site, error) {
	defer s.lock()()
	return sites.get(ctx, s.kv, id)
}

func (s *Store) CreateSite(ctx context.Context, site model.Site) (model.Site, error) {
	defer s.lock()()
	return sites.create(ctx, s.kv, site, s.ids.New(), s.clock.Now())
}

func (s *Store) UpdateSite(ctx context.Context, id string, p model.SitePatch) (model.Site, error) {
	defer s.lock()()
	return sites.update(ctx, s.kv, id, func(site *model.Site) { p.Apply(site) })
}

func (s *Store) DeleteSite(ctx context.Context, id string) (bool, error) {
	defer s.lock()()
	return sites.delete(ctx, s.kv, id)
}

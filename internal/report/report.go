// Package report builds the dashboard and period reports from the entity
// store. References to deleted machines or operators render as "N/A".
package report

import (
	"context"
	"sort"
	"time"

	"fleet-timesheet-backend/internal/clock"
	"fleet-timesheet-backend/internal/maintenance"
	"fleet-timesheet-backend/internal/model"
	"fleet-timesheet-backend/internal/store"
)

// Placeholder is shown for a reference that no longer resolves.
const Placeholder = "N/A"

const recentShifts = 5

// ShiftLine is a shift record with its references resolved.
type ShiftLine struct {
	model.ShiftRecord
	MachineName  string `json:"machineName"`
	OperatorName string `json:"operatorName"`
}

// MaintenanceLine is a maintenance event with its machine resolved.
type MaintenanceLine struct {
	model.MaintenanceEvent
	MachineName string              `json:"machineName"`
	Urgency     maintenance.Urgency `json:"urgency,omitempty"`
}

// Dashboard is the landing summary of the fleet.
type Dashboard struct {
	TotalMachines      int               `json:"totalMachines"`
	ActiveMachines     int               `json:"activeMachines"`
	HoursToday         float64           `json:"hoursToday"`
	HoursThisMonth     float64           `json:"hoursThisMonth"`
	PendingMaintenance int               `json:"pendingMaintenance"`
	OverdueMaintenance int               `json:"overdueMaintenance"`
	RecentShifts       []ShiftLine       `json:"recentShifts"`
	Attention          []MaintenanceLine `json:"attention"`
}

// Builder computes reports in a fixed time zone.
type Builder struct {
	store *store.Store
	clock clock.Clock
	loc   *time.Location
}

func NewBuilder(s *store.Store, clk clock.Clock, loc *time.Location) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{store: s, clock: clk, loc: loc}
}

// Location is the zone days and months are cut in.
func (b *Builder) Location() *time.Location { return b.loc }

type snapshot struct {
	machines    []model.Machine
	operators   []model.Operator
	shifts      []model.ShiftRecord
	maintenance []model.MaintenanceEvent

	machineNames  map[string]string
	operatorNames map[string]string
}

func (b *Builder) snapshot(ctx context.Context) (*snapshot, error) {
	var snap snapshot
	err := b.store.Atomic(ctx, func(tx *store.Store) error {
		var err error
		if snap.machines, err = tx.ListMachines(ctx); err != nil {
			return err
		}
		if snap.operators, err = tx.ListOperators(ctx); err != nil {
			return err
		}
		if snap.shifts, err = tx.ListShifts(ctx); err != nil {
			return err
		}
		snap.maintenance, err = tx.ListMaintenance(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	snap.machineNames = make(map[string]string, len(snap.machines))
	for _, m := range snap.machines {
		snap.machineNames[m.ID] = m.Name
	}
	snap.operatorNames = make(map[string]string, len(snap.operators))
	for _, o := range snap.operators {
		snap.operatorNames[o.ID] = o.Name
	}
	return &snap, nil
}

func (s *snapshot) machineName(id string) string {
	if name, ok := s.machineNames[id]; ok {
		return name
	}
	return Placeholder
}

func (s *snapshot) operatorName(id string) string {
	if name, ok := s.operatorNames[id]; ok {
		return name
	}
	return Placeholder
}

func (s *snapshot) shiftLine(r model.ShiftRecord) ShiftLine {
	return ShiftLine{ShiftRecord: r, MachineName: s.machineName(r.MachineID), OperatorName: s.operatorName(r.OperatorID)}
}

func (s *snapshot) maintenanceLine(e model.MaintenanceEvent) MaintenanceLine {
	line := MaintenanceLine{MaintenanceEvent: e, MachineName: s.machineName(e.MachineID)}
	if maintenance.IsAttentionNeeded(e) {
		line.Urgency = maintenance.ClassifyUrgency(e)
	}
	return line
}

// Dashboard summarizes the fleet as of now. Hours are attributed to the day
// and month the shift started in.
func (b *Builder) Dashboard(ctx context.Context) (Dashboard, error) {
	snap, err := b.snapshot(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	now := b.clock.Now().In(b.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, b.loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, b.loc)

	d := Dashboard{
		TotalMachines: len(snap.machines),
		RecentShifts:  make([]ShiftLine, 0, recentShifts),
		Attention:     make([]MaintenanceLine, 0),
	}
	for _, m := range snap.machines {
		if m.Active {
			d.ActiveMachines++
		}
	}
	for _, r := range snap.shifts {
		started := r.StartedAt.In(b.loc)
		if !started.Before(dayStart) {
			d.HoursToday += r.WorkedHours
		}
		if !started.Before(monthStart) {
			d.HoursThisMonth += r.WorkedHours
		}
	}

	summary := maintenance.Aggregate(snap.maintenance)
	d.PendingMaintenance = summary.Global.Pending
	d.OverdueMaintenance = summary.Global.Overdue
	for _, a := range maintenance.AttentionList(snap.maintenance) {
		d.Attention = append(d.Attention, snap.maintenanceLine(a.Event))
	}

	recent := append([]model.ShiftRecord(nil), snap.shifts...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].StartedAt.After(recent[j].StartedAt)
	})
	if len(recent) > recentShifts {
		recent = recent[:recentShifts]
	}
	for _, r := range recent {
		d.RecentShifts = append(d.RecentShifts, snap.shiftLine(r))
	}
	return d, nil
}

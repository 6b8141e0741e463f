package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fleet-timesheet-backend/internal/kv"
	"fleet-timesheet-backend/internal/maintenance"
	"fleet-timesheet-backend/internal/model"
	"fleet-timesheet-backend/internal/store"
	"fleet-timesheet-backend/internal/testutil"
)

type fleet struct {
	builder *Builder
	store   *store.Store
	exc     model.Machine
	dozer   model.Machine
	ana     model.Operator
	bruno   model.Operator
}

func ptr[T any](v T) *T { return &v }

// now is 2025-03-10 07:00 UTC.
func newFleet(t *testing.T) *fleet {
	t.Helper()
	ctx := context.Background()
	clk := testutil.FixedClock()
	s := store.New(kv.NewMemory(), clk, testutil.NewStubIDGenerator(), zap.NewNop())

	f := &fleet{builder: NewBuilder(s, clk, time.UTC), store: s}
	var err error
	f.exc, err = s.CreateMachine(ctx, model.Machine{Name: "Excavator", Type: model.MachineExcavator, CurrentHourMeter: 100, Active: true})
	require.NoError(t, err)
	f.dozer, err = s.CreateMachine(ctx, model.Machine{Name: "Dozer", Type: model.MachineCrawlerTractor, CurrentHourMeter: 50, Active: false})
	require.NoError(t, err)
	f.ana, err = s.CreateOperator(ctx, model.Operator{Name: "Ana", PIN: "1111", Role: model.RoleAdmin, Active: true})
	require.NoError(t, err)
	f.bruno, err = s.CreateOperator(ctx, model.Operator{Name: "Bruno", PIN: "2222", Role: model.RoleOperator, Active: true})
	require.NoError(t, err)
	return f
}

func (f *fleet) shift(t *testing.T, machineID, operatorID string, started time.Time, hours float64) model.ShiftRecord {
	t.Helper()
	r, err := f.store.CreateShift(context.Background(), model.ShiftRecord{
		MachineID:      machineID,
		OperatorID:     operatorID,
		Site:           "North",
		StartedAt:      started,
		EndedAt:        started.Add(time.Duration(hours * float64(time.Hour))),
		StartHourMeter: 0,
		EndHourMeter:   hours,
		WorkedHours:    hours,
	})
	require.NoError(t, err)
	return r
}

func (f *fleet) maintenance(t *testing.T, machineID string, date time.Time, status model.MaintenanceStatus, cost *float64) {
	t.Helper()
	_, err := f.store.CreateMaintenance(context.Background(), model.MaintenanceEvent{
		MachineID:   machineID,
		Type:        model.MaintenancePreventive,
		Date:        date,
		Description: "service",
		Cost:        cost,
		Status:      status,
	})
	require.NoError(t, err)
}

func day(d, h int) time.Time {
	return time.Date(2025, 3, d, h, 0, 0, 0, time.UTC)
}

func TestDashboard(t *testing.T) {
	f := newFleet(t)
	f.shift(t, f.exc.ID, f.bruno.ID, time.Date(2025, 2, 28, 8, 0, 0, 0, time.UTC), 9)
	f.shift(t, f.exc.ID, f.bruno.ID, day(3, 8), 8)
	f.shift(t, f.dozer.ID, f.ana.ID, day(9, 8), 6)
	f.shift(t, f.exc.ID, f.ana.ID, day(10, 1), 2.5)
	f.shift(t, f.exc.ID, f.bruno.ID, day(10, 5), 1)
	f.shift(t, "deleted-machine", f.bruno.ID, day(5, 8), 4)
	f.maintenance(t, f.exc.ID, day(1, 0), model.StatusPending, nil)
	f.maintenance(t, f.exc.ID, day(2, 0), model.StatusOverdue, nil)
	f.maintenance(t, f.dozer.ID, day(2, 0), model.StatusDone, nil)

	d, err := f.builder.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, d.TotalMachines)
	assert.Equal(t, 1, d.ActiveMachines)
	assert.Equal(t, 3.5, d.HoursToday)
	assert.Equal(t, 21.5, d.HoursThisMonth)
	assert.Equal(t, 1, d.PendingMaintenance)
	assert.Equal(t, 1, d.OverdueMaintenance)

	require.Len(t, d.RecentShifts, 5)
	assert.Equal(t, day(10, 5), d.RecentShifts[0].StartedAt, "newest first")
	assert.Equal(t, day(3, 8), d.RecentShifts[4].StartedAt)
	assert.Equal(t, Placeholder, d.RecentShifts[3].MachineName, "orphaned machine renders as placeholder")

	require.Len(t, d.Attention, 2)
	assert.Equal(t, maintenance.UrgencyOverdue, d.Attention[0].Urgency)
	assert.Equal(t, "Excavator", d.Attention[0].MachineName)
}

func TestDashboard_Empty(t *testing.T) {
	f := newFleet(t)
	d, err := f.builder.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Empty(t, d.RecentShifts)
	assert.NotNil(t, d.RecentShifts)
	assert.Zero(t, d.HoursToday)
}

func TestPeriod(t *testing.T) {
	f := newFleet(t)
	f.shift(t, f.exc.ID, f.bruno.ID, day(1, 8), 8)
	f.shift(t, f.exc.ID, f.ana.ID, day(2, 8), 3)
	f.shift(t, f.dozer.ID, f.bruno.ID, day(2, 23), 5)
	f.shift(t, f.dozer.ID, "deleted-operator", day(4, 8), 2)
	f.maintenance(t, f.exc.ID, day(2, 0), model.StatusDone, ptr(300.0))
	f.maintenance(t, f.dozer.ID, day(2, 12), model.StatusPending, nil)
	f.maintenance(t, f.dozer.ID, day(6, 0), model.StatusPending, ptr(99.0))

	t.Run("inclusive range", func(t *testing.T) {
		from := day(2, 0)
		to := time.Date(2025, 3, 2, 23, 59, 59, 0, time.UTC)
		p, err := f.builder.Period(context.Background(), Filter{From: &from, To: &to})
		require.NoError(t, err)

		assert.Equal(t, Summary{TotalHours: 8, ShiftCount: 2, MaintenanceCount: 2, MaintenanceCost: 300, MachinesUsed: 2}, p.Summary)
		require.Len(t, p.ByMachine, 2)
		assert.Equal(t, Hours{ID: f.dozer.ID, Name: "Dozer", Hours: 5, Shifts: 1}, p.ByMachine[0])
		assert.Equal(t, Hours{ID: f.exc.ID, Name: "Excavator", Hours: 3, Shifts: 1}, p.ByMachine[1])
		require.Len(t, p.ByOperator, 2)
		assert.Equal(t, "Bruno", p.ByOperator[0].Name)
	})

	t.Run("machine filter and open bounds", func(t *testing.T) {
		p, err := f.builder.Period(context.Background(), Filter{MachineID: f.dozer.ID})
		require.NoError(t, err)

		assert.Equal(t, 7.0, p.Summary.TotalHours)
		assert.Equal(t, 2, p.Summary.MaintenanceCount)
		assert.Equal(t, 99.0, p.Summary.MaintenanceCost)
		require.Len(t, p.ByOperator, 2)
		assert.Equal(t, Hours{ID: f.bruno.ID, Name: "Bruno", Hours: 5, Shifts: 1}, p.ByOperator[0])
		assert.Equal(t, Placeholder, p.ByOperator[1].Name)
	})
}

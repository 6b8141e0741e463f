package hourmeter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"fleet-timesheet-backend/internal/apperr"
	"fleet-timesheet-backend/internal/kv"
	"fleet-timesheet-backend/internal/metrics"
	"fleet-timesheet-backend/internal/model"
	"fleet-timesheet-backend/internal/store"
	"fleet-timesheet-backend/internal/testutil"
)

type testRecorder struct {
	metrics.NoopRecorder
	rejected   map[metrics.RejectReason]int
	overwrites int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{rejected: map[metrics.RejectReason]int{}}
}

func (r *testRecorder) IncRejectedReading(reason metrics.RejectReason) { r.rejected[reason]++ }
func (r *testRecorder) IncHourMeterOverwrite()                         { r.overwrites++ }

func newStoreWithMachine(t *testing.T, current float64) (*store.Store, model.Machine) {
	t.Helper()
	s := store.New(kv.NewMemory(), testutil.FixedClock(), testutil.NewStubIDGenerator(), zap.NewNop())
	m, err := s.CreateMachine(context.Background(), model.Machine{
		Name:             "M1",
		Type:             model.MachineBackhoe,
		InitialHourMeter: 0,
		CurrentHourMeter: current,
		Active:           true,
	})
	require.NoError(t, err)
	return s, m
}

func ptr(v float64) *float64 { return &v }

func TestCompute(t *testing.T) {
	testCases := []struct {
		name      string
		start     float64
		end       float64
		expected  float64
		expectErr bool
	}{
		{name: "Twelve hours", start: 500, end: 512, expected: 12},
		{name: "Fractional", start: 100.25, end: 101.75, expected: 1.5},
		{name: "Equal readings", start: 300, end: 300, expected: 0},
		{name: "End below start", start: 512, end: 500, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			hours, err := Compute(tc.start, tc.end)
			if tc.expectErr {
				assert.ErrorIs(t, err, apperr.ErrInvalidReading)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, hours)
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, LastWriteWins, m)

	m, err = ParseMode("compare_and_set")
	require.NoError(t, err)
	assert.Equal(t, CompareAndSet, m)

	_, err = ParseMode("optimistic")
	assert.Error(t, err)
}

func TestReconcile_AdvancesMachine(t *testing.T) {
	ctx := context.Background()
	s, m := newStoreWithMachine(t, 500)
	r := NewReconciler(s, LastWriteWins, zap.NewNop(), nil)

	hours, machine, err := r.Reconcile(ctx, Reading{MachineID: m.ID, Start: 500, End: 512})
	require.NoError(t, err)
	assert.Equal(t, 12.0, hours)
	assert.Equal(t, 512.0, machine.CurrentHourMeter)

	got, err := s.GetMachine(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 512.0, got.CurrentHourMeter)
}

func TestReconcile_SetsEndUnconditionally(t *testing.T) {
	ctx := context.Background()
	s, m := newStoreWithMachine(t, 700)
	r := NewReconciler(s, LastWriteWins, zap.NewNop(), nil)

	_, machine, err := r.Reconcile(ctx, Reading{MachineID: m.ID, Start: 600, End: 650})
	require.NoError(t, err)
	assert.Equal(t, 650.0, machine.CurrentHourMeter, "a validated reading is trusted even below the current value")
}

func TestReconcile_InvalidReadingWritesNothing(t *testing.T) {
	ctx := context.Background()
	s, m := newStoreWithMachine(t, 500)
	rec := newTestRecorder()
	r := NewReconciler(s, LastWriteWins, zap.NewNop(), rec)

	_, _, err := r.Reconcile(ctx, Reading{MachineID: m.ID, Start: 500, End: 499.9})
	assert.ErrorIs(t, err, apperr.ErrInvalidReading)
	assert.Equal(t, 1, rec.rejected[metrics.RejectInvalidReading])

	got, err := s.GetMachine(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, got.CurrentHourMeter)
}

func TestReconcile_MissingMachine(t *testing.T) {
	s, _ := newStoreWithMachine(t, 500)
	r := NewReconciler(s, LastWriteWins, zap.NewNop(), nil)

	_, _, err := r.Reconcile(context.Background(), Reading{MachineID: "ghost", Start: 1, End: 2})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReconcile_MovedMeter(t *testing.T) {
	ctx := context.Background()

	t.Run("last write wins logs and overwrites", func(t *testing.T) {
		s, m := newStoreWithMachine(t, 530)
		core, logs := observer.New(zapcore.WarnLevel)
		rec := newTestRecorder()
		r := NewReconciler(s, LastWriteWins, zap.New(core), rec)

		_, machine, err := r.Reconcile(ctx, Reading{MachineID: m.ID, Start: 500, End: 512, Observed: ptr(500)})
		require.NoError(t, err)
		assert.Equal(t, 512.0, machine.CurrentHourMeter)
		assert.Equal(t, 1, rec.overwrites)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, 530.0, logs.All()[0].ContextMap()["current"])
	})

	t.Run("compare and set refuses", func(t *testing.T) {
		s, m := newStoreWithMachine(t, 530)
		rec := newTestRecorder()
		r := NewReconciler(s, CompareAndSet, zap.NewNop(), rec)

		_, _, err := r.Reconcile(ctx, Reading{MachineID: m.ID, Start: 500, End: 512, Observed: ptr(500)})
		require.ErrorIs(t, err, apperr.ErrConflict)
		var conflict *apperr.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, 530.0, conflict.Actual)
		assert.Equal(t, 1, rec.rejected[metrics.RejectConflict])

		got, err := s.GetMachine(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, 530.0, got.CurrentHourMeter)
	})

	t.Run("compare and set passes when unchanged", func(t *testing.T) {
		s, m := newStoreWithMachine(t, 500)
		r := NewReconciler(s, CompareAndSet, zap.NewNop(), nil)

		hours, _, err := r.Reconcile(ctx, Reading{MachineID: m.ID, Start: 500, End: 512, Observed: ptr(500)})
		require.NoError(t, err)
		assert.Equal(t, 12.0, hours)
	})
}

// Package hourmeter turns a pair of hour-meter readings into worked hours and
// pushes the closing reading into the machine record.
package hourmeter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"fleet-timesheet-backend/internal/apperr"
	"fleet-timesheet-backend/internal/metrics"
	"fleet-timesheet-backend/internal/model"
	"fleet-timesheet-backend/internal/store"
)

// Mode selects how a close treats a machine hour-meter that moved since the
// shift was opened.
type Mode string

const (
	// LastWriteWins overwrites the hour-meter and logs a warning.
	LastWriteWins Mode = "last_write_wins"
	// CompareAndSet refuses the write with a ConflictError.
	CompareAndSet Mode = "compare_and_set"
)

// ParseMode maps a configuration value to a Mode. Empty means LastWriteWins.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", LastWriteWins:
		return LastWriteWins, nil
	case CompareAndSet:
		return CompareAndSet, nil
	}
	return "", fmt.Errorf("unknown hour-meter guard %q", s)
}

// Compute returns end - start, or an InvalidReadingError when end < start.
func Compute(start, end float64) (float64, error) {
	if end < start {
		return 0, &apperr.InvalidReadingError{Start: start, End: end}
	}
	return end - start, nil
}

// Reading is a start/end pair taken on one machine.
type Reading struct {
	MachineID string
	Start     float64
	End       float64
	// Observed is the machine hour-meter seen when the reading started. Nil
	// skips the moved-meter check.
	Observed *float64
}

// Reconciler validates readings and advances machine hour-meters.
type Reconciler struct {
	store   *store.Store
	mode    Mode
	log     *zap.Logger
	metrics metrics.Recorder
}

func NewReconciler(s *store.Store, mode Mode, log *zap.Logger, rec metrics.Recorder) *Reconciler {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Reconciler{store: s, mode: mode, log: log, metrics: rec}
}

// With returns a copy of r that writes through tx.
func (r *Reconciler) With(tx *store.Store) *Reconciler {
	c := *r
	c.store = tx
	return &c
}

// Mode reports the configured guard.
func (r *Reconciler) Mode() Mode { return r.mode }

// Reconcile validates the reading and sets the machine's current hour-meter
// to its end value. Nothing is written when it fails.
func (r *Reconciler) Reconcile(ctx context.Context, reading Reading) (float64, model.Machine, error) {
	hours, err := Compute(reading.Start, reading.End)
	if err != nil {
		r.metrics.IncRejectedReading(metrics.RejectInvalidReading)
		return 0, model.Machine{}, err
	}

	var machine model.Machine
	err = r.store.Atomic(ctx, func(tx *store.Store) error {
		current, err := tx.GetMachine(ctx, reading.MachineID)
		if err != nil {
			return err
		}
		if reading.Observed != nil && current.CurrentHourMeter != *reading.Observed {
			if r.mode == CompareAndSet {
				r.metrics.IncRejectedReading(metrics.RejectConflict)
				return &apperr.ConflictError{
					MachineID: reading.MachineID,
					Expected:  *reading.Observed,
					Actual:    current.CurrentHourMeter,
				}
			}
			r.metrics.IncHourMeterOverwrite()
			r.log.Warn("overwriting hour-meter advanced since shift open",
				zap.String("machine_id", reading.MachineID),
				zap.Float64("observed", *reading.Observed),
				zap.Float64("current", current.CurrentHourMeter),
				zap.Float64("new", reading.End),
			)
		}
		end := reading.End
		machine, err = tx.UpdateMachine(ctx, reading.MachineID, model.MachinePatch{CurrentHourMeter: &end})
		return err
	})
	if err != nil {
		return 0, model.Machine{}, err
	}
	return hours, machine, nil
}

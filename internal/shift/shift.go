// Package shift runs the per-operator shift lifecycle: Idle, then Open while
// a pending shift exists, then Idle again on close or cancel.
package shift

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"fleet-timesheet-backend/internal/apperr"
	"fleet-timesheet-backend/internal/clock"
	"fleet-timesheet-backend/internal/hourmeter"
	"fleet-timesheet-backend/internal/metrics"
	"fleet-timesheet-backend/internal/model"
	"fleet-timesheet-backend/internal/store"
)

// Session identifies who is acting. It is resolved by the caller and passed
// into every operation.
type Session struct {
	OperatorID string
	Admin      bool
}

// AdvanceListener is told about every machine whose hour-meter moved.
// Implementations must not block.
type AdvanceListener interface {
	HourMeterAdvanced(machineID string)
}

// OpenRequest starts a shift. StartHourMeter defaults to the machine's
// current hour-meter.
type OpenRequest struct {
	MachineID      string   `json:"machineId"`
	Site           string   `json:"site"`
	StartHourMeter *float64 `json:"startHourMeter"`
}

// CloseRequest ends the open shift.
type CloseRequest struct {
	EndHourMeter float64 `json:"endHourMeter"`
	Notes        *string `json:"notes"`
}

// Service implements the shift lifecycle over the entity store.
type Service struct {
	store      *store.Store
	reconciler *hourmeter.Reconciler
	clock      clock.Clock
	log        *zap.Logger
	metrics    metrics.Recorder
	listener   AdvanceListener
}

func NewService(s *store.Store, r *hourmeter.Reconciler, clk clock.Clock, log *zap.Logger, rec metrics.Recorder) *Service {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Service{store: s, reconciler: r, clock: clk, log: log, metrics: rec}
}

// OnAdvance registers l to hear about hour-meter advances.
func (svc *Service) OnAdvance(l AdvanceListener) {
	svc.listener = l
}

// Current returns the session operator's pending shift, or nil when Idle.
func (svc *Service) Current(ctx context.Context, sess Session) (*model.PendingShift, error) {
	if err := requireOperator(sess); err != nil {
		return nil, err
	}
	return svc.store.PendingShift(ctx, sess.OperatorID)
}

// Open moves the session operator from Idle to Open.
func (svc *Service) Open(ctx context.Context, sess Session, req OpenRequest) (model.PendingShift, error) {
	if err := requireOperator(sess); err != nil {
		return model.PendingShift{}, err
	}

	var pending model.PendingShift
	err := svc.store.Atomic(ctx, func(tx *store.Store) error {
		existing, err := tx.PendingShift(ctx, sess.OperatorID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Precondition("operator %q already has an open shift on machine %q", sess.OperatorID, existing.MachineID)
		}

		var errs []error
		if req.MachineID == "" {
			errs = append(errs, apperr.Required("machineId"))
		}
		if strings.TrimSpace(req.Site) == "" {
			errs = append(errs, apperr.Required("site"))
		}
		if req.StartHourMeter != nil && *req.StartHourMeter < 0 {
			errs = append(errs, apperr.Field("startHourMeter", "must not be negative"))
		}
		if err := apperr.Validation("shift", errs...); err != nil {
			return err
		}

		machine, err := tx.GetMachine(ctx, req.MachineID)
		if err != nil {
			return err
		}
		if !machine.Active {
			return apperr.Precondition("machine %q is inactive", machine.ID)
		}

		start := machine.CurrentHourMeter
		if req.StartHourMeter != nil {
			start = *req.StartHourMeter
		}
		if start < machine.InitialHourMeter {
			return apperr.Validation("shift",
				apperr.Field("startHourMeter", "must not be below the machine's initial hour-meter"))
		}
		pending = model.PendingShift{
			OperatorID:        sess.OperatorID,
			MachineID:         machine.ID,
			Site:              strings.TrimSpace(req.Site),
			StartHourMeter:    start,
			StartedAt:         svc.clock.Now(),
			ObservedHourMeter: machine.CurrentHourMeter,
		}
		return tx.PutPendingShift(ctx, pending)
	})
	if err != nil {
		return model.PendingShift{}, err
	}

	svc.metrics.IncShift(metrics.ShiftOpened)
	svc.log.Info("shift opened",
		zap.String("operator_id", pending.OperatorID),
		zap.String("machine_id", pending.MachineID),
		zap.Float64("start_hour_meter", pending.StartHourMeter),
	)
	return pending, nil
}

// Close reconciles the open shift and, in one transaction, stores the shift
// record, advances the machine and drops the pending shift. On any error the
// shift stays Open and nothing is written.
func (svc *Service) Close(ctx context.Context, sess Session, req CloseRequest) (model.ShiftRecord, error) {
	if err := requireOperator(sess); err != nil {
		return model.ShiftRecord{}, err
	}

	var (
		record  model.ShiftRecord
		machine model.Machine
	)
	err := svc.store.Atomic(ctx, func(tx *store.Store) error {
		pending, err := tx.PendingShift(ctx, sess.OperatorID)
		if err != nil {
			return err
		}
		if pending == nil {
			return apperr.Precondition("operator %q has no open shift", sess.OperatorID)
		}

		observed := pending.ObservedHourMeter
		var hours float64
		hours, machine, err = svc.reconciler.With(tx).Reconcile(ctx, hourmeter.Reading{
			MachineID: pending.MachineID,
			Start:     pending.StartHourMeter,
			End:       req.EndHourMeter,
			Observed:  &observed,
		})
		if err != nil {
			return err
		}

		record, err = tx.CreateShift(ctx, model.ShiftRecord{
			MachineID:      pending.MachineID,
			OperatorID:     pending.OperatorID,
			Site:           pending.Site,
			StartedAt:      pending.StartedAt,
			EndedAt:        svc.clock.Now(),
			StartHourMeter: pending.StartHourMeter,
			EndHourMeter:   req.EndHourMeter,
			WorkedHours:    hours,
			Notes:          trimNotes(req.Notes),
		})
		if err != nil {
			return err
		}
		return tx.RemovePendingShift(ctx, sess.OperatorID)
	})
	if err != nil {
		return model.ShiftRecord{}, err
	}

	svc.metrics.IncShift(metrics.ShiftClosed)
	svc.metrics.ObserveWorkedHours(string(machine.Type), record.WorkedHours)
	svc.log.Info("shift closed",
		zap.String("shift_id", record.ID),
		zap.String("operator_id", record.OperatorID),
		zap.String("machine_id", record.MachineID),
		zap.Float64("worked_hours", record.WorkedHours),
	)
	svc.advanced(record.MachineID)
	return record, nil
}

// Cancel drops the open shift without writing any entity.
func (svc *Service) Cancel(ctx context.Context, sess Session) error {
	if err := requireOperator(sess); err != nil {
		return err
	}
	err := svc.store.Atomic(ctx, func(tx *store.Store) error {
		pending, err := tx.PendingShift(ctx, sess.OperatorID)
		if err != nil {
			return err
		}
		if pending == nil {
			return apperr.Precondition("operator %q has no open shift", sess.OperatorID)
		}
		return tx.RemovePendingShift(ctx, sess.OperatorID)
	})
	if err != nil {
		return err
	}
	svc.metrics.IncShift(metrics.ShiftCancelled)
	svc.log.Info("shift cancelled", zap.String("operator_id", sess.OperatorID))
	return nil
}

func (svc *Service) advanced(machineID string) {
	if svc.listener != nil {
		svc.listener.HourMeterAdvanced(machineID)
	}
}

func requireOperator(sess Session) error {
	if sess.OperatorID == "" {
		return apperr.Validation("session", apperr.Required("operatorId"))
	}
	return nil
}

func requireAdmin(sess Session) error {
	if !sess.Admin {
		return apperr.Precondition("admin session required")
	}
	return nil
}

func trimNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	s := strings.TrimSpace(*notes)
	if s == "" {
		return nil
	}
	return &s
}

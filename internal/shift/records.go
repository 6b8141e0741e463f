package shift

import (
	"context"

	"go.uber.org/zap"

	"fleet-timesheet-backend/internal/apperr"
	"fleet-timesheet-backend/internal/hourmeter"
	"fleet-timesheet-backend/internal/metrics"
	"fleet-timesheet-backend/internal/model"
	"fleet-timesheet-backend/internal/store"
)

// Records lists shift records. Operators only see their own.
func (svc *Service) Records(ctx context.Context, sess Session) ([]model.ShiftRecord, error) {
	if err := requireOperator(sess); err != nil {
		return nil, err
	}
	all, err := svc.store.ListShifts(ctx)
	if err != nil {
		return nil, err
	}
	if sess.Admin {
		return all, nil
	}
	own := make([]model.ShiftRecord, 0)
	for _, r := range all {
		if r.OperatorID == sess.OperatorID {
			own = append(own, r)
		}
	}
	return own, nil
}

// RecordManual stores a shift entered after the fact by an admin. It goes
// through the same reconciliation as Close and advances the machine.
func (svc *Service) RecordManual(ctx context.Context, sess Session, r model.ShiftRecord) (model.ShiftRecord, error) {
	if err := requireAdmin(sess); err != nil {
		return model.ShiftRecord{}, err
	}
	if err := r.Validate(); err != nil {
		return model.ShiftRecord{}, err
	}

	var record model.ShiftRecord
	err := svc.store.Atomic(ctx, func(tx *store.Store) error {
		if _, err := tx.GetOperator(ctx, r.OperatorID); err != nil {
			return err
		}
		machine, err := tx.GetMachine(ctx, r.MachineID)
		if err != nil {
			return err
		}
		if r.StartHourMeter < machine.InitialHourMeter {
			return apperr.Validation("shift",
				apperr.Field("startHourMeter", "must not be below the machine's initial hour-meter"))
		}
		hours, _, err := svc.reconciler.With(tx).Reconcile(ctx, hourmeter.Reading{
			MachineID: r.MachineID,
			Start:     r.StartHourMeter,
			End:       r.EndHourMeter,
		})
		if err != nil {
			return err
		}
		r.WorkedHours = hours
		r.Notes = trimNotes(r.Notes)
		record, err = tx.CreateShift(ctx, r)
		return err
	})
	if err != nil {
		return model.ShiftRecord{}, err
	}

	svc.metrics.IncShift(metrics.ShiftManual)
	svc.log.Info("shift recorded manually",
		zap.String("shift_id", record.ID),
		zap.String("admin_id", sess.OperatorID),
		zap.Float64("worked_hours", record.WorkedHours),
	)
	svc.advanced(record.MachineID)
	return record, nil
}

// EditRecord applies an admin correction. Worked hours are re-derived only
// when p.Recompute is set. The machine hour-meter is never touched.
func (svc *Service) EditRecord(ctx context.Context, sess Session, id string, p model.ShiftRecordPatch) (model.ShiftRecord, error) {
	if err := requireAdmin(sess); err != nil {
		return model.ShiftRecord{}, err
	}

	var updated model.ShiftRecord
	err := svc.store.Atomic(ctx, func(tx *store.Store) error {
		if p.Recompute {
			current, err := tx.GetShift(ctx, id)
			if err != nil {
				return err
			}
			p.Apply(&current)
			hours, err := hourmeter.Compute(current.StartHourMeter, current.EndHourMeter)
			if err != nil {
				return err
			}
			p.WorkedHours = &hours
		}
		var err error
		updated, err = tx.UpdateShift(ctx, id, p)
		return err
	})
	if err != nil {
		return model.ShiftRecord{}, err
	}
	return updated, nil
}

// DeleteRecord removes a shift record. The machine hour-meter is not
// reverted.
func (svc *Service) DeleteRecord(ctx context.Context, sess Session, id string) (bool, error) {
	if err := requireAdmin(sess); err != nil {
		return false, err
	}
	return svc.store.DeleteShift(ctx, id)
}

// Package operators enforces the operator rules the entity store does not
// know about: PIN format and uniqueness, and the active admin floor.
package operators

import (
	"context"

	"go.uber.org/zap"

	"fleet-timesheet-backend/internal/apperr"
	"fleet-timesheet-backend/internal/model"
	"fleet-timesheet-backend/internal/parse"
	"fleet-timesheet-backend/internal/store"
)

// Service manages operators.
type Service struct {
	store *store.Store
	log   *zap.Logger
}

func NewService(s *store.Store, log *zap.Logger) *Service {
	return &Service{store: s, log: log}
}

func (svc *Service) List(ctx context.Context) ([]model.Operator, error) {
	return svc.store.ListOperators(ctx)
}

func (svc *Service) Get(ctx context.Context, id string) (model.Operator, error) {
	return svc.store.GetOperator(ctx, id)
}

// Create adds an operator after checking its PIN.
func (svc *Service) Create(ctx context.Context, o model.Operator) (model.Operator, error) {
	var created model.Operator
	err := svc.store.Atomic(ctx, func(tx *store.Store) error {
		all, err := tx.ListOperators(ctx)
		if err != nil {
			return err
		}
		pin, err := checkPIN(o.PIN, "", all)
		if err != nil {
			return err
		}
		o.PIN = pin
		created, err = tx.CreateOperator(ctx, o)
		return err
	})
	if err != nil {
		return model.Operator{}, err
	}
	svc.log.Info("operator created", zap.String("operator_id", created.ID), zap.String("role", string(created.Role)))
	return created, nil
}

// Update applies p. A new PIN must be unique, and the last active admin can
// neither be deactivated nor demoted.
func (svc *Service) Update(ctx context.Context, id string, p model.OperatorPatch) (model.Operator, error) {
	var updated model.Operator
	err := svc.store.Atomic(ctx, func(tx *store.Store) error {
		all, err := tx.ListOperators(ctx)
		if err != nil {
			return err
		}
		current, ok := find(all, id)
		if !ok {
			return apperr.NotFound("operator", id)
		}
		if p.PIN != nil {
			pin, err := checkPIN(*p.PIN, id, all)
			if err != nil {
				return err
			}
			p.PIN = &pin
		}

		next := current
		p.Apply(&next)
		if current.IsActiveAdmin() && !next.IsActiveAdmin() && activeAdmins(all, id) == 0 {
			return apperr.Precondition("operator %q is the last active admin", id)
		}

		updated, err = tx.UpdateOperator(ctx, id, p)
		return err
	})
	if err != nil {
		return model.Operator{}, err
	}
	return updated, nil
}

// SetActive activates or deactivates an operator.
func (svc *Service) SetActive(ctx context.Context, id string, active bool) (model.Operator, error) {
	return svc.Update(ctx, id, model.OperatorPatch{Active: &active})
}

// Delete removes an operator. Deleting the only admin record, or the last
// active admin, is refused. A missing id reports false.
func (svc *Service) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := svc.store.Atomic(ctx, func(tx *store.Store) error {
		all, err := tx.ListOperators(ctx)
		if err != nil {
			return err
		}
		current, ok := find(all, id)
		if !ok {
			return nil
		}
		if current.Role == model.RoleAdmin {
			if admins(all) == 1 {
				return apperr.Precondition("operator %q is the only admin", id)
			}
			if current.Active && activeAdmins(all, id) == 0 {
				return apperr.Precondition("operator %q is the last active admin", id)
			}
		}
		deleted, err = tx.DeleteOperator(ctx, id)
		return err
	})
	if err != nil {
		return false, err
	}
	if deleted {
		svc.log.Info("operator deleted", zap.String("operator_id", id))
	}
	return deleted, nil
}

// Authenticate returns the active operator holding pin.
func (svc *Service) Authenticate(ctx context.Context, pin string) (model.Operator, error) {
	all, err := svc.store.ListOperators(ctx)
	if err != nil {
		return model.Operator{}, err
	}
	for _, o := range all {
		if o.PIN == pin && o.Active {
			return o, nil
		}
	}
	return model.Operator{}, apperr.NotFound("operator", "")
}

// checkPIN validates the format of raw and that no operator other than
// selfID holds it, active or not.
func checkPIN(raw, selfID string, all []model.Operator) (string, error) {
	pin, err := parse.PIN(raw)
	if err != nil {
		return "", apperr.Validation("operator", apperr.Field("pin", "must be exactly 4 digits"))
	}
	for _, o := range all {
		if o.ID != selfID && o.PIN == pin {
			return "", apperr.Validation("operator", apperr.Field("pin", "is already in use"))
		}
	}
	return pin, nil
}

func find(all []model.Operator, id string) (model.Operator, bool) {
	for _, o := range all {
		if o.ID == id {
			return o, true
		}
	}
	return model.Operator{}, false
}

func admins(all []model.Operator) int {
	n := 0
	for _, o := range all {
		if o.Role == model.RoleAdmin {
			n++
		}
	}
	return n
}

// activeAdmins counts active admins other than exceptID.
func activeAdmins(all []model.Operator, exceptID string) int {
	n := 0
	for _, o := range all {
		if o.ID != exceptID && o.IsActiveAdmin() {
			n++
		}
	}
	return n
}

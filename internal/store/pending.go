package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fleet-timesheet-backend/internal/kv"
	"fleet-timesheet-backend/internal/model"
)

func pendingKey(operatorID string) string {
	return pendingShiftPrefix + operatorID
}

// PendingShift returns the in-progress shift of operatorID, or nil when the
// operator has none.
func (s *Store) PendingShift(ctx context.Context, operatorID string) (*model.PendingShift, error) {
	defer s.lock()()
	raw, err := s.kv.Get(ctx, pendingKey(operatorID))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p model.PendingShift
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to decode pending shift of operator %q: %w", operatorID, err)
	}
	return &p, nil
}

// PutPendingShift stores p under its operator, replacing any previous value.
func (s *Store) PutPendingShift(ctx context.Context, p model.PendingShift) error {
	defer s.lock()()
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode pending shift: %w", err)
	}
	return s.kv.Set(ctx, pendingKey(p.OperatorID), string(raw))
}

// RemovePendingShift clears the in-progress shift of operatorID.
func (s *Store) RemovePendingShift(ctx context.Context, operatorID string) error {
	defer s.lock()()
	return s.kv.Remove(ctx, pendingKey(operatorID))
}

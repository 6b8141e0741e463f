package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fleet-timesheet-backend/internal/apperr"
	"fleet-timesheet-backend/internal/kv"
)

// record is the pointer side of an entity kept in a collection.
type record[T any] interface {
	*T
	GetID() string
	Stamp(id string, at time.Time)
	Validate() error
}

// collection is an ordered list of entities stored as one JSON array under a
// single key.
type collection[T any, P record[T]] struct {
	key    string
	entity string
}

func (c collection[T, P]) load(ctx context.Context, s kv.Store) ([]T, error) {
	raw, err := s.Get(ctx, c.key)
	if errors.Is(err, kv.ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s collection: %w", c.entity, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c collection[T, P]) save(ctx context.Context, s kv.Store, items []T) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s collection: %w", c.entity, err)
	}
	return s.Set(ctx, c.key, string(raw))
}

func (c collection[T, P]) index(items []T, id string) int {
	for i := range items {
		if P(&items[i]).GetID() == id {
			return i
		}
	}
	return -1
}

func (c collection[T, P]) list(ctx context.Context, s kv.Store) ([]T, error) {
	return c.load(ctx, s)
}

func (c collection[T, P]) get(ctx context.Context, s kv.Store, id string) (T, error) {
	var zero T
	items, err := c.load(ctx, s)
	if err != nil {
		return zero, err
	}
	i := c.index(items, id)
	if i < 0 {
		return zero, apperr.NotFound(c.entity, id)
	}
	return items[i], nil
}

func (c collection[T, P]) create(ctx context.Context, s kv.Store, item T, id string, at time.Time) (T, error) {
	var zero T
	if err := P(&item).Validate(); err != nil {
		return zero, err
	}
	items, err := c.load(ctx, s)
	if err != nil {
		return zero, err
	}
	P(&item).Stamp(id, at)
	items = append(items, item)
	if err := c.save(ctx, s, items); err != nil {
		return zero, err
	}
	return item, nil
}

func (c collection[T, P]) update(ctx context.Context, s kv.Store, id string, apply func(*T)) (T, error) {
	var zero T
	items, err := c.load(ctx, s)
	if err != nil {
		return zero, err
	}
	i := c.index(items, id)
	if i < 0 {
		return zero, apperr.NotFound(c.entity, id)
	}
	updated := items[i]
	apply(&updated)
	if err := P(&updated).Validate(); err != nil {
		return zero, err
	}
	items[i] = updated
	if err := c.save(ctx, s, items); err != nil {
		return zero, err
	}
	return updated, nil
}

func (c collection[T, P]) delete(ctx context.Context, s kv.Store, id string) (bool, error) {
	items, err := c.load(ctx, s)
	if err != nil {
		return false, err
	}
	i := c.index(items, id)
	if i < 0 {
		return false, nil
	}
	items = append(items[:i], items[i+1:]...)
	return true, c.save(ctx, s, items)
}

// replace overwrites the whole collection.
func (c collection[T, P]) replace(ctx context.Context, s kv.Store, items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.save(ctx, s, items)
}

package supabase

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// table is the CRUD plumbing shared by every document adapter
type table[T any] struct {
	client *Client
	name   string
	// drop lists JSON keys that are not columns of the table
	drop []string
	// stamp sets created/updated timestamps and the id before writes
	stamp func(row *T, now time.Time, creating bool)
}

func (t *table[T]) get(ctx context.Context, id uuid.UUID) (*T, error) {
	conds, err := idConds(ctx, id)
	if errors.Is(err, errNoTenant) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t.first(conds)
}

func (t *table[T]) first(conds []cond) (*T, error) {
	var rows []T
	if err := t.client.selectWhere(t.name, conds, &rows); err != nil {
		return nil, errors.Wrapf(err, "select %s", t.name)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// all returns every row visible in ctx matching the extra equality conditions
func (t *table[T]) all(ctx context.Context, extra ...cond) ([]T, error) {
	conds, err := tenantConds(ctx)
	if errors.Is(err, errNoTenant) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	var rows []T
	if err := t.client.selectWhere(t.name, append(conds, extra...), &rows); err != nil {
		return nil, errors.Wrapf(err, "select %s", t.name)
	}
	return rows, nil
}

func (t *table[T]) create(row *T) error {
	t.stamp(row, time.Now().UTC(), true)
	data, err := toRow(row, t.drop...)
	if err != nil {
		return err
	}
	var out []T
	if err := t.client.insert(t.name, data, &out); err != nil {
		return errors.Wrapf(err, "insert %s", t.name)
	}
	return nil
}

func (t *table[T]) save(ctx context.Context, id uuid.UUID, row *T) error {
	t.stamp(row, time.Now().UTC(), false)
	conds, err := idConds(ctx, id)
	if err != nil {
		return err
	}
	data, err := toRow(row, append([]string{"id", "created_at"}, t.drop...)...)
	if err != nil {
		return err
	}
	var out []T
	if err := t.client.updateWhere(t.name, data, conds, &out); err != nil {
		return errors.Wrapf(err, "update %s", t.name)
	}
	return nil
}

func (t *table[T]) remove(ctx context.Context, id uuid.UUID) error {
	conds, err := idConds(ctx, id)
	if err != nil {
		return err
	}
	return errors.Wrapf(t.client.deleteWhere(t.name, conds), "delete %s", t.name)
}

// sortDesc orders rows newest first by the key returned from at
func sortDesc[T any](rows []T, at func(*T) time.Time, tie func(*T) string) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := at(&rows[i]), at(&rows[j])
		if a.Equal(b) {
			return tie(&rows[i]) > tie(&rows[j])
		}
		return a.After(b)
	})
}

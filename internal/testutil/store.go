// Package testutil provides in-memory repositories and fake collaborators
// for service tests. The repositories honour the same tenant scoping rules
// as the database adapters.
package testutil

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	domainRepo "github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ErrMissing is returned when updating or deleting a row that is not stored
var ErrMissing = errors.New("record not found")

// Store keeps rows in insertion order and hands out deep copies so callers
// never share memory with the stored state.
type Store[T any] struct {
	mu     sync.Mutex
	rows   []T
	id     func(*T) uuid.UUID
	tenant func(*T) uuid.UUID
}

// NewStore creates a store keyed by id. tenant may be nil for unscoped rows.
func NewStore[T any](id, tenant func(*T) uuid.UUID) *Store[T] {
	return &Store[T]{id: id, tenant: tenant}
}

func visible(ctx context.Context, tenantID uuid.UUID) bool {
	if domainRepo.SkipTenantScope(ctx) {
		return true
	}
	current, ok := domainRepo.GetTenantID(ctx)
	return ok && current == tenantID
}

func (s *Store[T]) visible(ctx context.Context, row *T) bool {
	return s.tenant == nil || visible(ctx, s.tenant(row))
}

// Insert stores a copy of row
func (s *Store[T]) Insert(row *T) error {
	c, err := clone(row)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, *c)
	return nil
}

// Get returns a copy of the row with id, or nil when it is absent or hidden
func (s *Store[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	return s.First(ctx, func(row *T) bool { return s.id(row) == id })
}

// First returns a copy of the first visible row matching pred
func (s *Store[T]) First(ctx context.Context, pred func(*T) bool) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.visible(ctx, &s.rows[i]) && pred(&s.rows[i]) {
			return clone(&s.rows[i])
		}
	}
	return nil, nil
}

// Put replaces the stored row with the same id
func (s *Store[T]) Put(ctx context.Context, row *T) error {
	c, err := clone(row)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.id(&s.rows[i]) == s.id(row) && s.visible(ctx, &s.rows[i]) {
			s.rows[i] = *c
			return nil
		}
	}
	return ErrMissing
}

// Remove deletes the row with id
func (s *Store[T]) Remove(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.id(&s.rows[i]) == id && s.visible(ctx, &s.rows[i]) {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return ErrMissing
}

// Filter returns copies of every visible row matching pred
func (s *Store[T]) Filter(ctx context.Context, pred func(*T) bool) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0, len(s.rows))
	for i := range s.rows {
		if !s.visible(ctx, &s.rows[i]) || !pred(&s.rows[i]) {
			continue
		}
		c, err := clone(&s.rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

// Len counts every stored row regardless of tenant
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func clone[T any](v *T) (*T, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "clone")
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "clone")
	}
	return &out, nil
}

func groupByStatus[T any](rows []T, status func(T) string, total, outstanding func(T) decimal.Decimal) []domainRepo.StatusAggregate {
	groups := lo.GroupBy(rows, status)
	out := make([]domainRepo.StatusAggregate, 0, len(groups))
	for s, members := range groups {
		agg := domainRepo.StatusAggregate{Status: s, Count: int64(len(members)), Total: decimal.Zero, Outstanding: decimal.Zero}
		for _, m := range members {
			agg.Total = agg.Total.Add(total(m))
			if outstanding != nil {
				agg.Outstanding = agg.Outstanding.Add(outstanding(m))
			}
		}
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out
}

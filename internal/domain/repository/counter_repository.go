package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/enum"
)

// CounterRepository hands out document sequence numbers. Next must be atomic:
// two concurrent callers never receive the same value for the same key.
type CounterRepository interface {
	Next(ctx context.Context, tenantID uuid.UUID, scope enum.DocumentScope, year int) (int64, error)
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
)

// IdempotencyRepository stores replayable responses keyed by client key and user
type IdempotencyRepository interface {
	// GetByKey returns nil, nil when the key was never used by this user
	GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error)
	Create(ctx context.Context, ikey *entity.IdempotencyKey) error
	// DeleteExpired removes keys that expired before the cutoff and reports how many
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

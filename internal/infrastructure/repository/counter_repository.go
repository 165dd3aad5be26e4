package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	domainRepo "github.com/sangkips/investify-billing/internal/domain/repository"
	"gorm.io/gorm"
)

type counterRepository struct {
	db *gorm.DB
}

// NewCounterRepository creates a counter backed by an upsert on document_counters
func NewCounterRepository(db *gorm.DB) domainRepo.CounterRepository {
	return &counterRepository{db: db}
}

// Next increments and returns the counter in a single statement. The row lock
// taken by ON CONFLICT serialises concurrent callers.
func (r *counterRepository) Next(ctx context.Context, tenantID uuid.UUID, scope enum.DocumentScope, year int) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO document_counters (tenant_id, scope, year, value)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (tenant_id, scope, year)
		DO UPDATE SET value = document_counters.value + 1
		RETURNING value`,
		tenantID, string(scope), year,
	).Scan(&value).Error
	return value, err
}

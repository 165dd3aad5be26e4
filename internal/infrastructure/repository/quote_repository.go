package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-billing/internal/domain/repository"
	"gorm.io/gorm"
)

type quoteRepository struct {
	db *gorm.DB
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *gorm.DB) domainRepo.QuoteRepository {
	return &quoteRepository{db: db}
}

func (r *quoteRepository) Create(ctx context.Context, quote *entity.Quote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *quoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Quote, error) {
	var quote entity.Quote
	err := r.db.WithContext(ctx).Scopes(TenantScope(ctx)).First(&quote, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &quote, err
}

func (r *quoteRepository) Update(ctx context.Context, quote *entity.Quote) error {
	return r.db.WithContext(ctx).Save(quote).Error
}

func (r *quoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Scopes(TenantScope(ctx)).Delete(&entity.Quote{}, "id = ?", id).Error
}

func (r *quoteRepository) List(ctx context.Context, filter *domainRepo.QuoteFilter) ([]entity.Quote, int64, error) {
	var quotes []entity.Quote
	var total int64

	query := r.filtered(ctx, filter)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := query
	if filter != nil {
		q = q.Scopes(Paginate(filter.Pagination))
	}
	err := q.Order("issue_date DESC, number DESC").Find(&quotes).Error
	return quotes, total, err
}

func (r *quoteRepository) Count(ctx context.Context, filter *domainRepo.QuoteFilter) (int64, error) {
	var total int64
	err := r.filtered(ctx, filter).Count(&total).Error
	return total, err
}

func (r *quoteRepository) Aggregate(ctx context.Context, filter *domainRepo.QuoteFilter) ([]domainRepo.StatusAggregate, error) {
	return aggregateByStatus(r.filtered(ctx, filter), "total_amount", "")
}

func (r *quoteRepository) filtered(ctx context.Context, f *domainRepo.QuoteFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entity.Quote{}).Scopes(TenantScope(ctx))
	if f == nil {
		return query
	}
	if len(f.Statuses) > 0 {
		query = query.Where("status IN ?", domainRepo.StatusStrings(f.Statuses))
	}
	if f.CustomerID != nil {
		query = query.Where("customer_id = ?", *f.CustomerID)
	}
	if f.ExpiresBefore != nil {
		query = query.Where("expiry_date < ?", *f.ExpiresBefore)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		query = query.Where("number ILIKE ? OR company_name ILIKE ? OR title ILIKE ?", like, like, like)
	}
	return query
}

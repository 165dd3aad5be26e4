package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-billing/internal/domain/repository"
	"gorm.io/gorm"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) domainRepo.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := r.db.WithContext(ctx).Scopes(TenantScope(ctx)).First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &invoice, err
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *entity.Invoice) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Scopes(TenantScope(ctx)).Delete(&entity.Invoice{}, "id = ?", id).Error
}

func (r *invoiceRepository) List(ctx context.Context, filter *domainRepo.InvoiceFilter) ([]entity.Invoice, int64, error) {
	var invoices []entity.Invoice
	var total int64

	query := r.filtered(ctx, filter)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := query
	if filter != nil {
		q = q.Scopes(Paginate(filter.Pagination))
	}
	err := q.Order("issue_date DESC, number DESC").Find(&invoices).Error
	return invoices, total, err
}

func (r *invoiceRepository) Count(ctx context.Context, filter *domainRepo.InvoiceFilter) (int64, error) {
	var total int64
	err := r.filtered(ctx, filter).Count(&total).Error
	return total, err
}

func (r *invoiceRepository) Aggregate(ctx context.Context, filter *domainRepo.InvoiceFilter) ([]domainRepo.StatusAggregate, error) {
	return aggregateByStatus(r.filtered(ctx, filter), "total_amount", "remaining_balance")
}

func (r *invoiceRepository) filtered(ctx context.Context, f *domainRepo.InvoiceFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entity.Invoice{}).Scopes(TenantScope(ctx))
	if f == nil {
		return query
	}
	if len(f.Statuses) > 0 {
		query = query.Where("status IN ?", domainRepo.StatusStrings(f.Statuses))
	}
	if len(f.ExcludeStatuses) > 0 {
		query = query.Where("status NOT IN ?", domainRepo.StatusStrings(f.ExcludeStatuses))
	}
	if f.CustomerID != nil {
		query = query.Where("customer_id = ?", *f.CustomerID)
	}
	if f.QuoteID != nil {
		query = query.Where("quote_id = ?", *f.QuoteID)
	}
	if f.DueBefore != nil {
		query = query.Where("due_date < ?", *f.DueBefore)
	}
	if f.DueAfter != nil {
		query = query.Where("due_date > ?", *f.DueAfter)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		query = query.Where("number ILIKE ? OR company_name ILIKE ?", like, like)
	}
	return query
}

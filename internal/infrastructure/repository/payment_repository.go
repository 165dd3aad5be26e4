package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-billing/internal/domain/repository"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) domainRepo.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	var payment entity.Payment
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Preload("Refunds", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) GetByGatewayIntentID(ctx context.Context, intentID string) (*entity.Payment, error) {
	var payment entity.Payment
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Preload("Refunds", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&payment, "gateway_payment_intent_id = ?", intentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

// Update writes the payment and every refund row, so refund status changes persist
func (r *paymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(payment).Error
}

func (r *paymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("payment_id = ?", id).Delete(&entity.Refund{}).Error; err != nil {
			return err
		}
		return tx.Scopes(TenantScope(ctx)).Delete(&entity.Payment{}, "id = ?", id).Error
	})
}

func (r *paymentRepository) List(ctx context.Context, filter *domainRepo.PaymentFilter) ([]entity.Payment, int64, error) {
	var payments []entity.Payment
	var total int64

	query := r.filtered(ctx, filter)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := query
	if filter != nil {
		q = q.Scopes(Paginate(filter.Pagination))
	}
	err := q.Preload("Refunds").Order("created_at DESC").Find(&payments).Error
	return payments, total, err
}

func (r *paymentRepository) Count(ctx context.Context, filter *domainRepo.PaymentFilter) (int64, error) {
	var total int64
	err := r.filtered(ctx, filter).Count(&total).Error
	return total, err
}

func (r *paymentRepository) Aggregate(ctx context.Context, filter *domainRepo.PaymentFilter) ([]domainRepo.StatusAggregate, error) {
	return aggregateByStatus(r.filtered(ctx, filter), "amount", "")
}

func (r *paymentRepository) filtered(ctx context.Context, f *domainRepo.PaymentFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entity.Payment{}).Scopes(TenantScope(ctx))
	if f == nil {
		return query
	}
	if len(f.Statuses) > 0 {
		query = query.Where("status IN ?", domainRepo.StatusStrings(f.Statuses))
	}
	if f.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *f.InvoiceID)
	}
	if f.CustomerID != nil {
		query = query.Where("customer_id = ?", *f.CustomerID)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		query = query.Where("number ILIKE ? OR gateway_payment_intent_id ILIKE ?", like, like)
	}
	return query
}

package repository

import (
	"context"

	domainRepo "github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/sangkips/investify-billing/pkg/pagination"
	"gorm.io/gorm"
)

// TenantScope returns a GORM scope that filters by tenant.
// It must be applied to every query on a tenant-owned table. Contexts marked
// with WithSkipTenantScope see all tenants.
func TenantScope(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if domainRepo.SkipTenantScope(ctx) {
			return db
		}

		tenantID, ok := domainRepo.GetTenantID(ctx)
		if !ok {
			// no tenant in context: match nothing rather than leak rows
			return db.Where("1 = 0")
		}
		return db.Where("tenant_id = ?", tenantID)
	}
}

// Paginate applies OFFSET/LIMIT when params are given
func Paginate(params *pagination.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params == nil {
			return db
		}
		params.Validate()
		return db.Offset(params.Offset()).Limit(params.PerPage)
	}
}

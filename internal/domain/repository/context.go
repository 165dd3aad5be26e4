package repository

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	tenantIDKey        ctxKey = "tenant_id"
	skipTenantScopeKey ctxKey = "skip_tenant_scope"
)

// WithTenant adds tenant ID to context
func WithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// GetTenantID extracts tenant ID from context
func GetTenantID(ctx context.Context) (uuid.UUID, bool) {
	tenantID, ok := ctx.Value(tenantIDKey).(uuid.UUID)
	return tenantID, ok
}

// WithSkipTenantScope lets super admins and background jobs read across tenants
func WithSkipTenantScope(ctx context.Context, skip bool) context.Context {
	return context.WithValue(ctx, skipTenantScopeKey, skip)
}

// SkipTenantScope reports whether queries in ctx ignore the tenant filter
func SkipTenantScope(ctx context.Context) bool {
	skip, ok := ctx.Value(skipTenantScopeKey).(bool)
	return ok && skip
}

// ScopeForTenant narrows a cross-tenant context back to a single tenant.
// Background jobs use it before acting on one tenant's document.
func ScopeForTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	return WithSkipTenantScope(WithTenant(ctx, tenantID), false)
}

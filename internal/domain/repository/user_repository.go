package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
)

// UserRepository reads and updates the operators who sign in. Accounts are
// provisioned by the migrate command.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	// GetWithRoles loads roles and their permissions
	GetWithRoles(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

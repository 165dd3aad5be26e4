package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/application/service"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/pkg/apperror"
	"github.com/sangkips/investify-billing/pkg/logger"
	"github.com/sangkips/investify-billing/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type users struct {
	byID map[uuid.UUID]*entity.User
}

func (u *users) GetByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return u.byID[id], nil
}

func (u *users) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, user := range u.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (u *users) Update(_ context.Context, user *entity.User) error {
	u.byID[user.ID] = user
	return nil
}

func (u *users) GetWithRoles(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return u.GetByID(ctx, id)
}

func newAuth(t *testing.T) (*service.AuthService, *utils.JWTManager, *entity.User) {
	t.Helper()

	hashed, err := utils.HashPassword("secret-pass")
	require.NoError(t, err)

	user := &entity.User{
		ID:        uuid.New(),
		TenantID:  uuid.New(),
		FirstName: "Ada",
		LastName:  "Okello",
		Email:     "ada@example.com",
		Password:  hashed,
		IsActive:  true,
		Roles: []entity.Role{{
			Name:        "accountant",
			Permissions: []entity.Permission{{Name: "manage-invoices"}},
		}},
	}
	jwt := utils.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	repo := &users{byID: map[uuid.UUID]*entity.User{user.ID: user}}
	return service.NewAuthService(repo, jwt, logger.NewNop()), jwt, user
}

func TestLoginIssuesTenantScopedTokens(t *testing.T) {
	auth, jwt, user := newAuth(t)

	out, err := auth.Login(context.Background(), &service.LoginInput{Email: user.Email, Password: "secret-pass"})
	require.NoError(t, err)
	require.NotNil(t, user.LastLoginAt)

	claims, err := jwt.ValidateAccessToken(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.TenantID, claims.TenantID)
	assert.Equal(t, []string{"accountant"}, claims.Roles)
	assert.Equal(t, []string{"manage-invoices"}, claims.Permissions)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth, _, user := newAuth(t)
	ctx := context.Background()

	_, err := auth.Login(ctx, &service.LoginInput{Email: user.Email, Password: "wrong"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = auth.Login(ctx, &service.LoginInput{Email: "nobody@example.com", Password: "secret-pass"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	user.IsActive = false
	_, err = auth.Login(ctx, &service.LoginInput{Email: user.Email, Password: "secret-pass"})
	require.Error(t, err)
	assert.Equal(t, 403, apperror.GetAppError(err).Code)
}

func TestRefreshToken(t *testing.T) {
	auth, jwt, user := newAuth(t)
	ctx := context.Background()

	refresh, err := jwt.GenerateRefreshToken(user.ID)
	require.NoError(t, err)

	out, err := auth.RefreshToken(ctx, refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)

	_, err = auth.RefreshToken(ctx, "garbage")
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)
}

func TestChangePassword(t *testing.T) {
	auth, _, user := newAuth(t)
	ctx := context.Background()

	err := auth.ChangePassword(ctx, &service.ChangePasswordInput{
		UserID:          user.ID,
		CurrentPassword: "not-it",
		NewPassword:     "another-pass",
	})
	assert.True(t, apperror.IsValidation(err))

	require.NoError(t, auth.ChangePassword(ctx, &service.ChangePasswordInput{
		UserID:          user.ID,
		CurrentPassword: "secret-pass",
		NewPassword:     "another-pass",
	}))
	assert.True(t, utils.CheckPasswordHash("another-pass", user.Password))
}

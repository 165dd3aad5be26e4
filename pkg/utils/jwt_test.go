package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, 24*time.Hour)
	userID, tenantID := uuid.New(), uuid.New()

	access, err := m.GenerateAccessToken(userID, tenantID, "ops@acme.test", []string{"admin"}, []string{"manage-invoices"})
	require.NoError(t, err)
	claims, err := m.ValidateAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, tenantID, claims.TenantID)

	refresh, err := m.GenerateRefreshToken(userID)
	require.NoError(t, err)
	got, err := m.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, 24*time.Hour)
	userID := uuid.New()

	access, err := m.GenerateAccessToken(userID, uuid.New(), "ops@acme.test", nil, nil)
	require.NoError(t, err)
	refresh, err := m.GenerateRefreshToken(userID)
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(refresh)
	assert.Error(t, err)
	_, err = m.ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestTokenRejections(t *testing.T) {
	issued := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	m := NewJWTManager("secret", time.Hour, 24*time.Hour)
	m.now = func() time.Time { return issued }

	access, err := m.GenerateAccessToken(uuid.New(), uuid.New(), "ops@acme.test", nil, nil)
	require.NoError(t, err)

	other := NewJWTManager("different", time.Hour, 24*time.Hour)
	other.now = m.now
	_, err = other.ValidateAccessToken(access)
	assert.Error(t, err, "wrong secret")

	m.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = m.ValidateAccessToken(access)
	assert.Error(t, err, "expired")

	_, err = m.ValidateAccessToken("not-a-token")
	assert.Error(t, err)
}

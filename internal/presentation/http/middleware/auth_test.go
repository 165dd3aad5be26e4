package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/sangkips/investify-billing/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authRouter(jwt *utils.JWTManager, seen *uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(jwt))
	r.GET("/me", RequirePermission("manage-invoices"), func(c *gin.Context) {
		id, _ := repository.GetTenantID(c.Request.Context())
		*seen = id
		c.Status(http.StatusNoContent)
	})
	return r
}

func bearer(t *testing.T, jwt *utils.JWTManager, tenantID uuid.UUID, roles, perms []string) string {
	t.Helper()
	token, err := jwt.GenerateAccessToken(uuid.New(), tenantID, "amina@example.com", roles, perms)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthMiddleware(t *testing.T) {
	jwt := utils.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	tenantID := uuid.New()

	t.Run("missing header", func(t *testing.T) {
		var seen uuid.UUID
		w := httptest.NewRecorder()
		authRouter(jwt, &seen).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("binds tenant to request context", func(t *testing.T) {
		var seen uuid.UUID
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", bearer(t, jwt, tenantID, []string{"accountant"}, []string{"manage-invoices"}))
		w := httptest.NewRecorder()
		authRouter(jwt, &seen).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, tenantID, seen)
	})

	t.Run("missing permission", func(t *testing.T) {
		var seen uuid.UUID
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", bearer(t, jwt, tenantID, []string{"sales"}, []string{"manage-quotes"}))
		w := httptest.NewRecorder()
		authRouter(jwt, &seen).ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("tenant override needs super admin", func(t *testing.T) {
		var seen uuid.UUID
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", bearer(t, jwt, tenantID, []string{"admin"}, []string{"manage-invoices"}))
		req.Header.Set(TenantOverrideHeader, uuid.NewString())
		w := httptest.NewRecorder()
		authRouter(jwt, &seen).ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("super admin switches tenant", func(t *testing.T) {
		var seen uuid.UUID
		other := uuid.New()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", bearer(t, jwt, tenantID, []string{"super-admin"}, nil))
		req.Header.Set(TenantOverrideHeader, other.String())
		w := httptest.NewRecorder()
		authRouter(jwt, &seen).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, other, seen)
	})
}

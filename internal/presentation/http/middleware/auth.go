package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/sangkips/investify-billing/internal/presentation/http/dto/response"
	"github.com/sangkips/investify-billing/pkg/utils"
)

// TenantOverrideHeader lets a super-admin act inside another tenant
const TenantOverrideHeader = "X-Tenant-ID"

const superAdminRole = "super-admin"

// AuthMiddleware validates the bearer token and binds the caller's tenant to
// both the gin context and the request context used by repositories.
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		tenantID := claims.TenantID
		if override := c.GetHeader(TenantOverrideHeader); override != "" {
			if !lo.Contains(claims.Roles, superAdminRole) {
				response.Forbidden(c, "Only super admins may switch tenant")
				c.Abort()
				return
			}
			parsed, err := uuid.Parse(override)
			if err != nil {
				response.BadRequest(c, "Invalid "+TenantOverrideHeader+" header")
				c.Abort()
				return
			}
			tenantID = parsed
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_roles", claims.Roles)
		c.Set("user_permissions", claims.Permissions)
		c.Set("tenant_id", tenantID)

		if tenantID != uuid.Nil {
			c.Request = c.Request.WithContext(repository.WithTenant(c.Request.Context(), tenantID))
		}

		c.Next()
	}
}

// RequirePermission creates a middleware that requires a specific permission.
// Super admins pass every permission check.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles := c.GetStringSlice("user_roles")
		perms := c.GetStringSlice("user_permissions")
		if !lo.Contains(roles, superAdminRole) && !lo.Contains(perms, permission) {
			response.Forbidden(c, "You do not have permission to perform this action")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole creates a middleware that requires one of the given roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(lo.Intersect(c.GetStringSlice("user_roles"), roles)) == 0 {
			response.Forbidden(c, "Insufficient role privileges")
			c.Abort()
			return
		}
		c.Next()
	}
}

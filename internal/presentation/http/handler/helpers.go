package handler

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sangkips/investify-billing/internal/presentation/http/dto/response"
	"github.com/sangkips/investify-billing/pkg/apperror"
	"github.com/sangkips/investify-billing/pkg/pagination"
)

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) *uuid.UUID {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		return nil
	}
	return &userID
}

// GetUserEmail extracts the user email from the Gin context
func GetUserEmail(c *gin.Context) string {
	return c.GetString("user_email")
}

// GetUserRoles extracts the user roles from the Gin context
func GetUserRoles(c *gin.Context) []string {
	return c.GetStringSlice("user_roles")
}

// IsSuperAdmin checks if the user has the super-admin role
func IsSuperAdmin(c *gin.Context) bool {
	return lo.Contains(GetUserRoles(c), "super-admin")
}

// currentUser writes a 401 and returns false when the caller is anonymous
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return uuid.Nil, false
	}
	return *userID, true
}

// parseID reads a UUID path parameter
func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "Invalid "+strings.ReplaceAll(name, "_", " "))
		return uuid.Nil, false
	}
	return id, true
}

// target resolves the caller and the :id path parameter of an action route
func target(c *gin.Context) (id, userID uuid.UUID, ok bool) {
	if userID, ok = currentUser(c); !ok {
		return
	}
	id, ok = parseID(c, "id")
	return
}

// queryID reads an optional UUID query parameter
func queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(c, "Invalid "+name)
		return nil, false
	}
	return &id, true
}

func pageParams(c *gin.Context) *pagination.PaginationParams {
	return pagination.FromStrings(c.Query("page"), c.Query("per_page"))
}

// statuses parses ?status=a,b&status=c into a typed, validated list
func statuses[T ~string](c *gin.Context, valid func(T) bool) ([]T, bool) {
	raw := lo.FlatMap(c.QueryArray("status"), func(v string, _ int) []string {
		return strings.Split(v, ",")
	})
	raw = lo.Compact(lo.Map(raw, func(v string, _ int) string { return strings.TrimSpace(v) }))

	out := lo.Uniq(lo.Map(raw, func(v string, _ int) T { return T(v) }))
	if bad, found := lo.Find(out, func(s T) bool { return !valid(s) }); found {
		response.BadRequest(c, "Unknown status "+string(bad))
		return nil, false
	}
	return out, true
}

// bindJSON binds the body and answers 422 with per-field messages when a
// binding rule fails, 400 when the body is not JSON at all.
func bindJSON(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := lo.Map(verrs, func(fe validator.FieldError, _ int) apperror.FieldError {
			return apperror.FieldError{Field: jsonPath(fe.Namespace()), Message: fieldMessage(fe)}
		})
		response.ValidationError(c, fields)
		return false
	}
	response.BadRequest(c, "Invalid request body")
	return false
}

// bindOptionalJSON accepts an empty body for actions whose payload is optional
func bindOptionalJSON(c *gin.Context, obj interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, obj)
}

// jsonPath turns "CreateInvoiceRequest.Items[0].Description" into "items[0].description"
func jsonPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return toSnake(ns)
}

func toSnake(s string) string {
	isUpper := func(b byte) bool { return b >= 'A' && b <= 'Z' }
	isLower := func(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') }

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if isUpper(ch) {
			if i > 0 && (isLower(s[i-1]) || (isUpper(s[i-1]) && i+1 < len(s) && isLower(s[i+1]))) {
				b.WriteByte('_')
			}
			ch += 'a' - 'A'
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "datetime":
		return "must be a date formatted as " + fe.Param()
	case "currency":
		return "must be a three letter ISO 4217 code"
	case "eqfield":
		return "must match " + toSnake(fe.Param())
	default:
		return "is invalid"
	}
}

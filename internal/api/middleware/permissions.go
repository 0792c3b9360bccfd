package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Permission scopes
const (
	ScopeAdmin = "admin"
	ScopeRead  = "read"
	ScopeWrite = "create"
)

// ValidateMethodPermission validates if a given scope allows a specific HTTP method
func ValidateMethodPermission(method string, scope string) bool {
	switch scope {
	case ScopeAdmin:
		return true
	case ScopeWrite:
		return method == http.MethodPost || method == http.MethodPut ||
			method == http.MethodDelete || method == http.MethodPatch
	case ScopeRead:
		return method == http.MethodGet
	default:
		return false
	}
}

// GetRequiredPermissionForMethod returns the required permission scope for a given HTTP method
func GetRequiredPermissionForMethod(method string) string {
	switch method {
	case http.MethodGet:
		return ScopeRead
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return ScopeWrite
	default:
		return ""
	}
}

// RequirePermissions middleware checks if the user has the required permissions
func RequirePermissions(requiredPermissions ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if hasAdmin, ok := c.Get("hasAdminAccess").(bool); ok && hasAdmin {
				return next(c)
			}

			for _, required := range requiredPermissions {
				if !HasPermission(c, required) {
					return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
				}
			}

			return next(c)
		}
	}
}

package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RoleViewer may read a graph but not change it.
const RoleViewer = "viewer"

func CanWrite(user *AppUser) bool {
	return user != nil && user.Role != RoleViewer
}

// RequireWrite rejects callers with a read-only role.
func RequireWrite(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !CanWrite(c.(*AppContext).User) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden"})
		}
		return next(c)
	}
}

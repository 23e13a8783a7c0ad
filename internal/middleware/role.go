package middleware // middleware provides request plumbing shared by the desk routes

import (
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireRole lets a request through only when the "role" stored by JWTAuth
// is one of roles.  The desk issues a single role, STAFF, but the check is
// kept generic.  Anything else is answered with 403 Forbidden.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// JWTAuth stores the raw claim, so a non-string role is treated
			// as missing.
			role, ok := c.Get("role").(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// StaffLogin reports whether the staff panel is currently open.
type StaffLogin interface {
	LoggedIn() bool
}

// RequireStaffLogin answers 403 while the staff panel is logged out, so a
// token issued before a logout stops working until the next login.
func RequireStaffLogin(gate StaffLogin) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !gate.LoggedIn() {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "staff not logged in"})
			}
			return next(c)
		}
	}
}

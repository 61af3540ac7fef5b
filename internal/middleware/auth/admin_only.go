package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/session"
)

func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context())
		u := session.UserFromContext(c.Request().Context())
		if u == nil {
			l.Warn("admin_access_denied", "status", 401, "reason", "no valid access token")
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		if !u.IsAdmin() {
			l.Warn("admin_access_denied", "status", 403, "reason", "not an admin", "user_id", u.ID)
			return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights")
		}
		return next(c)
	}
}

package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/session"
)

type AuthHandler struct {
	Svc          *service.AuthService
	SecureCookie bool
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *AuthHandler) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     auth.AccessCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "register_error", "invalid request body")
	}
	u, err := h.Svc.Register(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return fail(c, "register_error", err)
	}
	logging.FromContext(c.Request().Context()).Info("user_registered", "user_id", u.ID)
	return c.JSON(http.StatusCreated, userResponse(*u))
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "login_error", "invalid request body")
	}
	res, err := h.Svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, "login_error", err)
	}
	c.SetCookie(h.cookie(res.AccessToken, res.ExpiresAt))
	return c.JSON(http.StatusOK, echo.Map{
		"user":        userResponse(res.User),
		"accessToken": res.AccessToken,
		"expiresAt":   res.ExpiresAt,
	})
}

// LogOut drops the access cookie. Tokens are stateless and stay valid until they expire.
func (h *AuthHandler) LogOut(c echo.Context) error {
	c.SetCookie(h.cookie("", time.Unix(0, 0)))
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	u := session.UserFromContext(c.Request().Context())
	if u == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return c.JSON(http.StatusOK, userResponse(*u))
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "profile_error", "invalid request body")
	}
	u, err := h.Svc.UpdateProfile(c.Request().Context(), req.Name, req.Password)
	if err != nil {
		return fail(c, "profile_error", err)
	}
	return c.JSON(http.StatusOK, userResponse(*u))
}

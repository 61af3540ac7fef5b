// Package auth resolves the signed-in user from an access token and guards routes by role.
package auth

import (
	"errors"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

const (
	AccessCookie = "accessToken"
	ContextKey   = "claims"
)

// Authenticate reads a bearer token from the Authorization header or the
// accessToken cookie. A valid token puts its user into the request context.
// Requests without a usable token pass through anonymously.
func Authenticate(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:             ContextKey,
		TokenLookup:            "header:Authorization:Bearer ,cookie:" + AccessCookie,
		ContinueOnIgnoredError: true,
		ParseTokenFunc: func(c echo.Context, raw string) (any, error) {
			claims, err := tokens.AccessClaimsFromToken(strings.TrimSpace(raw), secret)
			if err != nil {
				return nil, err
			}
			req := c.Request()
			c.SetRequest(req.WithContext(session.WithUser(req.Context(), claims.User())))
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if errors.Is(err, echojwt.ErrJWTMissing) {
				return nil
			}
			logging.FromContext(c.Request().Context()).Debug("access_token_rejected", "reason", "invalid token", "error", err)
			return nil
		},
	})
}

// Claims returns the parsed access token claims, or nil for anonymous requests.
func Claims(c echo.Context) *tokens.AccessClaims {
	claims, _ := c.Get(ContextKey).(*tokens.AccessClaims)
	return claims
}

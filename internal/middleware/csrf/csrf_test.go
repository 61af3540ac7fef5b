package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func newServer() *echo.Echo {
	e := echo.New()
	e.Use(Middleware(DefaultConfig()))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/cart", ok)
	e.POST("/cart", ok)
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func fetchToken(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/cart", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	tok := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, tok)
	return tok
}

func cookieWrite(token, header string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "http://example.com/cart", nil)
	req.Header.Set("Origin", "http://example.com")
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "jwt"})
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: token})
	if header != "" {
		req.Header.Set("X-CSRF-Token", header)
	}
	return req
}

func TestCSRF_CookieSessionNeedsMatchingHeader(t *testing.T) {
	e := newServer()
	tok := fetchToken(t, e)

	require.Equal(t, http.StatusForbidden, serve(e, cookieWrite(tok, "")).Code)
	require.Equal(t, http.StatusForbidden, serve(e, cookieWrite(tok, "other")).Code)
	require.Equal(t, http.StatusNoContent, serve(e, cookieWrite(tok, tok)).Code)
}

func TestCSRF_RejectsForeignOrigin(t *testing.T) {
	e := newServer()
	tok := fetchToken(t, e)

	req := cookieWrite(tok, tok)
	req.Header.Set("Origin", "http://evil.test")
	require.Equal(t, http.StatusForbidden, serve(e, req).Code)
}

func TestCSRF_BearerAndAnonymousWritesPass(t *testing.T) {
	e := newServer()

	anon := httptest.NewRequest(http.MethodPost, "/cart", nil)
	require.Equal(t, http.StatusNoContent, serve(e, anon).Code)

	bearer := httptest.NewRequest(http.MethodPost, "/cart", nil)
	bearer.AddCookie(&http.Cookie{Name: "accessToken", Value: "jwt"})
	bearer.Header.Set(echo.HeaderAuthorization, "Bearer jwt")
	require.Equal(t, http.StatusNoContent, serve(e, bearer).Code)
}

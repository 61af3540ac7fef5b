package loggingmw

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/logging"
)

func serve(t *testing.T, h echo.HandlerFunc) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(logging.NewWithWriter("debug", &buf)))
	e.GET("/items/:id", h)

	req := httptest.NewRequest(http.MethodGet, "/items/7", nil)
	req.Header.Set(echo.HeaderXRequestID, "rid-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	return line, rec
}

func TestRequestLogger_Success(t *testing.T) {
	line, rec := serve(t, func(c echo.Context) error {
		require.NotNil(t, logging.FromContext(c.Request().Context()))
		return c.String(http.StatusOK, "ok")
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "rid-1", rec.Header().Get(echo.HeaderXRequestID))
	require.Equal(t, "INFO", line["level"])
	require.Equal(t, "request_completed", line["msg"])
	require.Equal(t, "/items/:id", line["path"])
	require.Equal(t, "rid-1", line["request_id"])
	require.EqualValues(t, 200, line["status"])
}

func TestRequestLogger_HTTPError(t *testing.T) {
	line, rec := serve(t, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	})

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "WARN", line["level"])
	require.EqualValues(t, 404, line["status"])
}

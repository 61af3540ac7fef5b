package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/docstore"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/migration"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/snapshot"
)

func testConfig() config.Config {
	return config.Config{
		ServiceName:         "storefront-test",
		ServerPort:          8080,
		SnapshotBackend:     config.SnapshotMemory,
		DocstoreDriver:      config.DocstoreNone,
		DocstoreOpenTimeout: 2 * time.Second,
		JWTSecret:           []byte("test-secret"),
		AccessTokenTTL:      time.Hour,
		ESIndex:             "products",
		AdminEmail:          "admin@shop.test",
		AdminPassword:       "admin123",
	}
}

func newApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func call(t *testing.T, a *App, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func login(t *testing.T, a *App, email, password string) string {
	t.Helper()
	rec := call(t, a, http.MethodPost, "/api/v1/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[struct {
		AccessToken string `json:"accessToken"`
	}](t, rec)
	require.NotEmpty(t, res.AccessToken)
	return res.AccessToken
}

func TestNew_SeedsCatalogAndAdmin(t *testing.T) {
	a := newApp(t, testConfig())

	require.Len(t, a.Catalog.All(), 3)
	admin, err := a.Repo.UserByEmail(context.Background(), "admin@shop.test")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.False(t, a.Repo.Ready())

	rec := call(t, a, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/health/live", "", nil).Code)
}

func TestNew_KeepsExplicitlyEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	snap := snapshot.NewMemoryStore()
	require.NoError(t, snapshot.SaveList(ctx, snap, snapshot.KeyProducts, []models.Product{}))

	seeded, err := seedProducts(ctx, snap)
	require.NoError(t, err)
	assert.False(t, seeded)

	products, err := snapshot.LoadList[models.Product](ctx, snap, snapshot.KeyProducts)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestAttachDocumentStore(t *testing.T) {
	cfg := testConfig()
	cfg.DocstoreDriver = "sqlite"
	cfg.DocstoreDSN = ":memory:"
	a := newApp(t, cfg)

	a.Start(context.Background())
	select {
	case <-a.Attached():
	case <-time.After(10 * time.Second):
		t.Fatal("document store attach did not finish")
	}

	require.True(t, a.Repo.Ready())
	require.Len(t, a.Catalog.All(), 3)
	assert.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/health/ready", "", nil).Code)

	// the admin was migrated, so the document store answers the lookup
	admin, err := a.Repo.UserByEmail(context.Background(), "admin@shop.test")
	require.NoError(t, err)
	require.NotNil(t, admin)
}

func TestAttachDocumentStore_KeepsWritesMadeDuringMigration(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.DocstoreDriver = "sqlite"
	cfg.DocstoreDSN = ":memory:"
	a := newApp(t, cfg)

	a.migrate = func(ctx context.Context, store *docstore.Store) (migration.Report, error) {
		rep, err := a.migrateSnapshot(ctx, store)
		if err != nil {
			return rep, err
		}
		assert.False(t, a.Repo.Ready())
		_, err = a.Catalog.Save(ctx, models.Product{ID: "late", Name: "Late Lamp", Price: 10})
		return rep, err
	}
	require.NoError(t, a.AttachDocumentStore(ctx))
	require.True(t, a.Repo.Ready())

	products, err := a.Repo.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 4)
	assert.True(t, slices.ContainsFunc(products, func(p models.Product) bool { return p.ID == "late" }))

	_, ok := a.Catalog.Get("late")
	assert.True(t, ok)
}

func TestAttachDocumentStore_MigrationFailureDetaches(t *testing.T) {
	cfg := testConfig()
	cfg.DocstoreDriver = "sqlite"
	cfg.DocstoreDSN = ":memory:"
	a := newApp(t, cfg)

	a.migrate = func(context.Context, *docstore.Store) (migration.Report, error) {
		return migration.Report{}, errors.New("copy failed")
	}
	require.Error(t, a.AttachDocumentStore(context.Background()))
	assert.False(t, a.Repo.Ready())

	_, err := a.Catalog.Save(context.Background(), models.Product{Name: "After Failure", Price: 1})
	require.NoError(t, err)
	assert.Len(t, a.Catalog.All(), 4)
}

func TestNew_RehashesLegacySnapshotPasswords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	legacy := `{"users":[{"id":"u9","email":"old@shop.test","password":"secret123","role":"USER"}]}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	cfg := testConfig()
	cfg.SnapshotBackend = config.SnapshotFile
	cfg.SnapshotPath = path
	a := newApp(t, cfg)
	require.False(t, a.Repo.Ready())

	login(t, a, "old@shop.test", "secret123")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret123")
}

func TestAttachDocumentStore_FailureKeepsSnapshotMode(t *testing.T) {
	cfg := testConfig()
	cfg.DocstoreDriver = "postgres"
	cfg.DocstoreDSN = ""
	a := newApp(t, cfg)

	require.Error(t, a.AttachDocumentStore(context.Background()))
	assert.False(t, a.Repo.Ready())
	assert.Len(t, a.Catalog.All(), 3)
}

func TestShoppingFlow(t *testing.T) {
	a := newApp(t, testConfig())

	rec := call(t, a, http.MethodPost, "/api/v1/register", "", map[string]string{
		"email": "Ana@Shop.test", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	rec = call(t, a, http.MethodPost, "/api/v1/register", "", map[string]string{
		"email": "ana@shop.test", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	token := login(t, a, "ana@shop.test", "secret1")

	assert.Equal(t, http.StatusUnauthorized, call(t, a, http.MethodGet, "/api/v1/cart", "", nil).Code)

	rec = call(t, a, http.MethodPost, "/api/v1/cart/items", token, map[string]any{"productId": "1", "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = call(t, a, http.MethodPost, "/api/v1/cart/items", token, map[string]any{"productId": "3"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cart := decode[struct {
		Subtotal float64 `json:"subtotal"`
		Count    int     `json:"count"`
	}](t, rec)
	assert.Equal(t, 8200.0, cart.Subtotal)
	assert.Equal(t, 3, cart.Count)

	rec = call(t, a, http.MethodPost, "/api/v1/cart/items", token, map[string]any{"productId": "missing"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, a, http.MethodPost, "/api/v1/orders", token, map[string]string{
		"shippingAddress": "Rua A, 10", "paymentMethod": "pix",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[models.Order](t, rec)
	assert.Equal(t, 8200.0, order.Subtotal)
	assert.Equal(t, 410.0, order.Discount)
	assert.Equal(t, 7790.0, order.Total)
	assert.Equal(t, models.StatusPending, order.Status)

	rec = call(t, a, http.MethodGet, "/api/v1/cart", token, nil)
	assert.Equal(t, 0, decode[struct {
		Count int `json:"count"`
	}](t, rec).Count)

	rec = call(t, a, http.MethodPost, "/api/v1/orders", token, map[string]string{"paymentMethod": "pix"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, a, http.MethodGet, "/api/v1/orders", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Order](t, rec), 1)

	assert.Equal(t, http.StatusForbidden, call(t, a, http.MethodGet, "/api/v1/admin/orders", token, nil).Code)

	admin := login(t, a, "admin@shop.test", "admin123")
	rec = call(t, a, http.MethodPatch, "/api/v1/admin/orders/"+order.ID+"/status", admin, map[string]string{"status": "PROCESSING"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusProcessing, decode[models.Order](t, rec).Status)

	rec = call(t, a, http.MethodPatch, "/api/v1/admin/orders/"+order.ID+"/status", admin, map[string]string{"status": "PENDING"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, a, http.MethodGet, "/api/v1/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[struct {
		Users   int     `json:"users"`
		Orders  int     `json:"orders"`
		Revenue float64 `json:"revenue"`
	}](t, rec)
	assert.Equal(t, 2, stats.Users)
	assert.Equal(t, 1, stats.Orders)
	assert.Equal(t, 7790.0, stats.Revenue)
}

func TestFavoritesFlow(t *testing.T) {
	a := newApp(t, testConfig())
	require.Equal(t, http.StatusCreated, call(t, a, http.MethodPost, "/api/v1/register", "", map[string]string{
		"email": "bia@shop.test", "password": "secret1",
	}).Code)
	token := login(t, a, "bia@shop.test", "secret1")

	rec := call(t, a, http.MethodPost, "/api/v1/favorites/2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[struct {
		Favorite bool `json:"favorite"`
	}](t, rec).Favorite)

	rec = call(t, a, http.MethodGet, "/api/v1/favorites", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	favs := decode[[]models.Product](t, rec)
	require.Len(t, favs, 1)
	assert.Equal(t, "2", favs[0].ID)

	rec = call(t, a, http.MethodPost, "/api/v1/favorites/2", token, nil)
	assert.False(t, decode[struct {
		Favorite bool `json:"favorite"`
	}](t, rec).Favorite)

	assert.Equal(t, http.StatusNotFound, call(t, a, http.MethodPost, "/api/v1/favorites/nope", token, nil).Code)
}

func TestAdminCatalogFlow(t *testing.T) {
	a := newApp(t, testConfig())
	admin := login(t, a, "admin@shop.test", "admin123")

	rec := call(t, a, http.MethodPost, "/api/v1/admin/products", admin, map[string]any{
		"name": "Oak Shelf", "price": 900, "category": "Cabinets",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Product](t, rec)
	require.NotEmpty(t, created.ID)
	assert.True(t, created.InStock)

	rec = call(t, a, http.MethodPatch, "/api/v1/admin/products/"+created.ID, admin, map[string]any{"price": 1100})
	require.Equal(t, http.StatusOK, rec.Code)
	patched := decode[models.Product](t, rec)
	assert.Equal(t, 1100.0, patched.Price)
	assert.Equal(t, "Oak Shelf", patched.Name)

	rec = call(t, a, http.MethodGet, "/api/v1/products?category=Cabinets&size=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[struct {
		Data []models.Product `json:"data"`
		Meta struct {
			Total   int  `json:"total"`
			HasNext bool `json:"has_next"`
		} `json:"meta"`
	}](t, rec)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 2, page.Meta.Total)
	assert.True(t, page.Meta.HasNext)

	rec = call(t, a, http.MethodGet, "/api/v1/admin/products/"+created.ID+"/analysis", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "completeness")

	rec = call(t, a, http.MethodGet, "/api/v1/admin/insights", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "priorityActions")

	rec = call(t, a, http.MethodGet, "/api/v1/search?q=oak", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[struct {
		Total int `json:"total"`
	}](t, rec).Total)

	assert.Equal(t, http.StatusNoContent, call(t, a, http.MethodDelete, "/api/v1/admin/products/"+created.ID, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, call(t, a, http.MethodGet, "/api/v1/products/"+created.ID, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, call(t, a, http.MethodDelete, "/api/v1/admin/products/"+created.ID, admin, nil).Code)
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/docstore"
	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/snapshot"
)

func newDocBackend(t *testing.T) *DocumentBackend {
	t.Helper()
	ctx := context.Background()
	s, err := docstore.Open(ctx, docstore.Config{Driver: docstore.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Initialize(ctx, SchemaVersion, Collections()))
	b, err := NewDocumentBackend(s)
	require.NoError(t, err)
	return b
}

func newDualRepo(t *testing.T) (*Repository, *SnapshotBackend, *DocumentBackend) {
	t.Helper()
	snap := NewSnapshotBackend(snapshot.NewMemoryStore())
	doc := newDocBackend(t)
	repo := New(snap)
	repo.Attach(doc)
	return repo, snap, doc
}

// failingBackend wraps a backend and fails every call.
type failingBackend struct{ Backend }

var errBroken = errors.New("backend broken")

func (failingBackend) Name() string { return "broken" }
func (failingBackend) Products(context.Context) ([]models.Product, error) {
	return nil, errBroken
}
func (failingBackend) SaveProduct(context.Context, models.Product) error { return errBroken }
func (failingBackend) ReplaceCart(context.Context, string, []models.CartItem) error {
	return errBroken
}

func sampleProduct(id string, price float64) models.Product {
	return models.Product{
		ID: id, Name: "Table " + id, Description: "oak", Price: price, Category: "tables",
		Images: []string{"a.jpg"}, Videos: []string{}, InStock: true,
	}
}

func TestBackends_Contract(t *testing.T) {
	backends := map[string]Backend{
		"snapshot": NewSnapshotBackend(snapshot.NewMemoryStore()),
		"docstore": newDocBackend(t),
	}
	for name, b := range backends {
		b := b
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, b.SaveProduct(ctx, sampleProduct("p1", 100)))
			require.NoError(t, b.SaveProduct(ctx, sampleProduct("p2", 200)))
			updated := sampleProduct("p1", 150)
			updated.Featured = true
			require.NoError(t, b.SaveProduct(ctx, updated))

			products, err := b.Products(ctx)
			require.NoError(t, err)
			require.Len(t, products, 2)
			want := []models.Product{updated, sampleProduct("p2", 200)}
			if diff := cmp.Diff(want, products); diff != "" {
				t.Fatalf("products mismatch (-want +got):\n%s", diff)
			}

			require.NoError(t, b.DeleteProduct(ctx, "p2"))
			require.NoError(t, b.DeleteProduct(ctx, "p2"))
			products, err = b.Products(ctx)
			require.NoError(t, err)
			assert.Len(t, products, 1)

			u := models.User{ID: "u1", Email: "a@b.co", PasswordHash: "h", Name: "A", Role: models.RoleUser}
			require.NoError(t, b.SaveUser(ctx, u))
			u.Name = "Renamed"
			require.NoError(t, b.SaveUser(ctx, u))
			got, err := b.UserByEmail(ctx, "a@b.co")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "Renamed", got.Name)
			missing, err := b.UserByEmail(ctx, "x@y.z")
			require.NoError(t, err)
			assert.Nil(t, missing)

			cart := []models.CartItem{{ProductID: "p1", Quantity: 2}}
			require.NoError(t, b.ReplaceCart(ctx, "u1", cart))
			require.NoError(t, b.ReplaceCart(ctx, "u1", cart))
			require.NoError(t, b.ReplaceCart(ctx, "u2", []models.CartItem{{ProductID: "p1", Quantity: 1}}))
			rows, err := b.Cart(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, 2, rows[0].Quantity)
			assert.Equal(t, "u1", rows[0].UserID)

			require.NoError(t, b.ReplaceCart(ctx, "u1", nil))
			rows, err = b.Cart(ctx, "u1")
			require.NoError(t, err)
			assert.Empty(t, rows)
			rows, err = b.Cart(ctx, "u2")
			require.NoError(t, err)
			assert.Len(t, rows, 1, "other users keep their carts")

			o := models.Order{
				ID: "o1", UserID: "u1", Status: models.StatusPending, CreatedAt: time.Now().UTC().Truncate(time.Second),
				Items: []models.OrderLine{{ProductID: "p1", ProductName: "Table p1", Quantity: 1, Price: 150}},
			}
			require.NoError(t, b.AddOrder(ctx, o))
			assert.ErrorIs(t, b.AddOrder(ctx, o), domain.ErrDuplicateKey)
			byUser, err := b.OrdersByUser(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, byUser, 1)
			assert.Equal(t, o.Items, byUser[0].Items)

			shipped, err := b.UpdateOrderStatus(ctx, "o1", models.StatusProcessing)
			require.NoError(t, err)
			assert.Equal(t, models.StatusProcessing, shipped.Status)
			_, err = b.UpdateOrderStatus(ctx, "nope", models.StatusProcessing)
			assert.ErrorIs(t, err, domain.ErrNotFound)

			require.NoError(t, b.SetFavorite(ctx, "u1", "p1", true))
			require.NoError(t, b.SetFavorite(ctx, "u1", "p1", true))
			favs, err := b.Favorites(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, []string{"p1"}, favs)
			require.NoError(t, b.SetFavorite(ctx, "u1", "p1", false))
			require.NoError(t, b.SetFavorite(ctx, "u1", "p1", false))
			favs, err = b.Favorites(ctx, "u1")
			require.NoError(t, err)
			assert.Empty(t, favs)
		})
	}
}

func TestRepository_SnapshotOnly(t *testing.T) {
	ctx := context.Background()
	repo := New(NewSnapshotBackend(snapshot.NewMemoryStore()))
	assert.False(t, repo.Ready())

	require.NoError(t, repo.SaveProduct(ctx, sampleProduct("p1", 10)))
	products, err := repo.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestRepository_WritesGoToBothBackends(t *testing.T) {
	ctx := context.Background()
	repo, snap, doc := newDualRepo(t)
	assert.True(t, repo.Ready())

	require.NoError(t, repo.SaveProduct(ctx, sampleProduct("p1", 10)))
	require.NoError(t, repo.ReplaceCart(ctx, "u1", []models.CartItem{{ProductID: "p1", Quantity: 2}}))

	for _, b := range []Backend{snap, doc} {
		products, err := b.Products(ctx)
		require.NoError(t, err)
		assert.Len(t, products, 1, b.Name())
		rows, err := b.Cart(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, rows, 1, b.Name())
	}
}

func TestRepository_ReadsPreferNonEmptyDocument(t *testing.T) {
	ctx := context.Background()
	repo, snap, doc := newDualRepo(t)

	require.NoError(t, snap.SaveProduct(ctx, sampleProduct("only-snapshot", 1)))
	products, err := repo.Products(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "only-snapshot", products[0].ID, "empty document store falls back")

	require.NoError(t, doc.SaveProduct(ctx, sampleProduct("only-doc", 1)))
	products, err = repo.Products(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "only-doc", products[0].ID)
}

func TestRepository_MirrorCopiesWritesBeforeAttach(t *testing.T) {
	ctx := context.Background()
	snap := NewSnapshotBackend(snapshot.NewMemoryStore())
	doc := newDocBackend(t)
	repo := New(snap)

	require.NoError(t, repo.SaveProduct(ctx, sampleProduct("p1", 10)))
	require.NoError(t, doc.SaveProduct(ctx, sampleProduct("p1", 10)))

	repo.Mirror(doc)
	assert.False(t, repo.Ready())
	require.NoError(t, repo.SaveProduct(ctx, sampleProduct("p2", 20)))

	mirrored, err := doc.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, mirrored, 2, "writes while mirroring reach the document backend")

	require.NoError(t, doc.SaveProduct(ctx, sampleProduct("doc-only", 1)))
	products, err := repo.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2, "reads stay on the snapshot until Attach")

	repo.Attach(doc)
	assert.True(t, repo.Ready())
	products, err = repo.Products(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{"p1", "p2", "doc-only"}, ids)

	repo.Detach()
	assert.False(t, repo.Ready())
	require.NoError(t, repo.SaveProduct(ctx, sampleProduct("p3", 30)))
	mirrored, err = doc.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, mirrored, 3, "detached repository no longer mirrors")
}

func TestRepository_MirrorFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	snap := NewSnapshotBackend(snapshot.NewMemoryStore())
	repo := New(snap)
	repo.Attach(failingBackend{Backend: snap})

	require.NoError(t, repo.SaveProduct(ctx, sampleProduct("p1", 10)))
	require.NoError(t, repo.ReplaceCart(ctx, "u1", []models.CartItem{{ProductID: "p1", Quantity: 1}}))

	products, err := repo.Products(ctx)
	require.NoError(t, err, "failed document read falls back to the snapshot")
	assert.Len(t, products, 1)
}

func TestRepository_SnapshotFailureIsReturned(t *testing.T) {
	ctx := context.Background()
	repo := New(failingBackend{Backend: NewSnapshotBackend(snapshot.NewMemoryStore())})
	assert.ErrorIs(t, repo.SaveProduct(ctx, sampleProduct("p1", 1)), errBroken)
}

func TestRepository_ToggleFavoriteTwice(t *testing.T) {
	ctx := context.Background()
	repo, snap, doc := newDualRepo(t)

	on, err := repo.ToggleFavorite(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.True(t, on)
	for _, b := range []Backend{snap, doc} {
		favs, err := b.Favorites(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, []string{"p1"}, favs, b.Name())
	}

	on, err = repo.ToggleFavorite(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.False(t, on)
	favs, err := repo.Favorites(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestRepository_UpdateOrderStatusMirrors(t *testing.T) {
	ctx := context.Background()
	repo, _, doc := newDualRepo(t)

	require.NoError(t, repo.AddOrder(ctx, models.Order{ID: "o1", UserID: "u1", Status: models.StatusPending}))
	o, err := repo.UpdateOrderStatus(ctx, "o1", models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, o.Status)

	stored, err := doc.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.StatusCancelled, stored[0].Status)
}

func TestNormalizeCart(t *testing.T) {
	got := normalizeCart("u1", []models.CartItem{
		{ID: 7, ProductID: "a", Quantity: 1},
		{ProductID: "b", Quantity: 0},
		{ProductID: "a", Quantity: 2},
		{ProductID: "", Quantity: 3},
	})
	want := []models.CartItem{{UserID: "u1", ProductID: "a", Quantity: 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalizeCart mismatch (-want +got):\n%s", diff)
	}
}

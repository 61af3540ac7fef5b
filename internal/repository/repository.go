package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
)

// Repository reads from the document backend when it is attached and has data,
// otherwise from the snapshot. Writes go to the snapshot first; the mirror write
// into the document backend is logged on failure and never returned.
type Repository struct {
	snap Backend

	mu    sync.RWMutex
	doc   Backend
	reads bool
}

func New(snap Backend) *Repository {
	return &Repository{snap: snap}
}

// Mirror starts copying writes into doc without reading from it. Call it before
// migration so writes racing the migrator reach both backends.
func (r *Repository) Mirror(doc Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc = doc
	r.reads = false
}

// Attach enables the document backend for writes and reads. Call it after migration has run.
func (r *Repository) Attach(doc Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc = doc
	r.reads = true
}

// Detach returns to snapshot-only mode.
func (r *Repository) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc = nil
	r.reads = false
}

func (r *Repository) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.doc != nil && r.reads
}

// document is the backend reads may prefer, nil until Attach.
func (r *Repository) document() Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.reads {
		return nil
	}
	return r.doc
}

func (r *Repository) mirror() Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.doc
}

func readList[T any](ctx context.Context, r *Repository, op string, read func(Backend) ([]T, error)) ([]T, error) {
	if doc := r.document(); doc != nil {
		items, err := read(doc)
		switch {
		case err != nil:
			logging.FromContext(ctx).Warn("repository_read_fallback", "op", op, "backend", doc.Name(), "error", err)
		case len(items) > 0:
			return items, nil
		}
	}
	return read(r.snap)
}

func (r *Repository) write(ctx context.Context, op string, fn func(Backend) error) error {
	if err := fn(r.snap); err != nil {
		return err
	}
	if doc := r.mirror(); doc != nil {
		if err := fn(doc); err != nil {
			logging.FromContext(ctx).Warn("repository_mirror_failed", "op", op, "backend", doc.Name(), "error", err)
		}
	}
	return nil
}

func (r *Repository) Products(ctx context.Context) ([]models.Product, error) {
	return readList(ctx, r, "products", func(b Backend) ([]models.Product, error) { return b.Products(ctx) })
}

func (r *Repository) SaveProduct(ctx context.Context, p models.Product) error {
	return r.write(ctx, "save_product", func(b Backend) error { return b.SaveProduct(ctx, p) })
}

func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	return r.write(ctx, "delete_product", func(b Backend) error { return b.DeleteProduct(ctx, id) })
}

func (r *Repository) Users(ctx context.Context) ([]models.User, error) {
	return readList(ctx, r, "users", func(b Backend) ([]models.User, error) { return b.Users(ctx) })
}

func (r *Repository) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	if doc := r.document(); doc != nil {
		u, err := doc.UserByEmail(ctx, email)
		switch {
		case err != nil:
			logging.FromContext(ctx).Warn("repository_read_fallback", "op", "user_by_email", "backend", doc.Name(), "error", err)
		case u != nil:
			return u, nil
		}
	}
	return r.snap.UserByEmail(ctx, email)
}

func (r *Repository) SaveUser(ctx context.Context, u models.User) error {
	return r.write(ctx, "save_user", func(b Backend) error { return b.SaveUser(ctx, u) })
}

func (r *Repository) Cart(ctx context.Context, userID string) ([]models.CartItem, error) {
	return readList(ctx, r, "cart", func(b Backend) ([]models.CartItem, error) { return b.Cart(ctx, userID) })
}

func (r *Repository) ReplaceCart(ctx context.Context, userID string, items []models.CartItem) error {
	return r.write(ctx, "replace_cart", func(b Backend) error { return b.ReplaceCart(ctx, userID, items) })
}

func (r *Repository) ClearCart(ctx context.Context, userID string) error {
	return r.ReplaceCart(ctx, userID, nil)
}

func (r *Repository) Orders(ctx context.Context) ([]models.Order, error) {
	return readList(ctx, r, "orders", func(b Backend) ([]models.Order, error) { return b.Orders(ctx) })
}

func (r *Repository) OrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return readList(ctx, r, "orders_by_user", func(b Backend) ([]models.Order, error) { return b.OrdersByUser(ctx, userID) })
}

func (r *Repository) AddOrder(ctx context.Context, o models.Order) error {
	return r.write(ctx, "add_order", func(b Backend) error { return b.AddOrder(ctx, o) })
}

// UpdateOrderStatus returns the order as stored in the snapshot.
func (r *Repository) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	var updated *models.Order
	err := r.write(ctx, "update_order_status", func(b Backend) error {
		o, err := b.UpdateOrderStatus(ctx, id, status)
		if err == nil && updated == nil {
			updated = o
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Repository) Favorites(ctx context.Context, userID string) ([]string, error) {
	return readList(ctx, r, "favorites", func(b Backend) ([]string, error) { return b.Favorites(ctx, userID) })
}

// ToggleFavorite flips the state seen by the preferred backend and writes the new
// state explicitly to both. It reports whether the product is now a favorite.
func (r *Repository) ToggleFavorite(ctx context.Context, userID, productID string) (bool, error) {
	favs, err := r.Favorites(ctx, userID)
	if err != nil {
		return false, err
	}
	on := !slices.Contains(favs, productID)
	if err := r.write(ctx, "set_favorite", func(b Backend) error { return b.SetFavorite(ctx, userID, productID, on) }); err != nil {
		return false, err
	}
	return on, nil
}

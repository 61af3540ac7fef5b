package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/docstore"
	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
)

// DocumentBackend maps the repository capabilities onto document store collections.
type DocumentBackend struct {
	users     *docstore.Collection[models.User]
	products  *docstore.Collection[models.Product]
	cart      *docstore.Collection[models.CartItem]
	orders    *docstore.Collection[models.Order]
	favorites *docstore.Collection[models.Favorite]
}

// NewDocumentBackend expects the store to be initialized with Collections().
func NewDocumentBackend(s *docstore.Store) (*DocumentBackend, error) {
	var (
		b   DocumentBackend
		err error
	)
	if b.users, err = docstore.Collect[models.User](s, CollUsers); err != nil {
		return nil, err
	}
	if b.products, err = docstore.Collect[models.Product](s, CollProducts); err != nil {
		return nil, err
	}
	if b.cart, err = docstore.Collect[models.CartItem](s, CollCart); err != nil {
		return nil, err
	}
	if b.orders, err = docstore.Collect[models.Order](s, CollOrders); err != nil {
		return nil, err
	}
	if b.favorites, err = docstore.Collect[models.Favorite](s, CollFavorites); err != nil {
		return nil, err
	}
	return &b, nil
}

func (b *DocumentBackend) Name() string { return "docstore" }

func (b *DocumentBackend) Products(ctx context.Context) ([]models.Product, error) {
	return b.products.All(ctx)
}

func (b *DocumentBackend) SaveProduct(ctx context.Context, p models.Product) error {
	return upsert(ctx, b.products, p.ID, &p)
}

func (b *DocumentBackend) DeleteProduct(ctx context.Context, id string) error {
	return b.products.Delete(ctx, id)
}

func (b *DocumentBackend) Users(ctx context.Context) ([]models.User, error) {
	return b.users.All(ctx)
}

func (b *DocumentBackend) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok, err := b.users.FindUnique(ctx, IdxEmail, email)
	if err != nil || !ok {
		return nil, err
	}
	return u, nil
}

func (b *DocumentBackend) SaveUser(ctx context.Context, u models.User) error {
	u.Password = ""
	return upsert(ctx, b.users, u.ID, &u)
}

func (b *DocumentBackend) Cart(ctx context.Context, userID string) ([]models.CartItem, error) {
	return b.cart.FindByIndex(ctx, IdxUserID, userID)
}

func (b *DocumentBackend) ReplaceCart(ctx context.Context, userID string, items []models.CartItem) error {
	if _, err := b.cart.DeleteAllByIndex(ctx, IdxUserID, userID); err != nil {
		return err
	}
	for _, it := range normalizeCart(userID, items) {
		it := it
		if err := b.cart.Insert(ctx, &it); err != nil {
			return err
		}
	}
	return nil
}

func (b *DocumentBackend) Orders(ctx context.Context) ([]models.Order, error) {
	return b.orders.All(ctx)
}

func (b *DocumentBackend) OrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return b.orders.FindByIndex(ctx, IdxUserID, userID)
}

func (b *DocumentBackend) AddOrder(ctx context.Context, o models.Order) error {
	return b.orders.Insert(ctx, &o)
}

func (b *DocumentBackend) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	return b.orders.Update(ctx, id, map[string]any{"status": status})
}

func (b *DocumentBackend) Favorites(ctx context.Context, userID string) ([]string, error) {
	rows, err := b.favorites.FindByIndex(ctx, IdxUserID, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ProductID)
	}
	return ids, nil
}

func (b *DocumentBackend) SetFavorite(ctx context.Context, userID, productID string, on bool) error {
	cur, ok, err := b.favorites.FindUnique(ctx, IdxUserProduct, userID, productID)
	if err != nil {
		return err
	}
	switch {
	case on && !ok:
		err := b.favorites.Insert(ctx, &models.Favorite{UserID: userID, ProductID: productID})
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil
		}
		return err
	case !on && ok:
		return b.favorites.Delete(ctx, cur.ID)
	}
	return nil
}

// upsert inserts rec and falls back to a full-record update when the key exists.
func upsert[T any](ctx context.Context, c *docstore.Collection[T], key string, rec *T) error {
	err := c.Insert(ctx, rec)
	if !errors.Is(err, domain.ErrDuplicateKey) {
		return err
	}
	patch, err := docstore.Patch(rec)
	if err != nil {
		return err
	}
	if _, err := c.Update(ctx, key, patch); err != nil {
		return fmt.Errorf("%s %s: %w", c.Name(), key, err)
	}
	return nil
}

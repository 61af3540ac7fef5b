package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/snapshot"
)

// SnapshotBackend stores each entity family as one JSON array under its snapshot key.
type SnapshotBackend struct {
	store snapshot.Store
	// mu serializes read-modify-write cycles on the arrays.
	mu sync.Mutex
}

func NewSnapshotBackend(store snapshot.Store) *SnapshotBackend {
	return &SnapshotBackend{store: store}
}

func (b *SnapshotBackend) Name() string { return "snapshot" }

func (b *SnapshotBackend) Store() snapshot.Store { return b.store }

func (b *SnapshotBackend) Products(ctx context.Context) ([]models.Product, error) {
	return snapshot.LoadList[models.Product](ctx, b.store, snapshot.KeyProducts)
}

func (b *SnapshotBackend) SaveProduct(ctx context.Context, p models.Product) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	list, err := snapshot.LoadList[models.Product](ctx, b.store, snapshot.KeyProducts)
	if err != nil {
		return err
	}
	if i := slices.IndexFunc(list, func(x models.Product) bool { return x.ID == p.ID }); i >= 0 {
		list[i] = p
	} else {
		list = append(list, p)
	}
	return snapshot.SaveList(ctx, b.store, snapshot.KeyProducts, list)
}

func (b *SnapshotBackend) DeleteProduct(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	list, err := snapshot.LoadList[models.Product](ctx, b.store, snapshot.KeyProducts)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(list, func(x models.Product) bool { return x.ID == id })
	return snapshot.SaveList(ctx, b.store, snapshot.KeyProducts, kept)
}

func (b *SnapshotBackend) Users(ctx context.Context) ([]models.User, error) {
	return snapshot.LoadList[models.User](ctx, b.store, snapshot.KeyUsers)
}

func (b *SnapshotBackend) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := b.Users(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Email == email {
			return &users[i], nil
		}
	}
	return nil, nil
}

// SaveUser replaces the user with the same id. A different user already holding
// the email is a duplicate key.
func (b *SnapshotBackend) SaveUser(ctx context.Context, u models.User) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	users, err := snapshot.LoadList[models.User](ctx, b.store, snapshot.KeyUsers)
	if err != nil {
		return err
	}
	idx := -1
	for i := range users {
		if users[i].Email == u.Email && users[i].ID != u.ID {
			return fmt.Errorf("users email %s: %w", u.Email, domain.ErrDuplicateKey)
		}
		if users[i].ID == u.ID {
			idx = i
		}
	}
	u.Password = ""
	if idx >= 0 {
		users[idx] = u
	} else {
		users = append(users, u)
	}
	return snapshot.SaveList(ctx, b.store, snapshot.KeyUsers, users)
}

func (b *SnapshotBackend) Cart(ctx context.Context, userID string) ([]models.CartItem, error) {
	rows, err := snapshot.LoadList[models.CartItem](ctx, b.store, snapshot.KeyCart)
	if err != nil {
		return nil, err
	}
	out := make([]models.CartItem, 0)
	for _, r := range rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (b *SnapshotBackend) ReplaceCart(ctx context.Context, userID string, items []models.CartItem) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rows, err := snapshot.LoadList[models.CartItem](ctx, b.store, snapshot.KeyCart)
	if err != nil {
		return err
	}
	var next uint
	rows = slices.DeleteFunc(rows, func(r models.CartItem) bool { return r.UserID == userID })
	for _, r := range rows {
		next = max(next, r.ID)
	}
	for _, it := range normalizeCart(userID, items) {
		next++
		it.ID = next
		rows = append(rows, it)
	}
	return snapshot.SaveList(ctx, b.store, snapshot.KeyCart, rows)
}

func (b *SnapshotBackend) Orders(ctx context.Context) ([]models.Order, error) {
	return snapshot.LoadList[models.Order](ctx, b.store, snapshot.KeyOrders)
}

func (b *SnapshotBackend) OrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := b.Orders(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(orders, func(o models.Order) bool { return o.UserID != userID }), nil
}

func (b *SnapshotBackend) AddOrder(ctx context.Context, o models.Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	orders, err := snapshot.LoadList[models.Order](ctx, b.store, snapshot.KeyOrders)
	if err != nil {
		return err
	}
	if slices.ContainsFunc(orders, func(x models.Order) bool { return x.ID == o.ID }) {
		return fmt.Errorf("orders %s: %w", o.ID, domain.ErrDuplicateKey)
	}
	return snapshot.SaveList(ctx, b.store, snapshot.KeyOrders, append(orders, o))
}

func (b *SnapshotBackend) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	orders, err := snapshot.LoadList[models.Order](ctx, b.store, snapshot.KeyOrders)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(orders, func(x models.Order) bool { return x.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("orders %s: %w", id, domain.ErrNotFound)
	}
	orders[i].Status = status
	if err := snapshot.SaveList(ctx, b.store, snapshot.KeyOrders, orders); err != nil {
		return nil, err
	}
	updated := orders[i]
	return &updated, nil
}

func (b *SnapshotBackend) Favorites(ctx context.Context, userID string) ([]string, error) {
	return snapshot.LoadList[string](ctx, b.store, snapshot.FavoritesKey(userID))
}

func (b *SnapshotBackend) SetFavorite(ctx context.Context, userID, productID string, on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := snapshot.FavoritesKey(userID)
	favs, err := snapshot.LoadList[string](ctx, b.store, key)
	if err != nil {
		return err
	}
	has := slices.Contains(favs, productID)
	switch {
	case on && !has:
		favs = append(favs, productID)
	case !on && has:
		favs = slices.DeleteFunc(favs, func(id string) bool { return id == productID })
	default:
		return nil
	}
	return snapshot.SaveList(ctx, b.store, key, favs)
}

// Package repository is the single read/write surface for products, users, carts,
// orders and favorites. It writes every mutation to the snapshot and mirrors it into
// the document store once one is attached.
package repository

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
)

// Backend is the capability set both persistence engines implement.
type Backend interface {
	Name() string

	Products(ctx context.Context) ([]models.Product, error)
	SaveProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id string) error

	Users(ctx context.Context) ([]models.User, error)
	// UserByEmail returns nil when no user has the email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUser(ctx context.Context, u models.User) error

	Cart(ctx context.Context, userID string) ([]models.CartItem, error)
	// ReplaceCart drops every row of the user, then stores items.
	ReplaceCart(ctx context.Context, userID string, items []models.CartItem) error

	Orders(ctx context.Context) ([]models.Order, error)
	OrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	AddOrder(ctx context.Context, o models.Order) error
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)

	Favorites(ctx context.Context, userID string) ([]string, error)
	SetFavorite(ctx context.Context, userID, productID string, on bool) error
}

// normalizeCart keeps one row per product, drops empty rows and clears row ids.
func normalizeCart(userID string, items []models.CartItem) []models.CartItem {
	out := make([]models.CartItem, 0, len(items))
	pos := make(map[string]int, len(items))
	for _, it := range items {
		if it.Quantity <= 0 || it.ProductID == "" {
			continue
		}
		if i, ok := pos[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		pos[it.ProductID] = len(out)
		out = append(out, models.CartItem{UserID: userID, ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

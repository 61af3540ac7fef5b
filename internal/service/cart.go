package service

import (
	"context"
	"fmt"
	"math"

	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/session"
)

type CartStore interface {
	Cart(ctx context.Context, userID string) ([]models.CartItem, error)
	ReplaceCart(ctx context.Context, userID string, items []models.CartItem) error
}

// CartLine is a cart row joined with its live catalog product.
type CartLine struct {
	Product   models.Product `json:"product"`
	Quantity  int            `json:"quantity"`
	LineTotal float64        `json:"lineTotal"`
}

type CartService struct {
	Store   CartStore
	Catalog *catalog.Catalog
	Session session.Accessor
}

func (s *CartService) user(ctx context.Context) (*models.User, error) {
	u, err := s.Session.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUnauthenticated
	}
	return u, nil
}

// Get returns the signed-in user's cart. Rows whose product left the catalog are dropped.
func (s *CartService) Get(ctx context.Context) ([]CartLine, error) {
	u, err := s.user(ctx)
	if err != nil {
		return nil, err
	}
	return s.lines(ctx, u.ID)
}

func (s *CartService) lines(ctx context.Context, userID string) ([]CartLine, error) {
	rows, err := s.Store.Cart(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]CartLine, 0, len(rows))
	for _, r := range rows {
		p, ok := s.Catalog.Get(r.ProductID)
		if !ok || r.Quantity <= 0 {
			continue
		}
		out = append(out, CartLine{Product: p, Quantity: r.Quantity, LineTotal: roundCents(p.Price * float64(r.Quantity))})
	}
	return out, nil
}

// Save replaces the whole cart.
func (s *CartService) Save(ctx context.Context, items []models.CartItem) error {
	u, err := s.user(ctx)
	if err != nil {
		return err
	}
	return s.Store.ReplaceCart(ctx, u.ID, items)
}

func (s *CartService) Add(ctx context.Context, productID string, quantity int) ([]CartLine, error) {
	if quantity <= 0 {
		quantity = 1
	}
	p, ok := s.Catalog.Get(productID)
	if !ok || !p.InStock {
		return nil, fmt.Errorf("product %s: %w", productID, domain.ErrProductUnavailable)
	}
	return s.mutate(ctx, func(items []models.CartItem) []models.CartItem {
		for i := range items {
			if items[i].ProductID == productID {
				items[i].Quantity += quantity
				return items
			}
		}
		return append(items, models.CartItem{ProductID: productID, Quantity: quantity})
	})
}

// SetQuantity removes the row when quantity is not positive.
func (s *CartService) SetQuantity(ctx context.Context, productID string, quantity int) ([]CartLine, error) {
	return s.mutate(ctx, func(items []models.CartItem) []models.CartItem {
		out := items[:0]
		for _, it := range items {
			if it.ProductID == productID {
				if quantity <= 0 {
					continue
				}
				it.Quantity = quantity
			}
			out = append(out, it)
		}
		return out
	})
}

func (s *CartService) Remove(ctx context.Context, productID string) ([]CartLine, error) {
	return s.SetQuantity(ctx, productID, 0)
}

// Count is the number of units across all lines.
func (s *CartService) Count(ctx context.Context) (int, error) {
	lines, err := s.Get(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n, nil
}

// mutate applies fn to the live rows (stale ones already pruned) and saves the result.
func (s *CartService) mutate(ctx context.Context, fn func([]models.CartItem) []models.CartItem) ([]CartLine, error) {
	u, err := s.user(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := s.lines(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	items := make([]models.CartItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.CartItem{UserID: u.ID, ProductID: l.Product.ID, Quantity: l.Quantity})
	}
	if err := s.Store.ReplaceCart(ctx, u.ID, fn(items)); err != nil {
		return nil, err
	}
	return s.lines(ctx, u.ID)
}

func Subtotal(lines []CartLine) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.Product.Price * float64(l.Quantity)
	}
	return roundCents(sum)
}

func roundCents(v float64) float64 { return math.Round(v*100) / 100 }

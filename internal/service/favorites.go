package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/session"
)

type FavoriteStore interface {
	Favorites(ctx context.Context, userID string) ([]string, error)
	ToggleFavorite(ctx context.Context, userID, productID string) (bool, error)
}

type FavoriteService struct {
	Store   FavoriteStore
	Catalog *catalog.Catalog
	Session session.Accessor
}

// List returns the favorite products still in the catalog. Signed out users have none.
func (s *FavoriteService) List(ctx context.Context) ([]models.Product, error) {
	u, err := s.Session.CurrentUser(ctx)
	if err != nil || u == nil {
		return []models.Product{}, err
	}
	ids, err := s.Store.Favorites(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.Catalog.Get(id); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *FavoriteService) Toggle(ctx context.Context, productID string) (bool, error) {
	u, err := s.Session.CurrentUser(ctx)
	if err != nil {
		return false, err
	}
	if u == nil {
		return false, domain.ErrUnauthenticated
	}
	if _, ok := s.Catalog.Get(productID); !ok {
		return false, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	return s.Store.ToggleFavorite(ctx, u.ID, productID)
}

func (s *FavoriteService) IsFavorite(ctx context.Context, productID string) (bool, error) {
	u, err := s.Session.CurrentUser(ctx)
	if err != nil || u == nil {
		return false, err
	}
	ids, err := s.Store.Favorites(ctx, u.ID)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, productID), nil
}

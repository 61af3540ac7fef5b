package app

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/snapshot"
)

func defaultProducts() []models.Product {
	return []models.Product{
		{
			ID:          "1",
			Name:        "Custom 3-Door Wardrobe Cabinet",
			Description: "Modern built-in cabinet with three doors for bedrooms and living rooms. High density 18mm MDF, gloss or matte lacquer finish and premium hardware. Adjustable shelves and soft-close hinges. Standard size 240 x 240 x 60 cm, made to measure on request.",
			Price:       2500,
			Category:    "Cabinets",
			Images:      []string{"https://images.unsplash.com/photo-1586023492125-27b2c045efd7?w=800"},
			Videos:      []string{},
			InStock:     true,
			Featured:    true,
		},
		{
			ID:          "2",
			Name:        "Complete Custom Kitchen",
			Description: "Full kitchen with upper and lower cabinets, granite or quartz countertop and an optional island. Soft-close drawers, high quality hinges and internal organizers. Designed to the exact measures of your space, with delivery and installation included.",
			Price:       15000,
			Category:    "Kitchens",
			Images:      []string{"https://images.unsplash.com/photo-1556911220-e15b29be8c8f?auto=format&w=800"},
			Videos:      []string{},
			InStock:     true,
			Featured:    true,
		},
		{
			ID:          "3",
			Name:        "6-Door Wardrobe",
			Description: "Roomy wardrobe with six sliding or hinged doors, organizer drawers, adjustable shelves and an integrated hanging rail. High density MDF with premium laminate or lacquer finish. Optional internal LED lighting. 360 x 240 x 60 cm.",
			Price:       3200,
			Category:    "Bedrooms",
			Images:      []string{"https://images.unsplash.com/photo-1586023492125-27b2c045efd7?w=800"},
			Videos:      []string{},
			InStock:     true,
			Featured:    false,
		},
	}
}

// seedProducts writes the default catalog when the snapshot has no products key.
// An explicitly empty catalog is left alone.
func seedProducts(ctx context.Context, s snapshot.Store) (bool, error) {
	_, ok, err := s.Get(ctx, snapshot.KeyProducts)
	if err != nil {
		return false, fmt.Errorf("seed: read products: %w", err)
	}
	if ok {
		return false, nil
	}
	if err := snapshot.SaveList(ctx, s, snapshot.KeyProducts, defaultProducts()); err != nil {
		return false, fmt.Errorf("seed: write products: %w", err)
	}
	return true, nil
}

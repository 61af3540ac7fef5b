// Package catalog holds the in-memory product working set. It is hydrated from the
// repository at startup and written through on every mutation.
package catalog

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
)

const FeaturedLimit = 6

type Store interface {
	Products(ctx context.Context) ([]models.Product, error)
	SaveProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// Indexer mirrors products into a search index.
type Indexer interface {
	IndexProduct(ctx context.Context, p models.Product) error
	RemoveProduct(ctx context.Context, id string) error
}

type NopIndexer struct{}

func (NopIndexer) IndexProduct(context.Context, models.Product) error { return nil }
func (NopIndexer) RemoveProduct(context.Context, string) error        { return nil }

type Catalog struct {
	store   Store
	events  mykafka.Publisher
	indexer Indexer

	mu       sync.RWMutex
	products []models.Product
}

// New takes optional collaborators as nil and replaces them with no-ops.
func New(store Store, events mykafka.Publisher, indexer Indexer) *Catalog {
	if events == nil {
		events = mykafka.Nop{}
	}
	if indexer == nil {
		indexer = NopIndexer{}
	}
	return &Catalog{store: store, events: events, indexer: indexer}
}

// Load replaces the working set with whatever the store answers.
func (c *Catalog) Load(ctx context.Context) error {
	products, err := c.store.Products(ctx)
	if err != nil {
		return fmt.Errorf("catalog: load: %w", err)
	}
	c.mu.Lock()
	c.products = products
	c.mu.Unlock()
	return nil
}

// Reload is Load that keeps the current set when the store answers empty.
func (c *Catalog) Reload(ctx context.Context) error {
	products, err := c.store.Products(ctx)
	if err != nil {
		return fmt.Errorf("catalog: reload: %w", err)
	}
	if len(products) == 0 {
		return nil
	}
	c.mu.Lock()
	c.products = products
	c.mu.Unlock()
	return nil
}

// All returns a copy of the working set.
func (c *Catalog) All() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clone(c.products)
}

func (c *Catalog) Get(id string) (models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == id {
			return cloneProduct(p), true
		}
	}
	return models.Product{}, false
}

type Filter struct {
	Search       string
	Category     string
	MinPrice     float64
	MaxPrice     float64
	InStockOnly  bool
	FeaturedOnly bool
}

// Filter matches Search case-insensitively against name and description.
// Zero bounds are open.
func (c *Catalog) Filter(f Filter) []models.Product {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.Product, 0)
	for _, p := range c.All() {
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.MinPrice > 0 && p.Price < f.MinPrice {
			continue
		}
		if f.MaxPrice > 0 && p.Price > f.MaxPrice {
			continue
		}
		if f.InStockOnly && !p.InStock {
			continue
		}
		if f.FeaturedOnly && !p.Featured {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	for _, p := range c.All() {
		if p.Category != "" {
			seen[p.Category] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for cat := range seen {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) Featured(limit int) []models.Product {
	if limit <= 0 {
		limit = FeaturedLimit
	}
	out := c.Filter(Filter{FeaturedOnly: true})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

type Stats struct {
	Total    int `json:"total"`
	InStock  int `json:"inStock"`
	Featured int `json:"featured"`
}

func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{Total: len(c.products)}
	for _, p := range c.products {
		if p.InStock {
			s.InStock++
		}
		if p.Featured {
			s.Featured++
		}
	}
	return s
}

// Save creates or replaces a product. An empty id gets a fresh UUID.
func (c *Catalog) Save(ctx context.Context, p models.Product) (models.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return models.Product{}, fmt.Errorf("%w: product name is required", domain.ErrInvalidInput)
	}
	if p.Price < 0 {
		return models.Product{}, fmt.Errorf("%w: price cannot be negative", domain.ErrInvalidInput)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Videos == nil {
		p.Videos = []string{}
	}

	if err := c.store.SaveProduct(ctx, p); err != nil {
		return models.Product{}, fmt.Errorf("catalog: save %s: %w", p.ID, err)
	}

	c.mu.Lock()
	i := slices.IndexFunc(c.products, func(x models.Product) bool { return x.ID == p.ID })
	created := i < 0
	if created {
		c.products = append(c.products, p)
	} else {
		c.products[i] = p
	}
	c.mu.Unlock()

	if err := c.indexer.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "product_id", p.ID, "error", err)
	}
	eventType := "product_updated"
	if created {
		eventType = "product_created"
	}
	mykafka.Publish(ctx, c.events, mykafka.TopicProducts, p.ID, map[string]any{
		"type": eventType, "productID": p.ID, "name": p.Name, "price": p.Price,
	})
	return cloneProduct(p), nil
}

// Delete removes the product; deleting an unknown id is ErrNotFound.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	if _, ok := c.Get(id); !ok {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	if err := c.store.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("catalog: delete %s: %w", id, err)
	}

	c.mu.Lock()
	c.products = slices.DeleteFunc(c.products, func(x models.Product) bool { return x.ID == id })
	c.mu.Unlock()

	if err := c.indexer.RemoveProduct(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("search_remove_failed", "product_id", id, "error", err)
	}
	mykafka.Publish(ctx, c.events, mykafka.TopicProducts, id, map[string]any{
		"type": "product_deleted", "productID": id,
	})
	return nil
}

func clone(in []models.Product) []models.Product {
	out := make([]models.Product, len(in))
	for i, p := range in {
		out[i] = cloneProduct(p)
	}
	return out
}

func cloneProduct(p models.Product) models.Product {
	p.Images = slices.Clone(p.Images)
	p.Videos = slices.Clone(p.Videos)
	return p
}

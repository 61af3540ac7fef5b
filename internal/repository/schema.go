package repository

import (
	"github.com/Skotchmaster/storefront/internal/docstore"
	"github.com/Skotchmaster/storefront/internal/models"
)

// SchemaVersion is bumped whenever a collection or index is added.
const SchemaVersion = 1

const (
	CollUsers     = "users"
	CollProducts  = "products"
	CollCart      = "cart"
	CollOrders    = "orders"
	CollFavorites = "favorites"
)

const (
	IdxEmail       = "email"
	IdxCategory    = "category"
	IdxFeatured    = "featured"
	IdxInStock     = "inStock"
	IdxUserID      = "userId"
	IdxProductID   = "productId"
	IdxStatus      = "status"
	IdxCreatedAt   = "createdAt"
	IdxUserProduct = "userProduct"
)

func Collections() []docstore.CollectionDef {
	return []docstore.CollectionDef{
		{
			Name: CollUsers, Model: &models.User{}, PrimaryKey: "id",
			Indexes: []docstore.IndexDef{
				{Name: IdxEmail, Index: "idx_users_email", Columns: []string{"email"}, Unique: true},
			},
		},
		{
			Name: CollProducts, Model: &models.Product{}, PrimaryKey: "id",
			Indexes: []docstore.IndexDef{
				{Name: IdxCategory, Index: "idx_products_category", Columns: []string{"category"}},
				{Name: IdxFeatured, Index: "idx_products_featured", Columns: []string{"featured"}},
				{Name: IdxInStock, Index: "idx_products_in_stock", Columns: []string{"in_stock"}},
			},
		},
		{
			Name: CollCart, Model: &models.CartItem{}, PrimaryKey: "id",
			Indexes: []docstore.IndexDef{
				{Name: IdxUserID, Index: "idx_cart_items_user_id", Columns: []string{"user_id"}},
				{Name: IdxProductID, Index: "idx_cart_items_product_id", Columns: []string{"product_id"}},
			},
		},
		{
			Name: CollOrders, Model: &models.Order{}, PrimaryKey: "id",
			Indexes: []docstore.IndexDef{
				{Name: IdxUserID, Index: "idx_orders_user_id", Columns: []string{"user_id"}},
				{Name: IdxStatus, Index: "idx_orders_status", Columns: []string{"status"}},
				{Name: IdxCreatedAt, Index: "idx_orders_created_at", Columns: []string{"created_at"}},
			},
		},
		{
			Name: CollFavorites, Model: &models.Favorite{}, PrimaryKey: "id",
			Indexes: []docstore.IndexDef{
				{Name: IdxUserID, Index: "idx_favorites_user_id", Columns: []string{"user_id"}},
				{Name: IdxProductID, Index: "idx_favorites_product_id", Columns: []string{"product_id"}},
				{Name: IdxUserProduct, Index: "idx_favorites_user_product", Columns: []string{"user_id", "product_id"}, Unique: true},
			},
		},
	}
}

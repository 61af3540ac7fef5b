package models

import (
	"time"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:64"                        json:"id"`
	Email        string    `gorm:"not null;uniqueIndex:idx_users_email"      json:"email"`
	PasswordHash string    `gorm:"not null"                                  json:"passwordHash,omitempty"`
	Name         string    `json:"name"`
	Role         Role      `gorm:"not null;default:USER"                     json:"role"`
	CreatedAt    time.Time `json:"createdAt"`

	// Password is only read from legacy snapshots that stored it in clear.
	Password string `gorm:"-" json:"password,omitempty"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

type Product struct {
	ID          string   `gorm:"primaryKey;size:64"                          json:"id"`
	Name        string   `gorm:"not null"                                    json:"name"`
	Description string   `json:"description"`
	Price       float64  `gorm:"not null"                                    json:"price"`
	Category    string   `gorm:"index:idx_products_category"                 json:"category"`
	Images      []string `gorm:"serializer:json;type:text"                   json:"images"`
	Videos      []string `gorm:"serializer:json;type:text"                   json:"videos"`
	InStock     bool     `gorm:"index:idx_products_in_stock"                 json:"inStock"`
	Featured    bool     `gorm:"index:idx_products_featured"                 json:"featured"`
}

// Thumbnail is the canonical display image, or "" when the product has none.
func (p Product) Thumbnail() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type CartItem struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"                          json:"id"`
	UserID    string `gorm:"not null;index:idx_cart_items_user_id"             json:"userId"`
	ProductID string `gorm:"not null;index:idx_cart_items_product_id"          json:"productId"`
	Quantity  int    `gorm:"not null;default:1;check:quantity>0"               json:"quantity"`
}

type Favorite struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"                                                       json:"id"`
	UserID    string `gorm:"not null;index:idx_favorites_user_id;uniqueIndex:idx_favorites_user_product"    json:"userId"`
	ProductID string `gorm:"not null;index:idx_favorites_product_id;uniqueIndex:idx_favorites_user_product" json:"productId"`
}

package handlers

import (
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
)

// UserResponse is the public view of an account; credentials never leave the server.
type UserResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt,omitempty"`
}

func userResponse(u models.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, CreatedAt: u.CreatedAt}
}

type productRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Category    *string   `json:"category"`
	Images      *[]string `json:"images"`
	Videos      *[]string `json:"videos"`
	InStock     *bool     `json:"inStock"`
	Featured    *bool     `json:"featured"`
}

// apply copies the fields present in the request onto p.
func (r productRequest) apply(p *models.Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.Category != nil {
		p.Category = *r.Category
	}
	if r.Images != nil {
		p.Images = *r.Images
	}
	if r.Videos != nil {
		p.Videos = *r.Videos
	}
	if r.InStock != nil {
		p.InStock = *r.InStock
	}
	if r.Featured != nil {
		p.Featured = *r.Featured
	}
}

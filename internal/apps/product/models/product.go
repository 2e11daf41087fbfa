package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidProduct wraps every product validation failure
var ErrInvalidProduct = errors.New("invalid product")

// Product represents a stocked inventory item
type Product struct {
	ID        int       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	Category  string    `gorm:"not null;size:255;index" json:"category"`
	Quantity  int       `gorm:"not null;default:0" json:"quantity"`
	Price     float64   `gorm:"not null;default:0" json:"price"`
	Threshold int       `gorm:"not null;default:0" json:"threshold"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name to 'products'
func (Product) TableName() string { return "products" }

// Validate trims the text fields and checks every field constraint
func (p *Product) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)

	switch {
	case p.ID <= 0:
		return fmt.Errorf("%w: id must be greater than 0", ErrInvalidProduct)
	case p.Name == "":
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidProduct)
	case p.Category == "":
		return fmt.Errorf("%w: category cannot be empty", ErrInvalidProduct)
	case p.Quantity < 0:
		return fmt.Errorf("%w: quantity cannot be negative", ErrInvalidProduct)
	case math.IsNaN(p.Price) || math.IsInf(p.Price, 0):
		return fmt.Errorf("%w: price must be a finite number", ErrInvalidProduct)
	case p.Price < 0:
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidProduct)
	case p.Threshold < 0:
		return fmt.Errorf("%w: threshold cannot be negative", ErrInvalidProduct)
	}
	return nil
}

// LowStock reports whether quantity has fallen to the alert threshold
func (p *Product) LowStock() bool {
	return p.Quantity <= p.Threshold
}

// CreateProductRequest represents the request body for creating a product
type CreateProductRequest struct {
	ID        int     `json:"id" binding:"required,gt=0"`
	Name      string  `json:"name" binding:"required,min=1,max=255"`
	Category  string  `json:"category" binding:"required,min=1,max=255"`
	Quantity  int     `json:"quantity" binding:"gte=0"`
	Price     float64 `json:"price" binding:"gte=0"`
	Threshold int     `json:"threshold" binding:"gte=0"`
}

// UpdateProductRequest represents the request body for updating a product
type UpdateProductRequest struct {
	Name      *string  `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Category  *string  `json:"category,omitempty" binding:"omitempty,min=1,max=255"`
	Quantity  *int     `json:"quantity,omitempty" binding:"omitempty,gte=0"`
	Price     *float64 `json:"price,omitempty" binding:"omitempty,gte=0"`
	Threshold *int     `json:"threshold,omitempty" binding:"omitempty,gte=0"`
}

// ProductResponse represents the response payload for product operations
type ProductResponse struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	Threshold int       `json:"threshold"`
	LowStock  bool      `json:"low_stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToResponse converts Product model to ProductResponse
func (p *Product) ToResponse() ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Quantity:  p.Quantity,
		Price:     p.Price,
		Threshold: p.Threshold,
		LowStock:  p.LowStock(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ImportResult summarizes a CSV import
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

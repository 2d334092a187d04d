package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryComidaRapida Category = "comida_rapida"
	CategoryEspecial     Category = "especial"
	CategoryExtra        Category = "extra"
	CategoryBebida       Category = "bebida"
)

func Categories() []Category {
	return []Category{CategoryComidaRapida, CategoryEspecial, CategoryExtra, CategoryBebida}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryComidaRapida, CategoryEspecial, CategoryExtra, CategoryBebida:
		return true
	}
	return false
}

type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Ingredients []string        `json:"ingredients"`
	Category    Category        `json:"category"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	IsActive    bool            `json:"is_active"`
	IsFeatured  bool            `json:"is_featured"`
	Rating      float64         `json:"rating"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type OrderBy string

const (
	OrderByName      OrderBy = "name"
	OrderByCreatedAt OrderBy = "created_at"
	OrderByRating    OrderBy = "rating"
)

// Normalize maps anything but a known ordering to the default name ordering.
func (o OrderBy) Normalize() OrderBy {
	switch o {
	case OrderByCreatedAt, OrderByRating:
		return o
	}
	return OrderByName
}

type ListOptions struct {
	ActiveOnly   bool
	FeaturedOnly bool
	Category     Category
	OrderBy      OrderBy
}

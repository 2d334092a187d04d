package cart

import (
	"restobar-be/internal/product"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a priced snapshot of a product taken when it was first added.
type Item struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Quantity    int             `json:"quantity"`
}

func itemFromProduct(p product.Product) Item {
	return Item{
		ProductID:   p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Quantity:    1,
	}
}

func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Summary is the read model handed to clients.
type Summary struct {
	Items     []Item          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

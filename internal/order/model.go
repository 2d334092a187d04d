package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID            uuid.UUID       `json:"id"`
	CustomerName  string          `json:"customer_name"`
	UserID        *uuid.UUID      `json:"user_id,omitempty"`
	Total         decimal.Decimal `json:"total"`
	Status        Status          `json:"status"`
	Notes         *string         `json:"notes,omitempty"`
	InvoiceNumber string          `json:"invoice_number"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Items         []Item          `json:"items"`
}

// OwnedBy reports whether the order was placed by userID.
func (o *Order) OwnedBy(userID uuid.UUID) bool {
	return o.UserID != nil && *o.UserID == userID
}

// Item is written once at creation and never modified.
type Item struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type ItemInput struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

type CreateOrderInput struct {
	CustomerName string
	UserID       *uuid.UUID
	Items        []ItemInput
	Notes        *string
	// ExpectedTotal, when set, must equal the computed total.
	ExpectedTotal *decimal.Decimal
}

type ListFilter struct {
	UserID    *uuid.UUID
	Statuses  []Status
	Limit     int
	Ascending bool
}

type Invoice struct {
	Number       string          `json:"number"`
	OrderID      uuid.UUID       `json:"order_id"`
	CustomerName string          `json:"customer_name"`
	IssuedAt     time.Time       `json:"issued_at"`
	Status       string          `json:"status"`
	Lines        []InvoiceLine   `json:"lines"`
	Total        decimal.Decimal `json:"total"`
}

type InvoiceLine struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

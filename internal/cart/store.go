package cart

import (
	"context"
	"strings"
	"sync"

	"restobar-be/internal/logger"
	"restobar-be/internal/order"
	"restobar-be/internal/product"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderCreator is the single submission path for a checkout.
type OrderCreator interface {
	Create(ctx context.Context, in order.CreateOrderInput) (*order.Order, error)
}

// Store is one owner's cart. Every mutation writes through to storage before
// it becomes visible; a failed write leaves the cart as it was.
type Store struct {
	owner   string
	storage Storage
	orders  OrderCreator

	mu          sync.Mutex
	items       []Item
	checkingOut bool
}

func NewStore(owner string, storage Storage, orders OrderCreator) *Store {
	return &Store{owner: owner, storage: storage, orders: orders}
}

func (s *Store) Owner() string { return s.owner }

// Load replaces the in-memory cart with the persisted snapshot. It is a no-op
// while a checkout is in flight.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkingOut {
		return nil
	}
	items, err := s.storage.Load(ctx, s.owner)
	if err != nil {
		return err
	}
	s.items = items
	return nil
}

func (s *Store) AddItem(ctx context.Context, p product.Product) error {
	return s.mutate(ctx, func(items []Item) []Item {
		for i := range items {
			if items[i].ProductID == p.ID {
				items[i].Quantity++
				return items
			}
		}
		return append(items, itemFromProduct(p))
	})
}

func (s *Store) RemoveItem(ctx context.Context, productID uuid.UUID) error {
	return s.mutate(ctx, func(items []Item) []Item {
		return removeItem(items, productID)
	})
}

// UpdateQuantity sets the quantity; zero or less removes the item.
func (s *Store) UpdateQuantity(ctx context.Context, productID uuid.UUID, qty int) error {
	return s.mutate(ctx, func(items []Item) []Item {
		if qty <= 0 {
			return removeItem(items, productID)
		}
		for i := range items {
			if items[i].ProductID == productID {
				items[i].Quantity = qty
			}
		}
		return items
	})
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkingOut {
		return ErrCheckoutInProgress
	}
	if err := s.storage.Delete(ctx, s.owner); err != nil {
		return err
	}
	s.items = nil
	return nil
}

func (s *Store) mutate(ctx context.Context, fn func([]Item) []Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkingOut {
		return ErrCheckoutInProgress
	}

	next := fn(cloneItems(s.items))
	if err := s.storage.Save(ctx, s.owner, next); err != nil {
		logger.FromCtx(ctx).Error("failed to persist cart",
			zap.String("layer", "cart"),
			zap.String("owner", s.owner),
			zap.Error(err),
		)
		return err
	}
	s.items = next
	return nil
}

// Items returns a copy of the current lines.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return total(s.items)
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return count(s.items)
}

func (s *Store) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{Items: cloneItems(s.items), Total: total(s.items), ItemCount: count(s.items)}
}

// CreateOrder submits the current cart as one order and empties the cart only
// once the order is stored. Validation happens before any remote call. While
// a submission is in flight every other mutation and checkout is refused.
func (s *Store) CreateOrder(ctx context.Context, customerName string, userID *uuid.UUID) (*order.Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "cart"),
		zap.String("method", "CreateOrder"),
		zap.String("owner", s.owner),
	)

	s.mu.Lock()
	if s.checkingOut {
		s.mu.Unlock()
		return nil, ErrCheckoutInProgress
	}
	if strings.TrimSpace(customerName) == "" {
		s.mu.Unlock()
		return nil, order.ErrInvalidCustomerName
	}
	if len(s.items) == 0 {
		s.mu.Unlock()
		return nil, ErrEmptyCart
	}

	snapshot := cloneItems(s.items)
	expected := total(snapshot)
	s.checkingOut = true
	s.mu.Unlock()

	in := order.CreateOrderInput{
		CustomerName:  customerName,
		UserID:        userID,
		Items:         make([]order.ItemInput, 0, len(snapshot)),
		ExpectedTotal: &expected,
	}
	for _, it := range snapshot {
		in.Items = append(in.Items, order.ItemInput{
			ProductID:   it.ProductID,
			ProductName: it.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.Price,
		})
	}

	// A sent order is never abandoned because the caller went away.
	writeCtx := context.WithoutCancel(ctx)
	o, err := s.orders.Create(writeCtx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkingOut = false

	if err != nil {
		log.Warn("checkout failed, cart kept", zap.Error(err))
		return nil, err
	}

	s.items = nil
	if err := s.storage.Delete(writeCtx, s.owner); err != nil {
		log.Warn("order placed but cart snapshot not cleared", zap.Error(err))
	}

	log.Info("checkout completed", zap.String("order_id", o.ID.String()))
	return o, nil
}

func removeItem(items []Item, productID uuid.UUID) []Item {
	out := items[:0]
	for _, it := range items {
		if it.ProductID != productID {
			out = append(out, it)
		}
	}
	return out
}

func cloneItems(items []Item) []Item {
	if len(items) == 0 {
		return []Item{}
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func total(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

func count(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

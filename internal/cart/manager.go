package cart

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Owner keys a cart: "user:<id>" for a signed-in principal, "anon:<id>" for a
// browser session identified by its cart cookie.
func UserOwner(id uuid.UUID) string { return "user:" + id.String() }
func AnonOwner(id uuid.UUID) string { return "anon:" + id.String() }

func validOwner(owner string) bool {
	kind, id, ok := strings.Cut(owner, ":")
	if !ok || (kind != "user" && kind != "anon") {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

const (
	storeCacheSize = 4096
	storeIdle      = 15 * time.Minute
)

// Manager hands out one Store per owner so concurrent requests for the same
// owner serialise on it. Stores are kept in a bounded LRU and reloaded from
// storage on every Open, so another instance's writes are never hidden.
type Manager struct {
	storage Storage
	orders  OrderCreator

	mu     sync.Mutex
	stores *expirable.LRU[string, *Store]
}

func NewManager(storage Storage, orders OrderCreator) *Manager {
	return newManager(storage, orders, storeCacheSize, storeIdle)
}

func newManager(storage Storage, orders OrderCreator, size int, idle time.Duration) *Manager {
	return &Manager{
		storage: storage,
		orders:  orders,
		stores:  expirable.NewLRU[string, *Store](size, nil, idle),
	}
}

func (m *Manager) Open(ctx context.Context, owner string) (*Store, error) {
	if !validOwner(owner) {
		return nil, ErrInvalidOwner
	}

	m.mu.Lock()
	s, ok := m.stores.Get(owner)
	if !ok {
		s = NewStore(owner, m.storage, m.orders)
	}
	// re-adding restarts the idle timer
	m.stores.Add(owner, s)
	m.mu.Unlock()

	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close forgets the in-memory store; the persisted snapshot is kept.
func (m *Manager) Close(owner string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores.Remove(owner)
}

func (m *Manager) Len() int {
	return m.stores.Len()
}

// Merge moves an anonymous cart into a signed-in owner's cart, adding
// quantities for products present in both, then clears the source.
func (m *Manager) Merge(ctx context.Context, from, to string) error {
	if from == to {
		return nil
	}
	src, err := m.Open(ctx, from)
	if err != nil {
		return err
	}
	dst, err := m.Open(ctx, to)
	if err != nil {
		return err
	}

	incoming := src.Items()
	if len(incoming) == 0 {
		return nil
	}

	err = dst.mutate(ctx, func(items []Item) []Item {
		for _, in := range incoming {
			merged := false
			for i := range items {
				if items[i].ProductID == in.ProductID {
					items[i].Quantity += in.Quantity
					merged = true
					break
				}
			}
			if !merged {
				items = append(items, in)
			}
		}
		return items
	})
	if err != nil {
		return err
	}

	if err := src.Clear(ctx); err != nil {
		return err
	}
	m.Close(from)
	return nil
}

package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Channel is the Postgres NOTIFY channel every table trigger publishes on.
const Channel = "table_changes"

const (
	TableOrders     = "orders"
	TableOrderItems = "order_items"
	TableProducts   = "products"
)

// Event says that a row changed. It carries just enough to decide whether a
// subscriber cares; subscribers re-fetch rather than apply it.
type Event struct {
	Table  string     `json:"table"`
	Op     string     `json:"op"`
	RowID  uuid.UUID  `json:"id"`
	UserID *uuid.UUID `json:"user_id,omitempty"`
	Status string     `json:"status,omitempty"`
	// Resync means changes may have been missed; every subscriber re-fetches.
	Resync bool `json:"-"`
}

func ResyncEvent() Event {
	return Event{Resync: true}
}

func decodeNotification(n *pq.Notification) (Event, error) {
	var e Event
	if err := json.Unmarshal([]byte(n.Extra), &e); err != nil {
		return Event{}, fmt.Errorf("decode notification: %w", err)
	}
	if e.Table == "" {
		return Event{}, fmt.Errorf("decode notification: missing table")
	}
	return e, nil
}

// Filter narrows a subscription beyond its tables.
type Filter func(Event) bool

// ForUser keeps only events about rows owned by userID.
func ForUser(userID uuid.UUID) Filter {
	return func(e Event) bool {
		return e.UserID != nil && *e.UserID == userID
	}
}

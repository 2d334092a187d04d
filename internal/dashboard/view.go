// Package dashboard builds the per-role order boards and streams them over a
// websocket as the underlying rows change.
package dashboard

import (
	"context"
	"errors"
	"time"

	"restobar-be/internal/access"
	"restobar-be/internal/order"
	"restobar-be/internal/realtime"
)

const adminRecentLimit = 50

var ErrNoView = errors.New("no dashboard for this role")

type Dashboard struct {
	Role        access.Role          `json:"role"`
	Title       string               `json:"title"`
	Orders      []order.Order        `json:"orders"`
	Counts      map[order.Status]int `json:"counts,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// View describes what one role sees.
type View struct {
	Title  string
	Filter order.ListFilter
	Counts bool
}

func ViewFor(p access.Principal) (View, error) {
	switch p.Role {
	case access.RoleAdmin:
		return View{Title: "Administración", Filter: order.ListFilter{Limit: adminRecentLimit}, Counts: true}, nil
	case access.RoleCocinero:
		return View{Title: "Cocina", Filter: order.ListFilter{Statuses: order.KitchenStatuses(), Ascending: true}}, nil
	case access.RoleMesero:
		return View{Title: "Entregas", Filter: order.ListFilter{Statuses: order.DeliveryStatuses(), Ascending: true}}, nil
	case access.RoleCajero:
		return View{Title: "Caja", Filter: order.ListFilter{Statuses: order.ActiveStatuses(), Ascending: true}}, nil
	case access.RoleUsuario:
		uid := p.UserID
		return View{Title: "Mis pedidos", Filter: order.ListFilter{UserID: &uid}}, nil
	case access.RoleUnknown:
		return View{}, ErrNoView
	}
	return View{}, ErrNoView
}

// FilterFor limits a customer's feed to their own orders; staff see every change.
func FilterFor(p access.Principal) realtime.Filter {
	if p.Role == access.RoleUsuario {
		return realtime.ForUser(p.UserID)
	}
	return nil
}

type Feed struct {
	orders order.Service
	broker *realtime.Broker
	now    func() time.Time
}

func NewFeed(orders order.Service, broker *realtime.Broker) *Feed {
	return &Feed{orders: orders, broker: broker, now: time.Now}
}

func (f *Feed) Snapshot(ctx context.Context, p access.Principal) (*Dashboard, error) {
	view, err := ViewFor(p)
	if err != nil {
		return nil, err
	}

	orders, err := f.orders.List(ctx, p, view.Filter)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Role:        p.Role,
		Title:       view.Title,
		Orders:      orders,
		GeneratedAt: f.now().UTC(),
	}
	if view.Counts {
		if d.Counts, err = f.orders.CountByStatus(ctx, p); err != nil {
			return nil, err
		}
	}
	return d, nil
}

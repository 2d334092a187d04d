// Package handler exposes the restaurant services over HTTP.
package handler

import (
	"net/http"

	"restobar-be/internal/access"
	"restobar-be/internal/cart"
	"restobar-be/internal/dashboard"
	"restobar-be/internal/metrics"
	"restobar-be/internal/order"
	"restobar-be/internal/product"
	"restobar-be/internal/user"
	"restobar-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Deps struct {
	Users    user.Service
	Products product.Service
	Orders   order.Service
	Carts    *cart.Manager
	Feed     *dashboard.Feed
	Upgrader websocket.Upgrader
	Counters *metrics.Set

	// SecureCookies marks auth and cart cookies Secure.
	SecureCookies bool
}

type Handler struct {
	users    user.Service
	products product.Service
	orders   order.Service
	carts    *cart.Manager
	feed     *dashboard.Feed
	upgrader websocket.Upgrader
	counters *metrics.Set
	secure   bool
}

func New(d Deps) *Handler {
	return &Handler{
		users:    d.Users,
		products: d.Products,
		orders:   d.Orders,
		carts:    d.Carts,
		feed:     d.Feed,
		upgrader: d.Upgrader,
		counters: d.Counters,
		secure:   d.SecureCookies,
	}
}

// principal returns the signed-in caller. Routes that need one are already
// gated, so a miss only happens on misconfigured routes; the caller is sent
// to the login page either way.
func principal(w http.ResponseWriter, r *http.Request) (access.Principal, bool) {
	p, ok := access.PrincipalFrom(r.Context())
	if !ok {
		http.Redirect(w, r, access.LoginPath, http.StatusSeeOther)
	}
	return p, ok
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// Counters exposes the in-process counters to internal callers only.
func (h *Handler) Counters(w http.ResponseWriter, r *http.Request) {
	if !utils.IsInternalRequest(r.Context()) || h.counters == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.counters.Snapshot())
}

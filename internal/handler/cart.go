package handler

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"

	"restobar-be/internal/access"
	"restobar-be/internal/cart"
	"restobar-be/internal/middleware"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// quantityRequest keeps the raw value: anything that is not a positive
// integer removes the line instead of failing the request.
type quantityRequest struct {
	Quantity json.RawMessage `json:"quantity"`
}

var maxQuantity = decimal.NewFromInt(math.MaxInt32)

func (q quantityRequest) count() (int, bool) {
	dec := json.NewDecoder(bytes.NewReader(q.Quantity))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil || !d.IsInteger() || !d.IsPositive() || d.GreaterThan(maxQuantity) {
		return 0, false
	}
	return int(d.IntPart()), true
}

type checkoutRequest struct {
	CustomerName string `json:"customer_name"`
}

// cartOwner keys the cart by the signed-in user, or by the browser's cart
// cookie for anonymous visitors.
func cartOwner(r *http.Request) (owner string, userID *uuid.UUID, ok bool) {
	if p, signed := access.PrincipalFrom(r.Context()); signed {
		id := p.UserID
		return cart.UserOwner(id), &id, true
	}
	if id, has := middleware.CartIDFrom(r.Context()); has {
		return cart.AnonOwner(id), nil, true
	}
	return "", nil, false
}

func (h *Handler) openCart(w http.ResponseWriter, r *http.Request) (*cart.Store, *uuid.UUID, bool) {
	// A token whose profile is still resolving must not fall back to the
	// browser's anonymous cart.
	if s := access.SessionFrom(r.Context()); s != nil && s.State() == access.StateAuthenticating {
		middleware.WriteLoading(w)
		return nil, nil, false
	}

	owner, userID, ok := cartOwner(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "no_cart", "no cart session", nil)
		return nil, nil, false
	}
	store, err := h.carts.Open(r.Context(), owner)
	if err != nil {
		fail(w, r, err)
		return nil, nil, false
	}
	return store, userID, true
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	store, _, ok := h.openCart(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, store.Summary())
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	store, _, ok := h.openCart(w, r)
	if !ok {
		return
	}

	p, err := h.products.GetAvailable(r.Context(), req.ProductID)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := store.AddItem(r.Context(), *p); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Summary())
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "productID")
	if !ok {
		return
	}
	var req quantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	store, _, ok := h.openCart(w, r)
	if !ok {
		return
	}

	var err error
	if qty, valid := req.count(); valid {
		err = store.UpdateQuantity(r.Context(), id, qty)
	} else {
		err = store.RemoveItem(r.Context(), id)
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Summary())
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "productID")
	if !ok {
		return
	}

	store, _, ok := h.openCart(w, r)
	if !ok {
		return
	}
	if err := store.RemoveItem(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Summary())
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	store, _, ok := h.openCart(w, r)
	if !ok {
		return
	}
	if err := store.Clear(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Summary())
}

// Checkout submits the cart. The customer name is checked by the cart itself
// so an empty name and an empty cart fail the same way for every client.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	store, userID, ok := h.openCart(w, r)
	if !ok {
		return
	}

	o, err := store.CreateOrder(r.Context(), req.CustomerName, userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

package handler

import (
	"net/http"
	"strconv"

	"restobar-be/internal/order"
)

type notesRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	uid := p.UserID
	orders, err := h.orders.List(r.Context(), p, order.ListFilter{UserID: &uid})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// ListOrders serves staff boards by status set: ?scope=kitchen|delivery|active|all.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	statuses, err := order.Scope(q.Get("scope")).Statuses()
	if err != nil {
		fail(w, r, err)
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	orders, err := h.orders.List(r.Context(), p, order.ListFilter{
		Statuses:  statuses,
		Limit:     limit,
		Ascending: len(statuses) > 0,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "orderID")
	if !ok {
		return
	}

	o, err := h.orders.Get(r.Context(), p, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "orderID")
	if !ok {
		return
	}

	inv, err := h.orders.Invoice(r.Context(), p, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// AdvanceOrder moves an order one stage forward. A 409 means the order moved
// on meanwhile and the board should re-fetch.
func (h *Handler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "orderID")
	if !ok {
		return
	}

	o, err := h.orders.Advance(r.Context(), p, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) UpdateOrderNotes(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "orderID")
	if !ok {
		return
	}
	var req notesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	o, err := h.orders.UpdateNotes(r.Context(), p, id, req.Notes)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "orderID")
	if !ok {
		return
	}

	if err := h.orders.SafeDelete(r.Context(), p, id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

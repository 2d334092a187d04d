package handler

import (
	"context"
	"net/http"
	"strconv"

	"restobar-be/internal/access"
	"restobar-be/internal/product"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type productRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Ingredients []string        `json:"ingredients"`
	Category    string          `json:"category" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
	IsActive    *bool           `json:"is_active"`
	IsFeatured  bool            `json:"is_featured"`
	Rating      float64         `json:"rating" validate:"gte=0,lte=5"`
}

type toggleRequest struct {
	Value *bool `json:"value" validate:"required"`
}

type ratingRequest struct {
	Rating *float64 `json:"rating" validate:"required"`
}

func listOptions(r *http.Request) product.ListOptions {
	q := r.URL.Query()
	featured, _ := strconv.ParseBool(q.Get("featured"))
	return product.ListOptions{
		FeaturedOnly: featured,
		Category:     product.Category(q.Get("category")),
		OrderBy:      product.OrderBy(q.Get("order_by")),
	}
}

// ListProducts is the public menu: active products only.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	opts := listOptions(r)
	opts.ActiveOnly = true

	products, err := h.products.List(r.Context(), opts)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "productID")
	if !ok {
		return
	}

	p, err := h.products.GetAvailable(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// AdminListProducts includes inactive products.
func (h *Handler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context(), listOptions(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, product.Product{}, http.StatusCreated)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "productID")
	if !ok {
		return
	}
	h.saveProduct(w, r, product.Product{ID: id}, http.StatusOK)
}

func (h *Handler) saveProduct(w http.ResponseWriter, r *http.Request, p product.Product, status int) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}

	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p.Name = req.Name
	p.Description = req.Description
	p.Ingredients = req.Ingredients
	p.Category = product.Category(req.Category)
	p.Price = req.Price
	p.ImageURL = req.ImageURL
	p.IsActive = req.IsActive == nil || *req.IsActive
	p.IsFeatured = req.IsFeatured
	p.Rating = req.Rating

	saved, err := h.products.Upsert(r.Context(), actor, p)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, status, saved)
}

func (h *Handler) SetProductActive(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.products.SetActive)
}

func (h *Handler) SetProductFeatured(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.products.SetFeatured)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, set func(ctx context.Context, actor access.Principal, id uuid.UUID, v bool) error) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "productID")
	if !ok {
		return
	}

	var req toggleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := set(r.Context(), actor, id, *req.Value); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetProductRating(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "productID")
	if !ok {
		return
	}

	var req ratingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.products.SetRating(r.Context(), actor, id, *req.Rating); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

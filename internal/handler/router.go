package handler

import (
	"net/http"

	"restobar-be/internal/access"
	"restobar-be/internal/logger"
	"restobar-be/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Authenticator *middleware.Authenticator
	// Limiter is optional.
	Limiter       *middleware.RateLimiter
	CORSOrigin    string
	SecureCookies bool
}

var staff = []access.Role{access.RoleAdmin, access.RoleCajero, access.RoleCocinero, access.RoleMesero}

func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(logger.RequestIDMiddleware)
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(cfg.Authenticator.Middleware)
	r.Use(middleware.LoggingMiddleware)
	if cfg.Limiter != nil {
		r.Use(cfg.Limiter.Middleware)
	}
	r.Use(middleware.CartSession(cfg.SecureCookies))

	authenticated := middleware.RequireRole()
	staffOnly := middleware.RequireRole(staff...)
	adminOnly := middleware.RequireRole(access.RoleAdmin)

	r.Get("/health", h.Health)
	r.Get("/internal/counters", h.Counters)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(authenticated).Post("/logout", h.Logout)
	})
	r.With(authenticated).Get("/me", h.Me)

	r.Get("/products", h.ListProducts)
	r.Get("/products/{productID}", h.GetProduct)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/", h.AddToCart)
		r.Delete("/", h.ClearCart)
		r.Patch("/items/{productID}", h.UpdateCartItem)
		r.Delete("/items/{productID}", h.RemoveCartItem)
		r.Post("/checkout", h.Checkout)
	})

	r.Route("/orders", func(r chi.Router) {
		r.With(authenticated).Get("/mine", h.MyOrders)
		r.With(staffOnly).Get("/", h.ListOrders)

		r.Route("/{orderID}", func(r chi.Router) {
			r.With(authenticated).Get("/", h.GetOrder)
			r.With(authenticated).Get("/invoice", h.GetInvoice)
			r.With(staffOnly).Post("/advance", h.AdvanceOrder)
			r.With(staffOnly).Patch("/notes", h.UpdateOrderNotes)
			r.With(adminOnly).Delete("/", h.DeleteOrder)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(adminOnly)
		r.Get("/", h.Dashboard)

		r.Get("/products", h.AdminListProducts)
		r.Post("/products", h.CreateProduct)
		r.Put("/products/{productID}", h.UpdateProduct)
		r.Patch("/products/{productID}/active", h.SetProductActive)
		r.Patch("/products/{productID}/featured", h.SetProductFeatured)
		r.Patch("/products/{productID}/rating", h.SetProductRating)

		r.Get("/users", h.ListUsers)
		r.Patch("/users/{userID}/role", h.UpdateUserRole)
	})

	for _, role := range []access.Role{access.RoleCajero, access.RoleCocinero, access.RoleMesero, access.RoleUsuario} {
		r.With(middleware.RequireRole(role)).Get(access.LandingPath(role), h.Dashboard)
	}

	r.With(authenticated).Get("/ws/orders", h.OrdersFeed)

	return r
}

package middleware

import (
	"context"
	"net/http"

	"restobar-be/internal/utils"

	"github.com/google/uuid"
)

const CartCookieName = "cart_session"

type cartIDKey struct{}

// CartSession makes sure every browser carries a cart cookie so an anonymous
// visitor keeps the same cart across requests. Internal service calls get none.
func CartSession(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if utils.IsInternalRequest(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}

			var id uuid.UUID
			if c, err := r.Cookie(CartCookieName); err == nil {
				id, _ = uuid.Parse(c.Value)
			}
			if id == uuid.Nil {
				id = uuid.New()
				http.SetCookie(w, &http.Cookie{
					Name:     CartCookieName,
					Value:    id.String(),
					Path:     "/",
					MaxAge:   30 * 24 * 60 * 60,
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), cartIDKey{}, id)))
		})
	}
}

func CartIDFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(cartIDKey{}).(uuid.UUID)
	return id, ok
}

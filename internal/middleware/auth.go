package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"restobar-be/internal/access"
	"restobar-be/internal/auth"
	"restobar-be/internal/logger"
	"restobar-be/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const profileTimeout = 2 * time.Second

type ProfileSource interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*user.Profile, error)
}

type claimsKey struct{}

// ClaimsFrom returns the verified token claims of the request, if any.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

type Authenticator struct {
	issuer   *auth.Issuer
	revoker  auth.Revoker
	profiles ProfileSource
}

func NewAuthenticator(issuer *auth.Issuer, revoker auth.Revoker, profiles ProfileSource) *Authenticator {
	return &Authenticator{issuer: issuer, revoker: revoker, profiles: profiles}
}

// Middleware resolves the request session once. It never rejects: an invalid
// token yields an unauthenticated session, a failed profile fetch yields an
// authenticated session with an unknown role, and a profile fetch that runs
// out of time leaves the session authenticating.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		session := access.NewSession()
		ctx = access.WithSession(ctx, session)

		token := auth.ExtractAccessToken(r)
		if token == "" {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		log := logger.FromCtx(ctx).With(zap.String("layer", "middleware"))

		claims, err := a.issuer.Parse(token)
		if err != nil {
			log.Debug("ignoring invalid token", zap.Error(err))
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		revoked, err := a.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			log.Warn("revocation check failed, treating as signed out", zap.Error(err))
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		if revoked {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		_ = session.Begin(claims.UserID, token)
		ctx = context.WithValue(ctx, claimsKey{}, claims)
		ctx = logger.WithUserID(ctx, claims.UserID.String())

		pctx, cancel := context.WithTimeout(ctx, profileTimeout)
		profile, err := a.profiles.GetProfile(pctx, claims.UserID)
		cancel()

		switch {
		case err == nil:
			_ = session.Authenticate(profile.Role)
		case errors.Is(err, context.DeadlineExceeded):
			log.Warn("profile fetch timed out")
		default:
			log.Warn("profile fetch failed, role unknown", zap.Error(err))
			_ = session.FailProfile()
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WriteLoading answers a request whose identity is not known yet: a bodyless
// 202 asking the client to retry.
func WriteLoading(w http.ResponseWriter) {
	w.Header().Set("Retry-After", strconv.Itoa(1))
	w.WriteHeader(http.StatusAccepted)
}

// RequireRole gates a route. Denied and unauthenticated callers are silently
// redirected; a session still resolving gets a bodyless 202 asking to retry.
// No roles means any authenticated principal.
func RequireRole(roles ...access.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			out := access.Gate(access.SessionFrom(r.Context()), roles...)

			switch out.Decision {
			case access.Granted:
				next.ServeHTTP(w, r)
			case access.Loading:
				WriteLoading(w)
			case access.Denied, access.Unauthenticated:
				http.Redirect(w, r, out.Redirect, http.StatusSeeOther)
			}
		})
	}
}

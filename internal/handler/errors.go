package handler

import (
	"context"
	"errors"
	"net/http"

	"restobar-be/internal/access"
	"restobar-be/internal/cart"
	"restobar-be/internal/dashboard"
	"restobar-be/internal/logger"
	"restobar-be/internal/order"
	"restobar-be/internal/product"
	"restobar-be/internal/user"

	"go.uber.org/zap"
)

func isForbidden(err error) bool {
	return errors.Is(err, order.ErrForbidden) ||
		errors.Is(err, product.ErrForbidden) ||
		errors.Is(err, user.ErrForbidden) ||
		errors.Is(err, dashboard.ErrNoView)
}

func isValidation(err error) bool {
	if order.IsValidation(err) || product.IsValidation(err) {
		return true
	}
	for _, target := range []error{
		cart.ErrEmptyCart, user.ErrInvalidEmail, user.ErrWeakPassword,
		user.ErrInvalidFullName, user.ErrInvalidRole,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	return errors.Is(err, order.ErrOrderNotFound) ||
		errors.Is(err, product.ErrProductNotFound) ||
		errors.Is(err, user.ErrUserNotFound) ||
		errors.Is(err, user.ErrProfileNotFound)
}

// fail maps a service error onto the response. Authorization failures never
// produce an error body: the caller is sent back to its own landing page.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isForbidden(err):
		redirectHome(w, r)
	case isValidation(err):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, user.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error(), nil)
	case errors.Is(err, user.ErrEmailExists):
		writeError(w, http.StatusConflict, "email_exists", err.Error(), nil)
	case errors.Is(err, product.ErrProductInactive):
		writeError(w, http.StatusConflict, "unavailable", err.Error(), nil)
	case order.IsConflict(err):
		writeError(w, http.StatusConflict, "status_conflict", "order changed meanwhile, reload and retry", nil)
	case errors.Is(err, order.ErrNoTransition):
		writeError(w, http.StatusConflict, "no_transition", err.Error(), nil)
	case errors.Is(err, cart.ErrCheckoutInProgress):
		writeError(w, http.StatusConflict, "checkout_in_progress", err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, order.ErrDuplicateInvoice):
		writeError(w, http.StatusServiceUnavailable, "unavailable", "service busy, please retry", nil)
	default:
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("layer", "handler"),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "request failed, please retry", nil)
	}
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	target := access.LoginPath
	if p, ok := access.PrincipalFrom(r.Context()); ok {
		target = access.LandingPath(p.Role)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

package handler

import (
	"net/http"

	"restobar-be/internal/access"
	"restobar-be/internal/auth"
	"restobar-be/internal/cart"
	"restobar-be/internal/logger"
	"restobar-be/internal/middleware"
	"restobar-be/internal/user"

	"go.uber.org/zap"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Profile user.Profile `json:"profile"`
	Landing string       `json:"landing"`
}

type meResponse struct {
	UserID  string        `json:"user_id"`
	Role    access.Role   `json:"role"`
	Landing string        `json:"landing"`
	Profile *user.Profile `json:"profile,omitempty"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.users.Register(r.Context(), user.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	h.signedIn(w, r, res)
	writeJSON(w, http.StatusCreated, authResponse{Profile: res.Profile, Landing: access.LandingPath(res.Profile.Role)})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, r, err)
		return
	}

	h.signedIn(w, r, res)
	writeJSON(w, http.StatusOK, authResponse{Profile: res.Profile, Landing: access.LandingPath(res.Profile.Role)})
}

// signedIn sets the token cookie and folds the browser's anonymous cart into
// the user's cart. A failed merge keeps both carts and is only logged.
func (h *Handler) signedIn(w http.ResponseWriter, r *http.Request, res *user.AuthResult) {
	auth.SetTokenCookie(w, res.Token, res.ExpiresAt, h.secure)

	cartID, ok := middleware.CartIDFrom(r.Context())
	if !ok || h.carts == nil {
		return
	}
	err := h.carts.Merge(r.Context(), cart.AnonOwner(cartID), cart.UserOwner(res.Profile.UserID))
	if err != nil {
		logger.FromCtx(r.Context()).Warn("anonymous cart not merged",
			zap.String("layer", "handler"),
			zap.String("user_id", res.Profile.UserID.String()),
			zap.Error(err),
		)
	}
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if ok {
		if err := h.users.SignOut(r.Context(), claims); err != nil {
			fail(w, r, err)
			return
		}
		if h.carts != nil {
			h.carts.Close(cart.UserOwner(claims.UserID))
		}
	}

	if s := access.SessionFrom(r.Context()); s != nil {
		s.Logout()
	}
	auth.ClearTokenCookie(w, h.secure)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	resp := meResponse{UserID: p.UserID.String(), Role: p.Role, Landing: access.LandingPath(p.Role)}
	if p.Role != access.RoleUnknown {
		if profile, err := h.users.GetProfile(r.Context(), p.UserID); err == nil {
			resp.Profile = profile
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

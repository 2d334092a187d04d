package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"restobar-be/internal/access"
	"restobar-be/internal/audit"
	"restobar-be/internal/auth"
	"restobar-be/internal/logger"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

const (
	profileCacheSize = 1024
	// Role changes become visible on the first fetch after this window.
	profileCacheTTL = 30 * time.Second
	minPasswordLen  = 8
)

type Service interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Authenticate(ctx context.Context, email, password string) (*AuthResult, error)
	SignOut(ctx context.Context, claims *auth.Claims) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	UpdateUserRole(ctx context.Context, actor access.Principal, userID uuid.UUID, role access.Role) (*Profile, error)
	ListProfiles(ctx context.Context, actor access.Principal) ([]Profile, error)
}

type service struct {
	repo     Repository
	issuer   *auth.Issuer
	revoker  auth.Revoker
	recorder audit.Recorder
	profiles *expirable.LRU[uuid.UUID, Profile]
}

func NewService(repo Repository, issuer *auth.Issuer, revoker auth.Revoker, recorder audit.Recorder) Service {
	if recorder == nil {
		recorder = audit.Nop()
	}
	return &service{
		repo:     repo,
		issuer:   issuer,
		revoker:  revoker,
		recorder: recorder,
		profiles: expirable.NewLRU[uuid.UUID, Profile](profileCacheSize, nil, profileCacheTTL),
	}
}

func (s *service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Register"),
	)

	email := normalizeEmail(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	switch {
	case email == "" || !strings.Contains(email, "@"):
		return nil, ErrInvalidEmail
	case len(in.Password) < minPasswordLen:
		return nil, ErrWeakPassword
	case fullName == "":
		return nil, ErrInvalidFullName
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	u, err := s.repo.CreateWithProfile(ctx, email, hashed, fullName, access.RoleUsuario)
	if err != nil {
		return nil, err
	}

	profile := Profile{UserID: u.ID, Email: u.Email, FullName: fullName, Role: access.RoleUsuario}
	res, err := s.issue(profile)
	if err != nil {
		log.Error("failed to issue token", zap.Error(err))
		return nil, err
	}

	s.recorder.Log(ctx, audit.Event{UserID: &u.ID, Action: audit.ActionRegister, Description: "account created"})
	log.Info("user registered", zap.String("user_id", u.ID.String()))
	return res, nil
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Authenticate"),
	)

	email = normalizeEmail(email)
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			checkPassword(password, dummyHash())
			s.recorder.Log(ctx, audit.Event{Action: audit.ActionSignInFailed, Description: "unknown email"})
			return nil, ErrInvalidCredentials
		}
		log.Error("failed to find user", zap.Error(err))
		return nil, err
	}

	if !checkPassword(password, u.PasswordHash) {
		s.recorder.Log(ctx, audit.Event{UserID: &u.ID, Action: audit.ActionSignInFailed, Description: "wrong password"})
		return nil, ErrInvalidCredentials
	}

	// A missing profile still signs the user in, with an unknown role.
	profile := Profile{UserID: u.ID, Email: u.Email, Role: access.RoleUnknown}
	if p, err := s.GetProfile(ctx, u.ID); err == nil {
		profile = *p
	} else {
		log.Warn("profile unavailable at sign-in", zap.Error(err))
	}

	res, err := s.issue(profile)
	if err != nil {
		log.Error("failed to issue token", zap.Error(err))
		return nil, err
	}

	s.recorder.Log(ctx, audit.Event{UserID: &u.ID, Action: audit.ActionSignIn, Description: "signed in"})
	log.Info("user authenticated", zap.String("user_id", u.ID.String()))
	return res, nil
}

func (s *service) SignOut(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return auth.ErrInvalidToken
	}

	var until time.Time
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if err := s.revoker.Revoke(ctx, claims.ID, until); err != nil {
		logger.FromCtx(ctx).Error("failed to revoke token",
			zap.String("layer", "service"),
			zap.String("method", "SignOut"),
			zap.Error(err),
		)
		return err
	}

	s.profiles.Remove(claims.UserID)
	s.recorder.Log(ctx, audit.Event{UserID: &claims.UserID, Action: audit.ActionSignOut, Description: "signed out"})
	return nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	if p, ok := s.profiles.Get(userID); ok {
		return &p, nil
	}

	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.profiles.Add(userID, *p)
	return p, nil
}

func (s *service) UpdateUserRole(ctx context.Context, actor access.Principal, userID uuid.UUID, role access.Role) (*Profile, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateUserRole"),
		zap.String("target_user_id", userID.String()),
	)

	if access.Resolve([]access.Role{access.RoleAdmin}, actor.Role) != access.Granted {
		return nil, ErrForbidden
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}
	s.profiles.Remove(userID)

	s.recorder.Log(ctx, audit.Event{
		UserID:      &actor.UserID,
		Action:      audit.ActionRoleChange,
		Description: "user " + userID.String() + " set to " + role.String(),
	})
	log.Info("role changed", zap.String("role", role.String()))

	return s.GetProfile(ctx, userID)
}

func (s *service) ListProfiles(ctx context.Context, actor access.Principal) ([]Profile, error) {
	if access.Resolve([]access.Role{access.RoleAdmin}, actor.Role) != access.Granted {
		return nil, ErrForbidden
	}
	return s.repo.ListProfiles(ctx)
}

func (s *service) issue(p Profile) (*AuthResult, error) {
	token, claims, err := s.issuer.Issue(p.UserID, p.Email, string(p.Role))
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: claims.ExpiresAt.Time, Profile: p}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

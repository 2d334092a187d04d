package product

import (
	"context"
	"errors"
	"strings"

	"restobar-be/internal/access"
	"restobar-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	List(ctx context.Context, opts ListOptions) ([]Product, error)
	Get(ctx context.Context, id uuid.UUID) (*Product, error)
	// GetAvailable returns the product only when it can be ordered.
	GetAvailable(ctx context.Context, id uuid.UUID) (*Product, error)
	Upsert(ctx context.Context, actor access.Principal, p Product) (*Product, error)
	SetActive(ctx context.Context, actor access.Principal, id uuid.UUID, active bool) error
	SetFeatured(ctx context.Context, actor access.Principal, id uuid.UUID, featured bool) error
	SetRating(ctx context.Context, actor access.Principal, id uuid.UUID, rating float64) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, opts ListOptions) ([]Product, error) {
	if opts.Category != "" && !opts.Category.Valid() {
		return nil, ErrInvalidCategory
	}
	return s.repo.List(ctx, opts)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetAvailable(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrProductInactive
	}
	return p, nil
}

func (s *service) Upsert(ctx context.Context, actor access.Principal, p Product) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Upsert"),
	)

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	p.Name = strings.TrimSpace(p.Name)
	switch {
	case p.Name == "":
		return nil, ErrInvalidName
	case p.Price.IsNegative():
		return nil, ErrInvalidPrice
	case !p.Category.Valid():
		return nil, ErrInvalidCategory
	case !validRating(p.Rating):
		return nil, ErrInvalidRating
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Ingredients == nil {
		p.Ingredients = []string{}
	}

	if err := s.repo.Upsert(ctx, &p); err != nil {
		log.Error("failed to save product", zap.Error(err))
		return nil, err
	}

	log.Info("product saved", zap.String("product_id", p.ID.String()))
	return &p, nil
}

// SetActive is the only removal path: products are never hard-deleted.
func (s *service) SetActive(ctx context.Context, actor access.Principal, id uuid.UUID, active bool) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.repo.SetActive(ctx, id, active)
}

func (s *service) SetFeatured(ctx context.Context, actor access.Principal, id uuid.UUID, featured bool) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.repo.SetFeatured(ctx, id, featured)
}

func (s *service) SetRating(ctx context.Context, actor access.Principal, id uuid.UUID, rating float64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if !validRating(rating) {
		return ErrInvalidRating
	}
	return s.repo.SetRating(ctx, id, rating)
}

func validRating(r float64) bool {
	return r >= 0 && r <= 5
}

func requireAdmin(actor access.Principal) error {
	if access.Resolve([]access.Role{access.RoleAdmin}, actor.Role) != access.Granted {
		return ErrForbidden
	}
	return nil
}

// IsValidation reports whether err is a caller input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInvalidCategory) ||
		errors.Is(err, ErrInvalidRating)
}

package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"restobar-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context, opts ListOptions) ([]Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Upsert(ctx context.Context, p *Product) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SetFeatured(ctx context.Context, id uuid.UUID, featured bool) error
	SetRating(ctx context.Context, id uuid.UUID, rating float64) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const productColumns = `id, name, description, ingredients, category, price, image_url, is_active, is_featured, rating, created_at, updated_at`

func scanProduct(sc interface{ Scan(dest ...any) error }) (Product, error) {
	var (
		p        Product
		category string
	)
	err := sc.Scan(
		&p.ID, &p.Name, &p.Description, pq.Array(&p.Ingredients), &category,
		&p.Price, &p.ImageURL, &p.IsActive, &p.IsFeatured, &p.Rating,
		&p.CreatedAt, &p.UpdatedAt,
	)
	p.Category = Category(category)
	return p, err
}

func buildListQuery(opts ListOptions) (string, []any) {
	var (
		where []string
		args  []any
	)
	if opts.ActiveOnly {
		where = append(where, "is_active = TRUE")
	}
	if opts.FeaturedOnly {
		where = append(where, "is_featured = TRUE")
	}
	if opts.Category != "" {
		args = append(args, string(opts.Category))
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	switch opts.OrderBy {
	case OrderByCreatedAt:
		query += " ORDER BY created_at DESC"
	case OrderByRating:
		query += " ORDER BY rating DESC, name ASC"
	default:
		query += " ORDER BY name ASC"
	}
	return query, args
}

func (r *repository) List(ctx context.Context, opts ListOptions) ([]Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
	)

	query, args := buildListQuery(opts)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			log.Error("failed to scan product", zap.Error(err))
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Debug("products listed", zap.Int("count", len(out)))
	return out, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert inserts the product or replaces every editable field of an existing one.
func (r *repository) Upsert(ctx context.Context, p *Product) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Upsert"),
		zap.String("product_id", p.ID.String()),
	)

	query := `
		INSERT INTO products (id, name, description, ingredients, category, price, image_url, is_active, is_featured, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			ingredients = EXCLUDED.ingredients,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			image_url = EXCLUDED.image_url,
			is_active = EXCLUDED.is_active,
			is_featured = EXCLUDED.is_featured,
			rating = EXCLUDED.rating,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Description, pq.Array(p.Ingredients), string(p.Category),
		p.Price, p.ImageURL, p.IsActive, p.IsFeatured, p.Rating,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		log.Error("failed to upsert product", zap.Error(err))
		return err
	}

	log.Info("product saved")
	return nil
}

func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.setColumn(ctx, "is_active", id, active)
}

func (r *repository) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) error {
	return r.setColumn(ctx, "is_featured", id, featured)
}

func (r *repository) SetRating(ctx context.Context, id uuid.UUID, rating float64) error {
	return r.setColumn(ctx, "rating", id, rating)
}

// setColumn only ever receives one of the literal column names above.
func (r *repository) setColumn(ctx context.Context, column string, id uuid.UUID, value any) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET "+column+" = $1, updated_at = NOW() WHERE id = $2",
		value, id,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to update product",
			zap.String("layer", "repository"),
			zap.String("column", column),
			zap.Error(err),
		)
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

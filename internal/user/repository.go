package user

import (
	"context"
	"database/sql"
	"errors"

	"restobar-be/internal/access"
	"restobar-be/internal/db"
	"restobar-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

type Repository interface {
	CreateWithProfile(ctx context.Context, email, passwordHash, fullName string, role access.Role) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	UpdateRole(ctx context.Context, userID uuid.UUID, role access.Role) error
	ListProfiles(ctx context.Context) ([]Profile, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// CreateWithProfile inserts the user and its profile in one transaction.
func (r *repository) CreateWithProfile(ctx context.Context, email, passwordHash, fullName string, role access.Role) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateWithProfile"),
	)

	u := User{Email: email, PasswordHash: passwordHash}
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id, created_at`,
			email, passwordHash,
		).Scan(&u.ID, &u.CreatedAt); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO profiles (user_id, full_name, role_id)
			 VALUES ($1, $2, (SELECT id FROM roles WHERE name = $3))`,
			u.ID, fullName, string(role),
		)
		return err
	})
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			log.Info("email already registered")
			return nil, ErrEmailExists
		}
		log.Error("failed to create user", zap.Error(err))
		return nil, err
	}

	log.Info("user created", zap.String("user_id", u.ID.String()))
	return &u, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetProfile"),
		zap.String("user_id", userID.String()),
	)

	query := `
		SELECT p.user_id, u.email, p.full_name, r.name
		FROM profiles p
		INNER JOIN users u ON u.id = p.user_id
		INNER JOIN roles r ON r.id = p.role_id
		WHERE p.user_id = $1
	`

	var (
		p    Profile
		role string
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &p.Email, &p.FullName, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Info("profile not found")
			return nil, ErrProfileNotFound
		}
		log.Error("failed to scan profile", zap.Error(err))
		return nil, err
	}

	p.Role = access.Role(role)
	if !p.Role.Valid() {
		p.Role = access.RoleUnknown
	}
	return &p, nil
}

func (r *repository) UpdateRole(ctx context.Context, userID uuid.UUID, role access.Role) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpdateRole"),
		zap.String("user_id", userID.String()),
	)

	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles
		 SET role_id = (SELECT id FROM roles WHERE name = $1), updated_at = NOW()
		 WHERE user_id = $2`,
		string(role), userID,
	)
	if err != nil {
		log.Error("failed to update role", zap.Error(err))
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProfileNotFound
	}

	log.Info("role updated", zap.String("role", role.String()))
	return nil
}

func (r *repository) ListProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.user_id, u.email, p.full_name, r.name
		FROM profiles p
		INNER JOIN users u ON u.id = p.user_id
		INNER JOIN roles r ON r.id = p.role_id
		ORDER BY u.created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		var (
			p    Profile
			role string
		)
		if err := rows.Scan(&p.UserID, &p.Email, &p.FullName, &role); err != nil {
			return nil, err
		}
		p.Role = access.Role(role)
		if !p.Role.Valid() {
			p.Role = access.RoleUnknown
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

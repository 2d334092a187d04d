package audit

import (
	"context"
	"database/sql"
)

type Repository interface {
	Insert(ctx context.Context, e Event) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO security_events (user_id, action, description, created_at) VALUES ($1, $2, $3, $4)`,
		e.UserID, e.Action, e.Description, e.CreatedAt,
	)
	return err
}

package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"restobar-be/internal/db"
	"restobar-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	uniqueViolation   = "23505"
	invoiceConstraint = "orders_invoice_number_key"
)

type Repository interface {
	CreateOrderTx(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, error)
	UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from, to Status) (*Order, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, notes *string) (*Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `id, customer_name, user_id, total, status, notes, invoice_number, created_at, updated_at`

func scanOrder(sc interface{ Scan(dest ...any) error }) (Order, error) {
	var (
		o      Order
		userID uuid.NullUUID
		notes  sql.NullString
		status string
	)
	err := sc.Scan(&o.ID, &o.CustomerName, &userID, &o.Total, &status, &notes, &o.InvoiceNumber, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return o, err
	}
	if userID.Valid {
		id := userID.UUID
		o.UserID = &id
	}
	if notes.Valid {
		n := notes.String
		o.Notes = &n
	}
	o.Status = Status(status)
	o.Items = []Item{}
	return o, nil
}

// CreateOrderTx persists the order header and every item atomically.
func (r *repository) CreateOrderTx(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrderTx"),
		zap.String("order_id", o.ID.String()),
	)

	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO orders (id, customer_name, user_id, total, status, notes, invoice_number)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at, updated_at
		`,
			o.ID, o.CustomerName, o.UserID, o.Total, string(o.Status), o.Notes, o.InvoiceNumber,
		).Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == invoiceConstraint {
				return ErrDuplicateInvoice
			}
			return fmt.Errorf("insert order: %w", err)
		}

		for _, it := range o.Items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price, line_total)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`,
				it.ID, o.ID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice, it.LineTotal,
			); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		return nil
	})
	if errors.Is(err, ErrDuplicateInvoice) {
		log.Warn("invoice number collision", zap.String("invoice_number", o.InvoiceNumber))
		return err
	}
	if err != nil {
		log.Error("failed to create order", zap.Error(err))
		return err
	}

	log.Info("order created", zap.Int("items", len(o.Items)))
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	byOrder, err := r.itemsFor(ctx, []uuid.UUID{o.ID})
	if err != nil {
		return nil, err
	}
	if items, ok := byOrder[o.ID]; ok {
		o.Items = items
	}
	return &o, nil
}

func buildListQuery(f ListFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	query := "SELECT " + orderColumns + " FROM orders"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if f.Ascending {
		query += " ORDER BY created_at ASC"
	} else {
		query += " ORDER BY created_at DESC"
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}

// List returns the matching orders with their items nested.
func (r *repository) List(ctx context.Context, f ListFilter) ([]Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
	)

	query, args := buildListQuery(f)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	orders := []Order{}
	var ids []uuid.UUID
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order", zap.Error(err))
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return orders, nil
	}

	byOrder, err := r.itemsFor(ctx, ids)
	if err != nil {
		log.Error("failed to load order items", zap.Error(err))
		return nil, err
	}
	for i := range orders {
		if items, ok := byOrder[orders[i].ID]; ok {
			orders[i].Items = items
		}
	}

	log.Debug("orders listed", zap.Int("count", len(orders)))
	return orders, nil
}

func (r *repository) itemsFor(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]Item, error) {
	ids := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = id.String()
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, COALESCE(p.name, oi.product_name), oi.quantity, oi.unit_price, oi.line_total
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1::uuid[])
		ORDER BY oi.order_id, oi.id
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]Item, len(orderIDs))
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

// UpdateStatusGuarded moves the order from one stage to the next in a single
// statement. A row that is no longer at from is a conflict and is not touched.
func (r *repository) UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from, to Status) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpdateStatusGuarded"),
		zap.String("order_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)

	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3 RETURNING `+orderColumns,
		string(to), id, string(from),
	))
	if errors.Is(err, sql.ErrNoRows) {
		log.Info("guarded status update matched no row")
		return nil, ErrStatusConflict
	}
	if err != nil {
		log.Error("failed to update status", zap.Error(err))
		return nil, err
	}

	log.Info("order status updated")
	return &o, nil
}

func (r *repository) UpdateNotes(ctx context.Context, id uuid.UUID, notes *string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`UPDATE orders SET notes = $1, updated_at = NOW() WHERE id = $2 RETURNING `+orderColumns,
		notes, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Delete removes the order and its items in one transaction.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Delete"),
		zap.String("order_id", id.String()),
	)

	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrOrderNotFound
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrOrderNotFound) {
			log.Error("failed to delete order", zap.Error(err))
		}
		return err
	}

	log.Info("order deleted")
	return nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[Status]int, len(statusSequence))
	for _, s := range statusSequence {
		out[s] = 0
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[Status(status)] = n
	}
	return out, rows.Err()
}

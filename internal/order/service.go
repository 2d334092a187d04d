package order

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"restobar-be/internal/access"
	"restobar-be/internal/audit"
	"restobar-be/internal/logger"
	"restobar-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	maxNotesLen     = 500
	invoiceAttempts = 3
)

type Service interface {
	Create(ctx context.Context, in CreateOrderInput) (*Order, error)
	Advance(ctx context.Context, actor access.Principal, id uuid.UUID) (*Order, error)
	List(ctx context.Context, actor access.Principal, f ListFilter) ([]Order, error)
	Get(ctx context.Context, actor access.Principal, id uuid.UUID) (*Order, error)
	UpdateNotes(ctx context.Context, actor access.Principal, id uuid.UUID, notes string) (*Order, error)
	SafeDelete(ctx context.Context, actor access.Principal, id uuid.UUID) error
	Invoice(ctx context.Context, actor access.Principal, id uuid.UUID) (*Invoice, error)
	CountByStatus(ctx context.Context, actor access.Principal) (map[Status]int, error)
}

type service struct {
	repo     Repository
	recorder audit.Recorder
	now      func() time.Time
}

func NewService(repo Repository, recorder audit.Recorder) Service {
	if recorder == nil {
		recorder = audit.Nop()
	}
	return &service{repo: repo, recorder: recorder, now: time.Now}
}

// Create validates the submission, prices every line from its snapshot and
// persists the order with all items in one transaction. Validation failures
// never reach the repository.
func (s *service) Create(ctx context.Context, in CreateOrderInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Create"),
	)

	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		return nil, ErrInvalidCustomerName
	}
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	o := &Order{
		ID:           uuid.New(),
		CustomerName: name,
		UserID:       in.UserID,
		Status:       StatusPendiente,
		Items:        make([]Item, 0, len(in.Items)),
	}
	notes, err := cleanNotes(utils.PtrString(in.Notes))
	if err != nil {
		return nil, err
	}
	o.Notes = notes

	total := decimal.Zero
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if it.UnitPrice.IsNegative() {
			return nil, ErrInvalidPrice
		}
		line := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(line)
		o.Items = append(o.Items, Item{
			ID:          uuid.New(),
			OrderID:     o.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   line,
		})
	}
	if in.ExpectedTotal != nil && !in.ExpectedTotal.Equal(total) {
		log.Warn("submitted total does not match items",
			zap.String("expected", in.ExpectedTotal.String()),
			zap.String("computed", total.String()),
		)
		return nil, ErrTotalMismatch
	}
	o.Total = total

	// invoice numbers are random per millisecond; a collision gets a fresh one
	for attempt := 1; attempt <= invoiceAttempts; attempt++ {
		o.InvoiceNumber = utils.GenerateInvoiceNumber(s.now())
		err = s.repo.CreateOrderTx(ctx, o)
		if !errors.Is(err, ErrDuplicateInvoice) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	s.recorder.Log(ctx, audit.Event{
		UserID:      o.UserID,
		Action:      audit.ActionOrderCreated,
		Description: "order " + o.ID.String() + " total " + o.Total.String(),
	})
	log.Info("order placed",
		zap.String("order_id", o.ID.String()),
		zap.String("total", o.Total.String()),
	)
	return o, nil
}

// Advance moves the order exactly one stage forward. Delivered orders are left
// untouched and report ErrNoTransition. The result is the row the database
// confirmed, never a locally computed guess.
func (s *service) Advance(ctx context.Context, actor access.Principal, id uuid.UUID) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Advance"),
		zap.String("order_id", id.String()),
	)

	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, ok := current.Status.Next()
	if !ok {
		log.Debug("order already terminal")
		return nil, ErrNoTransition
	}
	if !CanAdvance(actor.Role, current.Status) {
		return nil, ErrForbidden
	}

	updated, err := s.repo.UpdateStatusGuarded(ctx, id, current.Status, next)
	if err != nil {
		return nil, err
	}
	updated.Items = current.Items

	log.Info("order advanced",
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
		zap.String("actor_role", actor.Role.String()),
	)
	return updated, nil
}

// List scopes customers to their own orders regardless of the filter passed in.
func (s *service) List(ctx context.Context, actor access.Principal, f ListFilter) ([]Order, error) {
	switch {
	case actor.IsStaff():
	case actor.Role == access.RoleUsuario:
		uid := actor.UserID
		f.UserID = &uid
	default:
		return nil, ErrForbidden
	}

	for _, st := range f.Statuses {
		if !st.Valid() {
			return nil, ErrInvalidStatus
		}
	}
	return s.repo.List(ctx, f)
}

func (s *service) Get(ctx context.Context, actor access.Principal, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && !o.OwnedBy(actor.UserID) {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *service) UpdateNotes(ctx context.Context, actor access.Principal, id uuid.UUID, notes string) (*Order, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	value, err := cleanNotes(notes)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdateNotes(ctx, id, value)
	if err != nil {
		return nil, err
	}
	updated.Items = current.Items
	return updated, nil
}

func (s *service) SafeDelete(ctx context.Context, actor access.Principal, id uuid.UUID) error {
	if access.Resolve([]access.Role{access.RoleAdmin}, actor.Role) != access.Granted {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.recorder.Log(ctx, audit.Event{
		UserID:      &actor.UserID,
		Action:      audit.ActionOrderDeleted,
		Description: "order " + id.String(),
	})
	return nil
}

func (s *service) Invoice(ctx context.Context, actor access.Principal, id uuid.UUID) (*Invoice, error) {
	o, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return BuildInvoice(o), nil
}

func (s *service) CountByStatus(ctx context.Context, actor access.Principal) (map[Status]int, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	return s.repo.CountByStatus(ctx)
}

// cleanNotes trims notes and maps blank ones to NULL.
func cleanNotes(notes string) (*string, error) {
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > maxNotesLen {
		return nil, ErrNotesTooLong
	}
	if notes == "" {
		return nil, nil
	}
	return utils.StrPtr(notes), nil
}

// BuildInvoice renders the invoice document for an order.
func BuildInvoice(o *Order) *Invoice {
	inv := &Invoice{
		Number:       o.InvoiceNumber,
		OrderID:      o.ID,
		CustomerName: o.CustomerName,
		IssuedAt:     o.CreatedAt,
		Status:       o.Status.Label(),
		Lines:        make([]InvoiceLine, 0, len(o.Items)),
		Total:        o.Total,
	}
	for _, it := range o.Items {
		inv.Lines = append(inv.Lines, InvoiceLine{
			Description: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.LineTotal,
		})
	}
	return inv
}

// IsConflict reports whether err means the caller should re-fetch and retry.
func IsConflict(err error) bool {
	return errors.Is(err, ErrStatusConflict)
}

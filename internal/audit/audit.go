// Package audit records security-relevant actions. Recording is fire-and-forget:
// callers never wait on it and never see its failures.
package audit

import (
	"context"
	"sync"
	"time"

	"restobar-be/internal/logger"
	"restobar-be/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ActionSignIn       = "sign_in"
	ActionSignInFailed = "sign_in_failed"
	ActionSignOut      = "sign_out"
	ActionRegister     = "register"
	ActionRoleChange   = "role_change"
	ActionOrderCreated = "order_created"
	ActionOrderDeleted = "order_deleted"
)

type Event struct {
	UserID      *uuid.UUID
	Action      string
	Description string
	CreatedAt   time.Time
}

// Recorder is what services depend on.
type Recorder interface {
	Log(ctx context.Context, e Event)
}

type nop struct{}

func (nop) Log(context.Context, Event) {}

// Nop discards every event.
func Nop() Recorder { return nop{} }

type Logger struct {
	repo    Repository
	queue   chan Event
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	written *metrics.Counter
	failed  *metrics.Counter
	dropped *metrics.Counter
}

func NewLogger(repo Repository, buffer int, counters *metrics.Set) *Logger {
	if buffer <= 0 {
		buffer = 256
	}
	if counters == nil {
		counters = metrics.NewSet()
	}

	l := &Logger{
		repo:    repo,
		queue:   make(chan Event, buffer),
		timeout: 5 * time.Second,
		written: counters.Counter("audit_written"),
		failed:  counters.Counter("audit_failed"),
		dropped: counters.Counter("audit_dropped"),
	}

	l.wg.Add(1)
	go l.run()
	return l
}

// Log enqueues the event and returns immediately.
func (l *Logger) Log(ctx context.Context, e Event) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		l.dropped.Inc()
		return
	}

	select {
	case l.queue <- e:
	default:
		l.dropped.Inc()
		logger.FromCtx(ctx).Warn("audit queue full, event dropped",
			zap.String("layer", "audit"),
			zap.String("action", e.Action),
		)
	}
}

func (l *Logger) run() {
	defer l.wg.Done()

	for e := range l.queue {
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		err := l.repo.Insert(ctx, e)
		cancel()

		if err != nil {
			l.failed.Inc()
			logger.L().Warn("failed to record security event",
				zap.String("layer", "audit"),
				zap.String("action", e.Action),
				zap.Error(err),
			)
			continue
		}
		l.written.Inc()
	}
}

// Close stops accepting events and waits for the queue to drain.
func (l *Logger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()

	l.wg.Wait()
	return nil
}

package realtime

import (
	"context"

	"restobar-be/internal/logger"

	"go.uber.org/zap"
)

// Watch runs fetch once, then again after every event on sub, until ctx ends
// or the subscription closes. Events that queue up while a fetch runs collapse
// into a single re-fetch. A failed fetch is logged and the watch continues.
func Watch(ctx context.Context, sub *Subscription, fetch func(context.Context) error) error {
	log := logger.FromCtx(ctx).With(zap.String("layer", "realtime"))

	run := func() {
		if err := fetch(ctx); err != nil && ctx.Err() == nil {
			log.Warn("re-fetch failed", zap.Error(err))
		}
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if !drain(sub) {
				return nil
			}
			run()
		}
	}
}

// drain discards already-queued events. It reports false once the
// subscription is closed.
func drain(sub *Subscription) bool {
	for {
		select {
		case _, ok := <-sub.Events():
			if !ok {
				return false
			}
		default:
			return true
		}
	}
}

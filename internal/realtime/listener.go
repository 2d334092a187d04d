package realtime

import (
	"context"
	"time"

	"restobar-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const pingInterval = 90 * time.Second

// PGListener turns Postgres notifications into broker events.
type PGListener struct {
	listener *pq.Listener
	broker   *Broker
}

func NewPGListener(dsn string, broker *Broker) (*PGListener, error) {
	log := logger.L().With(zap.String("layer", "realtime"))

	l := pq.NewListener(dsn, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			log.Info("listener connected")
		case pq.ListenerEventDisconnected:
			log.Warn("listener disconnected", zap.Error(err))
		case pq.ListenerEventReconnected:
			log.Info("listener reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			log.Warn("listener connection attempt failed", zap.Error(err))
		}
	})
	if err := l.Listen(Channel); err != nil {
		l.Close()
		return nil, err
	}
	return &PGListener{listener: l, broker: broker}, nil
}

// Run forwards notifications until ctx is done.
func (p *PGListener) Run(ctx context.Context) error {
	return forward(ctx, p.listener.Notify, p.listener.Ping, p.broker)
}

func (p *PGListener) Close() error {
	return p.listener.Close()
}

// forward publishes every notification. A nil notification is what pq sends
// after a reconnect, when anything may have been missed, so it becomes a resync.
func forward(ctx context.Context, notify <-chan *pq.Notification, ping func() error, broker *Broker) error {
	log := logger.L().With(zap.String("layer", "realtime"))
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case n, ok := <-notify:
			if !ok {
				return nil
			}
			if n == nil {
				log.Info("notification stream resumed, requesting resync")
				broker.Publish(ResyncEvent())
				continue
			}
			e, err := decodeNotification(n)
			if err != nil {
				log.Warn("ignoring malformed notification", zap.Error(err))
				continue
			}
			broker.Publish(e)

		case <-ticker.C:
			go func() {
				if err := ping(); err != nil {
					log.Warn("listener ping failed", zap.Error(err))
				}
			}()
		}
	}
}

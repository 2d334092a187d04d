package dashboard

import (
	"context"
	"net/http"
	"time"

	"restobar-be/internal/access"
	"restobar-be/internal/logger"
	"restobar-be/internal/realtime"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// NewUpgrader accepts same-origin requests and the configured frontend origin.
func NewUpgrader(allowedOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == allowedOrigin || origin == "http://"+r.Host || origin == "https://"+r.Host
		},
	}
}

// ServeWS streams a fresh snapshot to the caller after every relevant change.
// It stops re-fetching as soon as the socket goes away.
func (f *Feed) ServeWS(upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := access.PrincipalFrom(r.Context())
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if _, err := ViewFor(p); err != nil {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		log := logger.FromCtx(r.Context()).With(zap.String("layer", "dashboard"))

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("ws upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
		defer cancel()

		sub := f.broker.Subscribe(FilterFor(p), realtime.TableOrders, realtime.TableOrderItems)
		defer sub.Close()

		// The client never sends anything meaningful; reading only detects close.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		err = realtime.Watch(ctx, sub, func(ctx context.Context) error {
			d, err := f.Snapshot(ctx, p)
			if err != nil {
				return err
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(d); err != nil {
				cancel()
				return err
			}
			return nil
		})
		log.Debug("ws feed closed", zap.Error(err))
	}
}

// Package wavehub routes realtime events to the websocket connections this
// server instance holds, one channel per account. Events originate from the
// wave engine on any instance and arrive through the Redis fan-out stream.
package wavehub

import (
	"context"
	"time"

	"echogo/backend/internal/config"
	"echogo/backend/internal/storage"

	"go.uber.org/zap"
)

// presenceRefreshInterval paces the keepalive on TTL'd presence keys.
// Variable so tests can tighten it.
var presenceRefreshInterval = config.PresenceRefreshInterval

// Hub owns the per-account connection table. All map access happens on the
// Run goroutine; handlers talk to it through the register channels.
type Hub struct {
	RegisterCh   chan Client
	UnregisterCh chan Client

	clients map[string]Client
	store   storage.Storage
	log     *zap.Logger
}

func New(store storage.Storage, log *zap.Logger) *Hub {
	return &Hub{
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		clients:      make(map[string]Client),
		store:        store,
		log:          log,
	}
}

// Run is the hub dispatcher. It consumes registrations and the fan-out
// stream until ctx is cancelled, refreshing presence keys for every held
// connection so their TTL outlives the connection but not a crash.
func (h *Hub) Run(ctx context.Context) {
	events := h.store.EventStream(ctx)
	refresh := time.NewTicker(presenceRefreshInterval)
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			for _, c := range h.clients {
				c.Close()
			}
			return

		case c := <-h.RegisterCh:
			// A reconnect replaces the previous socket for the account.
			if old, ok := h.clients[c.GetUserID()]; ok {
				old.Close()
			}
			h.clients[c.GetUserID()] = c
			if err := h.store.SetOnline(ctx, c.GetUserID()); err != nil {
				h.log.Warn("presence set failed", zap.Error(err))
			}
			c.Run()

		case c := <-h.UnregisterCh:
			if cur, ok := h.clients[c.GetUserID()]; ok && cur == c {
				delete(h.clients, c.GetUserID())
				if err := h.store.SetOffline(ctx, c.GetUserID()); err != nil {
					h.log.Warn("presence clear failed", zap.Error(err))
				}
				cur.Close()
			}

		case <-refresh.C:
			for userID := range h.clients {
				if err := h.store.SetOnline(ctx, userID); err != nil {
					h.log.Warn("presence refresh failed", zap.Error(err))
				}
			}

		case ev, ok := <-events:
			if !ok {
				return
			}
			c, here := h.clients[ev.UserID]
			if !here {
				continue
			}
			select {
			case c.GetSendChannel() <- ev.Event:
			default:
				// Writer is wedged; drop the socket, the client reconnects.
				h.log.Warn("evicting slow client", zap.String("user", ev.UserID))
				delete(h.clients, ev.UserID)
				if err := h.store.SetOffline(ctx, ev.UserID); err != nil {
					h.log.Warn("presence clear failed", zap.Error(err))
				}
				c.Close()
			}
		}
	}
}

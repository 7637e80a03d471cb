package relay

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"echogo/backend/internal/models"
)

const (
	reconnectBase = time.Second
	reconnectMax  = 30 * time.Second
)

// Listener maintains the realtime websocket connection and feeds events
// to a handler, reconnecting with backoff until the context is done.
type Listener struct {
	client *Client
	log    *zap.Logger
	handle func(models.Event)
}

func NewListener(client *Client, log *zap.Logger, handle func(models.Event)) *Listener {
	return &Listener{client: client, log: log, handle: handle}
}

// Run blocks, dialing and re-dialing the event channel until ctx is
// cancelled. Call it on its own goroutine.
func (l *Listener) Run(ctx context.Context) {
	delay := reconnectBase
	for {
		started := time.Now()
		err := l.connectAndRead(ctx)
		if time.Since(started) > reconnectMax {
			// The connection held for a while; start backoff over.
			delay = reconnectBase
		}
		if err != nil && ctx.Err() == nil {
			l.log.Warn("realtime channel lost, reconnecting",
				zap.Duration("in", delay), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > reconnectMax {
			delay = reconnectMax
		}
	}
}

func (l *Listener) connectAndRead(ctx context.Context) error {
	if err := l.client.EnsureSession(ctx); err != nil {
		return err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, l.wsURL(), nil)
	if err != nil {
		// An expired session surfaces here as a 401 on the upgrade.
		// Drop it so the next attempt re-authenticates.
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			l.client.mu.Lock()
			l.client.session = ""
			l.client.mu.Unlock()
		}
		return err
	}
	defer conn.Close()
	l.log.Info("realtime channel connected")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var ev models.Event
		if err := conn.ReadJSON(&ev); err != nil {
			return err
		}
		l.handle(ev)
	}
}

func (l *Listener) wsURL() string {
	base := l.client.base
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws?token=" + l.client.SessionToken()
}

// Package identity keeps the device's ephemeral token fresh: it fetches
// a token on start, refreshes it ahead of expiry, and retries with
// backoff when the server is unreachable.
package identity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"echogo/backend/internal/config"
)

// Token is one issued ephemeral identity.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token is usable at the given instant.
func (t Token) Valid(now time.Time) bool {
	return t.Value != "" && t.ExpiresAt.After(now)
}

// TokenSource issues new ephemeral tokens. The relay client implements
// this against the server's token endpoint.
type TokenSource interface {
	IssueToken(ctx context.Context) (Token, error)
}

// Rotator drives the refresh cycle. Every scheduled continuation carries
// the epoch it was armed under and no-ops if a later Start or Stop has
// moved the epoch on, so a stopped rotator never fires a stray fetch.
type Rotator struct {
	source   TokenSource
	log      *zap.Logger
	onRotate func(Token)
	now      func() time.Time

	mu      sync.Mutex
	epoch   int
	running bool
	current Token
}

// NewRotator builds a rotator. onRotate is invoked after every
// successful fetch with the fresh token; wire it to the proximity
// engine and to invalidation of token-scoped UI state. It may be nil.
func NewRotator(source TokenSource, log *zap.Logger, onRotate func(Token)) *Rotator {
	return &Rotator{
		source:   source,
		log:      log,
		onRotate: onRotate,
		now:      time.Now,
	}
}

// Current returns the most recently issued token, possibly expired.
func (r *Rotator) Current() Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Start begins the refresh cycle. If no valid token is held the first
// fetch happens immediately; otherwise it is scheduled for the usual
// pre-expiry buffer.
func (r *Rotator) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.epoch++
	r.scheduleLocked(r.epoch, r.refreshDelayLocked())
}

// Stop halts the cycle. Idempotent.
func (r *Rotator) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.running = false
	r.epoch++
}

func (r *Rotator) refreshDelayLocked() time.Duration {
	if !r.current.Valid(r.now()) {
		return 0
	}
	d := r.current.ExpiresAt.Sub(r.now()) - config.TokenRefreshBuffer
	if d < 0 {
		d = 0
	}
	return d
}

func (r *Rotator) scheduleLocked(epoch int, delay time.Duration) {
	time.AfterFunc(delay, func() {
		r.refresh(epoch, 0)
	})
}

func (r *Rotator) refresh(epoch, attempt int) {
	r.mu.Lock()
	if epoch != r.epoch || !r.running {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	tok, err := r.source.IssueToken(ctx)
	cancel()

	r.mu.Lock()
	if epoch != r.epoch || !r.running {
		r.mu.Unlock()
		return
	}
	if err != nil {
		delay := retryDelay(attempt)
		r.log.Warn("token refresh failed",
			zap.Int("attempt", attempt+1),
			zap.Duration("retry_in", delay),
			zap.Error(err))
		time.AfterFunc(delay, func() {
			r.refresh(epoch, attempt+1)
		})
		r.mu.Unlock()
		return
	}

	r.current = tok
	r.scheduleLocked(epoch, r.refreshDelayLocked())
	onRotate := r.onRotate
	r.mu.Unlock()

	r.log.Info("ephemeral token rotated", zap.Time("expires_at", tok.ExpiresAt))
	if onRotate != nil {
		onRotate(tok)
	}
}

// retryDelay doubles from the base each attempt up to the cap:
// 30s, 1m, 2m, 4m, then 5m forever.
func retryDelay(attempt int) time.Duration {
	d := config.TokenRetryBaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= config.TokenRetryMaxDelay {
			return config.TokenRetryMaxDelay
		}
	}
	if d > config.TokenRetryMaxDelay {
		d = config.TokenRetryMaxDelay
	}
	return d
}

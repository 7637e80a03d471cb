package proximity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"echogo/backend/internal/errs"
	"echogo/backend/internal/radio"
)

// Engine runs the discovery loop: continuous advertising of the current
// ephemeral token plus a duty-cycled scan that feeds the peer table.
// Construct one per process and pass it by reference; it owns its
// adapter for the duration of Start..Stop.
type Engine struct {
	adapter radio.Adapter
	log     *zap.Logger
	table   *peerTable
	onError func(error)
	now     func() time.Time

	mu          sync.Mutex
	running     bool
	scanning    bool
	advertising bool
	gen         int
	scanGen     int
	token       string
	tokenExpiry time.Time
	cancelState func()
	lastRead    map[string]time.Time
}

// NewEngine builds an engine over the adapter. onPeers receives coalesced
// peer-table snapshots; onError receives recoverable radio failures. Both
// may be nil.
func NewEngine(adapter radio.Adapter, log *zap.Logger, onPeers func([]Peer), onError func(error)) *Engine {
	return &Engine{
		adapter:  adapter,
		log:      log,
		table:    newPeerTable(onPeers),
		onError:  onError,
		now:      time.Now,
		lastRead: make(map[string]time.Time),
	}
}

// RotateToken swaps the broadcast token. While running, the live
// advertisement payload is updated in place without disturbing an active
// scan window; while stopped, the token is simply held for the next
// Start. An expired token halts advertising until a fresh rotation
// arrives, so the radio never carries a value peers can no longer
// resolve.
func (e *Engine) RotateToken(token string, expiresAt time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.token = token
	e.tokenExpiry = expiresAt
	if !e.running || e.adapter.State() != radio.StatePoweredOn {
		return
	}
	if !e.tokenExpiry.After(e.now()) {
		e.stopAdvertisingLocked()
		return
	}
	e.assertAdvertisingLocked()
}

// Peers returns the current peer table ordered by first sighting.
func (e *Engine) Peers() []Peer {
	return e.table.Snapshot()
}

// Start begins advertising and scanning. It requires a usable radio and
// a non-expired token; otherwise it returns ErrNotReady and the caller
// retries after fixing the precondition.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}
	if !e.adapter.Supported() {
		return fmt.Errorf("%w: radio unsupported on this platform", errs.ErrNotReady)
	}
	if e.adapter.State() != radio.StatePoweredOn {
		return fmt.Errorf("%w: radio state %s", errs.ErrNotReady, e.adapter.State())
	}
	if e.token == "" || !e.tokenExpiry.After(e.now()) {
		return fmt.Errorf("%w: no valid ephemeral token", errs.ErrNotReady)
	}

	e.running = true
	e.gen++
	e.cancelState = e.adapter.OnStateChange(e.handleRadioState)

	e.assertAdvertisingLocked()
	e.startScanWindowLocked()
	e.schedulePruneLocked(e.gen)
	e.log.Info("proximity engine started")
	return nil
}

// Stop halts broadcast and scanning. Safe to call repeatedly.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	e.gen++
	e.scanGen++
	if e.cancelState != nil {
		e.cancelState()
		e.cancelState = nil
	}
	e.stopScanLocked()
	e.stopAdvertisingLocked()
	e.table.Clear()
	e.log.Info("proximity engine stopped")
}

// Foregrounded restarts the scan cycle immediately, skipping any pending
// pause, so peers reappear quickly when the app returns to the screen.
// If the token expired while backgrounded, advertising stays down until
// the next rotation delivers a fresh value; scanning resumes regardless.
func (e *Engine) Foregrounded() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || e.adapter.State() != radio.StatePoweredOn {
		return
	}
	if !e.tokenExpiry.After(e.now()) {
		e.stopAdvertisingLocked()
	} else {
		e.assertAdvertisingLocked()
	}
	e.scanGen++
	e.stopScanLocked()
	e.startScanWindowLocked()
}

func (e *Engine) handleRadioState(s radio.State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	switch s {
	case radio.StatePoweredOff:
		// Advertising dies with the radio; just park the scan cycle.
		// The running flag stays set so power-on resumes everything.
		e.advertising = false
		e.scanGen++
		e.stopScanLocked()
		e.log.Info("radio powered off, scan cycle paused")
	case radio.StatePoweredOn:
		// Re-assert only a token that is still live; an expired one
		// waits for the next rotation while scanning resumes.
		e.advertising = false
		if e.tokenExpiry.After(e.now()) {
			e.assertAdvertisingLocked()
		}
		e.scanGen++
		e.startScanWindowLocked()
		e.log.Info("radio powered on, scan cycle resumed")
	}
}

// startScanWindowLocked opens a scan window and schedules its close.
// Callers hold e.mu.
func (e *Engine) startScanWindowLocked() {
	g := e.scanGen
	if err := e.adapter.StartScan(e.observationHandler(e.gen)); err != nil {
		e.stopScanLocked()
		e.reportError(fmt.Errorf("%w: scan failed: %v", errs.ErrRadio, err))
		return
	}
	e.scanning = true
	time.AfterFunc(ScanWindow, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if g != e.scanGen || !e.running {
			return
		}
		e.stopScanLocked()
		time.AfterFunc(ScanPause, func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if g != e.scanGen || !e.running {
				return
			}
			e.startScanWindowLocked()
		})
	})
}

// assertAdvertisingLocked brings the broadcast in line with the current
// token: a live advertisement gets its payload swapped in place, a
// stopped one is restarted. Callers hold e.mu and have checked the
// token is unexpired.
func (e *Engine) assertAdvertisingLocked() {
	payload := EncodePayload(e.token)
	if e.advertising {
		if err := e.adapter.UpdatePayload(payload); err != nil {
			// Retried on the next resume or rotation.
			e.log.Warn("advertising payload update failed", zap.Error(err))
		}
		return
	}
	if err := e.adapter.StartAdvertising(payload); err != nil {
		e.log.Warn("start advertising failed", zap.Error(err))
		return
	}
	e.advertising = true
}

func (e *Engine) stopAdvertisingLocked() {
	if !e.advertising {
		return
	}
	e.advertising = false
	if err := e.adapter.StopAdvertising(); err != nil {
		e.log.Warn("stop advertising failed", zap.Error(err))
	}
}

func (e *Engine) stopScanLocked() {
	if !e.scanning {
		return
	}
	e.scanning = false
	if err := e.adapter.StopScan(); err != nil {
		e.log.Warn("stop scan failed", zap.Error(err))
	}
}

func (e *Engine) schedulePruneLocked(g int) {
	time.AfterFunc(PruneInterval, func() {
		e.mu.Lock()
		if g != e.gen || !e.running {
			e.mu.Unlock()
			return
		}
		e.schedulePruneLocked(g)
		e.mu.Unlock()
		e.table.PruneStale(e.now())
	})
}

// observationHandler processes scan results for one engine generation.
// Stale generations drop everything so a stopped engine never mutates
// the table from a lagging radio callback.
func (e *Engine) observationHandler(g int) radio.ScanHandler {
	return func(obs radio.Observation) {
		e.mu.Lock()
		live := g == e.gen && e.running
		e.mu.Unlock()
		if !live {
			return
		}
		if obs.Payload == "" {
			e.readPayloadFallback(g, obs)
			return
		}
		token, ok := ExtractToken(obs.Payload)
		if !ok {
			return
		}
		e.table.Upsert(token, obs.PeerID, obs.RSSI, e.now())
	}
}

// readPayloadFallback handles observations whose advertisement arrived
// without a payload (backgrounded iOS peers strip the local name). It
// connects and reads the payload directly, at most once per peer per
// cooldown.
func (e *Engine) readPayloadFallback(g int, obs radio.Observation) {
	e.mu.Lock()
	now := e.now()
	if last, ok := e.lastRead[obs.PeerID]; ok && now.Sub(last) < ReadCooldown {
		e.mu.Unlock()
		return
	}
	e.lastRead[obs.PeerID] = now
	e.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), ConnectTimeout)
		defer cancel()
		payload, err := e.adapter.ReadPayload(ctx, obs.PeerID)
		if err != nil {
			e.log.Debug("payload read fallback failed",
				zap.String("peer", obs.PeerID), zap.Error(err))
			return
		}
		e.mu.Lock()
		live := g == e.gen && e.running
		e.mu.Unlock()
		if !live {
			return
		}
		token, ok := ExtractToken(payload)
		if !ok {
			return
		}
		e.table.Upsert(token, obs.PeerID, obs.RSSI, e.now())
	}()
}

func (e *Engine) reportError(err error) {
	e.log.Error("proximity engine error", zap.Error(err))
	if e.onError != nil {
		// Dispatched off the lock so the callback may call back into
		// the engine.
		go e.onError(err)
	}
}

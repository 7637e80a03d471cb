package radio

import (
	"context"
	"fmt"
	"sync"
)

// SimBus is an in-memory radio medium connecting SimAdapters. Tests and
// the simulation harness use it in place of a platform driver: every
// advertising adapter is visible to every scanning adapter, with a
// configurable per-link RSSI.
type SimBus struct {
	mu       sync.Mutex
	adapters map[string]*SimAdapter
	rssi     map[[2]string]int
}

func NewSimBus() *SimBus {
	return &SimBus{
		adapters: make(map[string]*SimAdapter),
		rssi:     make(map[[2]string]int),
	}
}

// Adapter creates a powered-on adapter attached to the bus under the
// given radio id.
func (b *SimBus) Adapter(id string) *SimAdapter {
	b.mu.Lock()
	defer b.mu.Unlock()
	a := &SimAdapter{
		bus:   b,
		id:    id,
		state: StatePoweredOn,
	}
	b.adapters[id] = a
	return a
}

// SetRSSI fixes the signal strength both directions between two adapters.
func (b *SimBus) SetRSSI(idA, idB string, rssi int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rssi[[2]string{idA, idB}] = rssi
	b.rssi[[2]string{idB, idA}] = rssi
}

func (b *SimBus) linkRSSI(from, to string) int {
	if v, ok := b.rssi[[2]string{from, to}]; ok {
		return v
	}
	return -60
}

// Tick redelivers every active advertisement to every active scanner,
// simulating one round of radio traffic.
func (b *SimBus) Tick() {
	b.mu.Lock()
	type delivery struct {
		h   ScanHandler
		obs Observation
	}
	var out []delivery
	for _, rx := range b.adapters {
		rx.mu.Lock()
		h := rx.scanHandler
		rxOn := rx.state == StatePoweredOn
		rx.mu.Unlock()
		if h == nil || !rxOn {
			continue
		}
		for _, tx := range b.adapters {
			if tx == rx {
				continue
			}
			tx.mu.Lock()
			payload := tx.payload
			visible := tx.advertising && tx.state == StatePoweredOn
			suppressed := tx.suppressName
			tx.mu.Unlock()
			if !visible {
				continue
			}
			if suppressed {
				payload = ""
			}
			out = append(out, delivery{h, Observation{
				PeerID:  tx.id,
				Payload: payload,
				RSSI:    b.linkRSSI(tx.id, rx.id),
			}})
		}
	}
	b.mu.Unlock()

	for _, d := range out {
		d.h(d.obs)
	}
}

// SimAdapter implements Adapter on a SimBus.
type SimAdapter struct {
	bus *SimBus
	id  string

	mu           sync.Mutex
	state        State
	advertising  bool
	payload      string
	suppressName bool
	scanHandler  ScanHandler
	listeners    map[int]func(State)
	nextListener int
}

func (a *SimAdapter) Supported() bool { return true }

func (a *SimAdapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// SetPowered flips the adapter on or off and notifies state listeners,
// simulating the user toggling the radio.
func (a *SimAdapter) SetPowered(on bool) {
	a.mu.Lock()
	if on {
		a.state = StatePoweredOn
	} else {
		// The radio stack drops the advertisement and scan when it dies;
		// clients must re-assert both on the next power-on.
		a.state = StatePoweredOff
		a.advertising = false
		a.scanHandler = nil
	}
	state := a.state
	fns := make([]func(State), 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// SuppressName makes future advertisements arrive without a payload,
// simulating the platform stripping the local name in background mode.
func (a *SimAdapter) SuppressName(on bool) {
	a.mu.Lock()
	a.suppressName = on
	a.mu.Unlock()
}

func (a *SimAdapter) OnStateChange(fn func(State)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listeners == nil {
		a.listeners = make(map[int]func(State))
	}
	id := a.nextListener
	a.nextListener++
	a.listeners[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.listeners, id)
	}
}

func (a *SimAdapter) StartAdvertising(payload string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StatePoweredOn {
		return fmt.Errorf("radio: adapter %s: cannot advertise in state %s", a.id, a.state)
	}
	a.advertising = true
	a.payload = payload
	return nil
}

func (a *SimAdapter) UpdatePayload(payload string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.advertising {
		return fmt.Errorf("radio: adapter %s: not advertising", a.id)
	}
	a.payload = payload
	return nil
}

func (a *SimAdapter) StopAdvertising() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.advertising = false
	return nil
}

func (a *SimAdapter) StartScan(h ScanHandler) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StatePoweredOn {
		return fmt.Errorf("radio: adapter %s: cannot scan in state %s", a.id, a.state)
	}
	a.scanHandler = h
	return nil
}

func (a *SimAdapter) StopScan() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scanHandler = nil
	return nil
}

// ReadPayload is the connect-and-read fallback: it returns the peer's
// payload even when its name is suppressed.
func (a *SimAdapter) ReadPayload(ctx context.Context, peerID string) (string, error) {
	a.bus.mu.Lock()
	peer, ok := a.bus.adapters[peerID]
	a.bus.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("radio: peer %s not reachable", peerID)
	}
	peer.mu.Lock()
	defer peer.mu.Unlock()
	if !peer.advertising || peer.state != StatePoweredOn {
		return "", fmt.Errorf("radio: peer %s not advertising", peerID)
	}
	return peer.payload, nil
}

package proximity

import (
	"sort"
	"sync"
	"time"
)

// Peer is one nearby token as currently known to the engine.
type Peer struct {
	Token     string
	PeerID    string
	RSSI      int
	Zone      Zone
	FirstSeen time.Time
	LastSeen  time.Time
}

// peerTable holds the live peer set keyed by token. A token observed
// again keeps its FirstSeen so the listing stays stable while someone
// lingers nearby. Change notifications are coalesced so a burst of
// advertisement reports produces one callback, not dozens.
type peerTable struct {
	mu       sync.Mutex
	peers    map[string]*Peer
	onChange func([]Peer)
	pending  bool
}

func newPeerTable(onChange func([]Peer)) *peerTable {
	return &peerTable{
		peers:    make(map[string]*Peer),
		onChange: onChange,
	}
}

// Upsert records an observation of token from peerID. It reports whether
// the table visibly changed (new peer, zone shift, or peer hardware id
// change).
func (t *peerTable) Upsert(token, peerID string, rssi int, now time.Time) {
	t.mu.Lock()
	zone := ZoneForRSSI(rssi)
	p, ok := t.peers[token]
	if !ok {
		t.peers[token] = &Peer{
			Token:     token,
			PeerID:    peerID,
			RSSI:      rssi,
			Zone:      zone,
			FirstSeen: now,
			LastSeen:  now,
		}
		t.scheduleNotifyLocked()
		t.mu.Unlock()
		return
	}
	changed := p.Zone != zone
	p.PeerID = peerID
	p.RSSI = rssi
	p.Zone = zone
	p.LastSeen = now
	if changed {
		t.scheduleNotifyLocked()
	}
	t.mu.Unlock()
}

// Drop removes a single token, notifying if it was present.
func (t *peerTable) Drop(token string) {
	t.mu.Lock()
	if _, ok := t.peers[token]; ok {
		delete(t.peers, token)
		t.scheduleNotifyLocked()
	}
	t.mu.Unlock()
}

// PruneStale removes peers not observed within PeerStaleAfter.
func (t *peerTable) PruneStale(now time.Time) {
	t.mu.Lock()
	removed := false
	for token, p := range t.peers {
		if now.Sub(p.LastSeen) > PeerStaleAfter {
			delete(t.peers, token)
			removed = true
		}
	}
	if removed {
		t.scheduleNotifyLocked()
	}
	t.mu.Unlock()
}

// Clear empties the table, as when the radio powers off.
func (t *peerTable) Clear() {
	t.mu.Lock()
	if len(t.peers) > 0 {
		t.peers = make(map[string]*Peer)
		t.scheduleNotifyLocked()
	}
	t.mu.Unlock()
}

// Snapshot returns the current peers ordered by first sighting.
func (t *peerTable) Snapshot() []Peer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *peerTable) snapshotLocked() []Peer {
	out := make([]Peer, 0, len(t.peers))
	for _, p := range t.peers {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstSeen.Equal(out[j].FirstSeen) {
			return out[i].Token < out[j].Token
		}
		return out[i].FirstSeen.Before(out[j].FirstSeen)
	})
	return out
}

func (t *peerTable) scheduleNotifyLocked() {
	if t.onChange == nil || t.pending {
		return
	}
	t.pending = true
	time.AfterFunc(UpsertCoalesce, func() {
		t.mu.Lock()
		t.pending = false
		snap := t.snapshotLocked()
		fn := t.onChange
		t.mu.Unlock()
		fn(snap)
	})
}

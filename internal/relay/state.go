package relay

import (
	"sort"
	"sync"
	"time"

	"echogo/backend/internal/config"
	"echogo/backend/internal/models"
)

// State is the client's local view: optimistic pending markers for waves
// it has sent, incoming-wave indicators keyed by the waver's token, and
// the match list de-duplicated by match id. All of it is reconciled
// against server replies and realtime events; none of it is durable.
type State struct {
	mu       sync.Mutex
	now      func() time.Time
	pending  map[string]time.Time
	incoming map[string]time.Time
	matches  map[string]models.MatchEvent
}

func NewState() *State {
	return &State{
		now:      time.Now,
		pending:  make(map[string]time.Time),
		incoming: make(map[string]time.Time),
		matches:  make(map[string]models.MatchEvent),
	}
}

// MarkPending places an optimistic marker for a wave toward the token.
func (s *State) MarkPending(targetToken string) {
	s.mu.Lock()
	s.pending[targetToken] = s.now()
	s.mu.Unlock()
}

// ClearPending removes the marker for the token, if any.
func (s *State) ClearPending(targetToken string) {
	s.mu.Lock()
	delete(s.pending, targetToken)
	s.mu.Unlock()
}

// HasPending reports whether a live marker exists for the token. Markers
// age out with the wave lifetime, matching the server's undo window.
func (s *State) HasPending(targetToken string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.pending[targetToken]
	if !ok {
		return false
	}
	if s.now().Sub(at) > config.WaveLifetime {
		delete(s.pending, targetToken)
		return false
	}
	return true
}

// AddIncoming records that the given token's owner waved at us.
func (s *State) AddIncoming(waverToken string) {
	s.mu.Lock()
	s.incoming[waverToken] = s.now()
	s.mu.Unlock()
}

// ClearIncoming drops the indicator for the token, as on wave_undo.
func (s *State) ClearIncoming(waverToken string) {
	s.mu.Lock()
	delete(s.incoming, waverToken)
	s.mu.Unlock()
}

// Incoming returns the tokens with live wave indicators.
func (s *State) Incoming() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.incoming))
	for token := range s.incoming {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

// InvalidateTokenGeneration clears every token-scoped marker. Called on
// ephemeral token rotation: peers no longer recognize the old tokens, so
// markers keyed to them are meaningless.
func (s *State) InvalidateTokenGeneration() {
	s.mu.Lock()
	s.pending = make(map[string]time.Time)
	s.incoming = make(map[string]time.Time)
	s.mu.Unlock()
}

// UpsertMatch adds or refreshes a match. Replayed or duplicate events
// collapse onto the same entry.
func (s *State) UpsertMatch(m models.MatchEvent) {
	if m.MatchID == "" {
		return
	}
	s.mu.Lock()
	s.matches[m.MatchID] = m
	s.mu.Unlock()
}

// RemoveMatch drops the match from the local list.
func (s *State) RemoveMatch(matchID string) {
	s.mu.Lock()
	delete(s.matches, matchID)
	s.mu.Unlock()
}

// Matches returns the local match list, newest first.
func (s *State) Matches() []models.MatchEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MatchEvent, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt == out[j].CreatedAt {
			return out[i].MatchID < out[j].MatchID
		}
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}

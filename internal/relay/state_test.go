package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"echogo/backend/internal/config"
	"echogo/backend/internal/models"
)

// TestStatePendingMarkerLifecycle covers placing, checking, and clearing
// the optimistic wave marker.
func TestStatePendingMarkerLifecycle(t *testing.T) {
	s := NewState()

	assert.False(t, s.HasPending("a1b2c3d4e5f60708"))

	s.MarkPending("a1b2c3d4e5f60708")
	assert.True(t, s.HasPending("a1b2c3d4e5f60708"))

	s.ClearPending("a1b2c3d4e5f60708")
	assert.False(t, s.HasPending("a1b2c3d4e5f60708"))
}

// TestStatePendingMarkerAgesOut verifies markers expire with the wave
// lifetime, matching the server's undo window.
func TestStatePendingMarkerAgesOut(t *testing.T) {
	s := NewState()
	base := time.Now()
	s.now = func() time.Time { return base }

	s.MarkPending("a1b2c3d4e5f60708")

	s.now = func() time.Time { return base.Add(config.WaveLifetime - time.Second) }
	assert.True(t, s.HasPending("a1b2c3d4e5f60708"), "inside the lifetime")

	s.now = func() time.Time { return base.Add(config.WaveLifetime + time.Second) }
	assert.False(t, s.HasPending("a1b2c3d4e5f60708"), "past the lifetime")
}

// TestStateInvalidateTokenGeneration verifies rotation clears every
// token-scoped marker but leaves the match list alone.
func TestStateInvalidateTokenGeneration(t *testing.T) {
	s := NewState()
	s.MarkPending("a1b2c3d4e5f60708")
	s.AddIncoming("0102030405060708")
	s.UpsertMatch(models.MatchEvent{MatchID: "m-1", MatchedUserID: "u-2"})

	s.InvalidateTokenGeneration()

	assert.False(t, s.HasPending("a1b2c3d4e5f60708"))
	assert.Empty(t, s.Incoming())
	assert.Len(t, s.Matches(), 1, "matches are account-scoped, not token-scoped")
}

// TestStateMatchDedup verifies replayed match events collapse onto one
// entry and removal is idempotent.
func TestStateMatchDedup(t *testing.T) {
	s := NewState()

	s.UpsertMatch(models.MatchEvent{MatchID: "m-1", MatchedUserID: "u-2", CreatedAt: "2026-08-30T10:00:00Z"})
	s.UpsertMatch(models.MatchEvent{MatchID: "m-1", MatchedUserID: "u-2", ContactHandle: "@two", CreatedAt: "2026-08-30T10:00:00Z"})
	s.UpsertMatch(models.MatchEvent{MatchID: "m-2", MatchedUserID: "u-3", CreatedAt: "2026-08-30T11:00:00Z"})

	matches := s.Matches()
	assert.Len(t, matches, 2)
	assert.Equal(t, "m-2", matches[0].MatchID, "newest first")
	assert.Equal(t, "@two", matches[1].ContactHandle, "replay refreshed the entry")

	s.RemoveMatch("m-1")
	s.RemoveMatch("m-1")
	assert.Len(t, s.Matches(), 1)
}

// TestStateIncomingIndicators covers the someone-waved indicator set.
func TestStateIncomingIndicators(t *testing.T) {
	s := NewState()

	s.AddIncoming("0102030405060708")
	s.AddIncoming("a1b2c3d4e5f60708")
	assert.Equal(t, []string{"0102030405060708", "a1b2c3d4e5f60708"}, s.Incoming())

	s.ClearIncoming("0102030405060708")
	assert.Equal(t, []string{"a1b2c3d4e5f60708"}, s.Incoming())
}

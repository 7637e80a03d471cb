package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"echogo/backend/internal/models"
)

// TestNormalizePair verifies both orderings of a pair store identically.
func TestNormalizePair(t *testing.T) {
	a, b := models.NormalizePair("bbb", "aaa")
	assert.Equal(t, "aaa", a)
	assert.Equal(t, "bbb", b)

	a, b = models.NormalizePair("aaa", "bbb")
	assert.Equal(t, "aaa", a)
	assert.Equal(t, "bbb", b)
}

// TestMatchInvolvesAndOther covers the participant helpers.
func TestMatchInvolvesAndOther(t *testing.T) {
	m := models.Match{UserA: "aaa", UserB: "bbb"}

	assert.True(t, m.Involves("aaa"))
	assert.True(t, m.Involves("bbb"))
	assert.False(t, m.Involves("ccc"))

	assert.Equal(t, "bbb", m.Other("aaa"))
	assert.Equal(t, "aaa", m.Other("bbb"))
}

// TestEphemeralUsable verifies a token resolves while active or not yet
// expired, and stops resolving once both are gone.
func TestEphemeralUsable(t *testing.T) {
	now := time.Now()

	active := models.EphemeralID{IsActive: true, ExpiresAt: now.Add(-time.Hour)}
	assert.True(t, active.Usable(now), "active overrides expiry")

	graced := models.EphemeralID{IsActive: false, ExpiresAt: now.Add(time.Minute)}
	assert.True(t, graced.Usable(now), "a rotated-out token resolves until expiry")

	dead := models.EphemeralID{IsActive: false, ExpiresAt: now.Add(-time.Minute)}
	assert.False(t, dead.Usable(now))
}

// TestWaveOpen verifies the undo/matching eligibility window.
func TestWaveOpen(t *testing.T) {
	now := time.Now()
	lifetime := 15 * time.Minute

	fresh := models.Wave{CreatedAt: now.Add(-time.Minute)}
	assert.True(t, fresh.Open(now, lifetime))

	consumed := models.Wave{CreatedAt: now.Add(-time.Minute), IsConsumed: true}
	assert.False(t, consumed.Open(now, lifetime), "consumed waves are closed")

	aged := models.Wave{CreatedAt: now.Add(-lifetime - time.Second)}
	assert.False(t, aged.Open(now, lifetime), "past the lifetime")
}

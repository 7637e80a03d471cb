package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Match is a confirmed mutual pair. The pair is stored normalized
// (UserA < UserB lexically) under a composite unique index so concurrent
// reciprocal waves can never insert two rows for the same unordered pair:
// the duplicate insert fails and is treated as already matched.
type Match struct {
	// MatchID is the unique identifier for the match (UUID).
	MatchID string `gorm:"primaryKey" json:"match_id"`
	// UserA is the lexically smaller account id of the pair.
	UserA string `gorm:"type:uuid;not null;uniqueIndex:idx_match_pair" json:"user_a"`
	// UserB is the lexically larger account id of the pair.
	UserB     string    `gorm:"type:uuid;not null;uniqueIndex:idx_match_pair" json:"user_b"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate assigns a UUID and normalizes the pair ordering.
func (m *Match) BeforeCreate(tx *gorm.DB) (err error) {
	if m.MatchID == "" {
		m.MatchID = uuid.New().String()
	}
	m.UserA, m.UserB = NormalizePair(m.UserA, m.UserB)
	return
}

// Involves reports whether the given account participates in the match.
func (m *Match) Involves(userID string) bool {
	return m.UserA == userID || m.UserB == userID
}

// Other returns the counterpart account id for the given participant.
func (m *Match) Other(userID string) string {
	if m.UserA == userID {
		return m.UserB
	}
	return m.UserA
}

// NormalizePair orders two account ids so (a,b) and (b,a) store identically.
func NormalizePair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

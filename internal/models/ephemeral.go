package models

import "time"

// EphemeralID is a short-lived anonymous token broadcast over the radio in
// place of a durable identity. At most one row per account has IsActive=true
// at any time; rows are never mutated after creation except the IsActive flag.
type EphemeralID struct {
	ID uint `gorm:"primaryKey" json:"-"`
	// Token is the 8-byte random value encoded as 16 lowercase hex characters.
	Token string `gorm:"type:char(16);not null;index" json:"token"`
	// UserID is the owning account.
	UserID string `gorm:"type:uuid;not null;index:idx_ephemeral_owner_active" json:"user_id"`
	// IsActive marks the single token the account currently broadcasts.
	IsActive  bool      `gorm:"not null;default:true;index:idx_ephemeral_owner_active" json:"is_active"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Usable reports whether the token may still resolve a wave target:
// either currently active or not yet past its expiry.
func (e *EphemeralID) Usable(now time.Time) bool {
	return e.IsActive || e.ExpiresAt.After(now)
}

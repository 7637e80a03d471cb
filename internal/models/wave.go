package models

import "time"

// Wave records "WaverID expressed interest in whoever held TargetToken".
// The owning account behind the token is resolved once, at creation time,
// and persisted in TargetID so reciprocity survives a token rotation on
// either side. A wave is consumed exactly once, when it participates in
// forming a Match; an unconsumed wave may be deleted by undo within the
// wave lifetime window.
type Wave struct {
	ID uint `gorm:"primaryKey" json:"-"`
	// WaverID is the account that sent the wave.
	WaverID string `gorm:"type:uuid;not null;index:idx_wave_pair" json:"waver_id"`
	// TargetToken is the raw ephemeral token the wave was aimed at.
	TargetToken string `gorm:"type:char(16);not null;index" json:"target_token"`
	// TargetID is the account that owned TargetToken when the wave was created.
	TargetID string `gorm:"type:uuid;not null;index:idx_wave_pair" json:"target_id"`
	// IsConsumed flips to true when the wave forms half of a match.
	IsConsumed bool      `gorm:"not null;default:false" json:"is_consumed"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
}

// Open reports whether the wave can still participate in matching or be
// undone: unconsumed and created within the given lifetime.
func (w *Wave) Open(now time.Time, lifetime time.Duration) bool {
	return !w.IsConsumed && now.Sub(w.CreatedAt) <= lifetime
}

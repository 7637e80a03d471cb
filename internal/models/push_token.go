package models

import "time"

// PushToken is a registered push-notification device token for an account.
// Rows cascade away when the account is deleted.
type PushToken struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	// Token is the platform device token.
	Token string `gorm:"type:text;not null;uniqueIndex" json:"token"`
	// Platform is "ios" or "android".
	Platform  string    `gorm:"type:text;not null" json:"platform"`
	CreatedAt time.Time `json:"created_at"`
}

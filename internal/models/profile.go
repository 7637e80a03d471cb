package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile represents an account in the system. Accounts are anonymous by
// default; ContactHandle is an opt-in public handle revealed only to
// matched counterparts.
type Profile struct {
	// ID is the opaque stable account identifier (UUID).
	ID string `gorm:"primaryKey" json:"id"`
	// IsAnonymous is true until the account claims a public handle.
	IsAnonymous bool `gorm:"not null;default:true" json:"is_anonymous"`
	// ContactHandle is the opt-in handle exchanged on match (may be empty).
	ContactHandle string `gorm:"type:text" json:"contact_handle,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// BeforeCreate is a GORM hook that assigns a fresh UUID when none is set.
func (p *Profile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}

package models

import "time"

// AuthToken is a single-use dashboard login token sent over WhatsApp.
// It is deleted on first verification, valid or not.
type AuthToken struct {
	Base
	Token     string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// Expired reports whether the token is past its expiry at now.
func (t *AuthToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

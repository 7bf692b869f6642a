package model

import (
	"strings"
	"time"
)

// User represents an authenticated user in the system.
type User struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Username      string    `json:"username" gorm:"uniqueIndex;size:150;not null"`
	Email         string    `json:"email" gorm:"uniqueIndex;size:254;not null"`
	PasswordHash  string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	IsActive      bool      `json:"is_active" gorm:"not null;default:true"`
	EmailVerified bool      `json:"email_verified" gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Products []Product `json:"-" gorm:"foreignKey:CreatedByID;constraint:OnDelete:CASCADE"`
}

// NormalizeEmail is the canonical form of an address: trimmed and lowercased.
// Stored emails, lookups and verification codes are all keyed on it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

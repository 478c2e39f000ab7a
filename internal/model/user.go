package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role constants
const (
	RoleGuest = "guest"
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// GuestIDPrefix marks synthetic guest account IDs in the users table.
const GuestIDPrefix = "guest_"

// User is the durable record behind every resolved identity. Guest accounts
// live in the same table with a "guest_<uuid>" ID and no password hash.
type User struct {
	ID           string         `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"type:varchar(255)" json:"-"` // Omit hash from JSON requests/responses
	Role         string         `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	BusinessName string         `gorm:"type:varchar(255)" json:"business_name"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// BeforeCreate assigns a UUID primary key unless the caller already picked a
// synthetic ID (guest accounts). IDs are immutable once created.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsGuestID reports whether id names a guest account. Structural check only,
// no database round-trip.
func IsGuestID(id string) bool {
	return strings.HasPrefix(id, GuestIDPrefix)
}

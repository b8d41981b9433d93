package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile defaults applied to every new account.
const (
	DefaultRole            = "user"
	DefaultMembershipLevel = "MEMBER"
	DefaultWelcomePoints   = 10
)

// Auth providers an account can be created through.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// User represents the canonical identity entity.
type User struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email           string     `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash    *string    `gorm:"column:password_hash"`
	DisplayName     string     `gorm:"column:display_name;not null"`
	Provider        string     `gorm:"column:provider;not null;default:password"`
	Role            string     `gorm:"column:role;not null;default:user"`
	MembershipLevel string     `gorm:"column:membership_level;not null;default:MEMBER"`
	Points          int        `gorm:"column:points;not null;default:10"`
	IsActive        bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt     *time.Time `gorm:"column:last_login_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/perfumichi/storefront/pkg/db/models"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	DisplayName     string     `json:"display_name"`
	Provider        string     `json:"provider"`
	Role            string     `json:"role"`
	MembershipLevel string     `json:"membership_level"`
	Points          int        `json:"points"`
	IsActive        bool       `json:"is_active"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
// The profile fields default for every new account.
type CreateUserDTO struct {
	Email        string
	PasswordHash *string
	DisplayName  string
	Provider     string
}

// ToModel maps the create payload onto the persistence model.
func (d CreateUserDTO) ToModel() *models.User {
	provider := d.Provider
	if provider == "" {
		provider = models.ProviderPassword
	}
	return &models.User{
		Email:           d.Email,
		PasswordHash:    d.PasswordHash,
		DisplayName:     d.DisplayName,
		Provider:        provider,
		Role:            models.DefaultRole,
		MembershipLevel: models.DefaultMembershipLevel,
		Points:          models.DefaultWelcomePoints,
		IsActive:        true,
	}
}

// FromModel maps the persistence model to its transport shape.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:              u.ID,
		Email:           u.Email,
		DisplayName:     u.DisplayName,
		Provider:        u.Provider,
		Role:            u.Role,
		MembershipLevel: u.MembershipLevel,
		Points:          u.Points,
		IsActive:        u.IsActive,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

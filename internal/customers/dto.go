package customers

import (
	"time"

	"github.com/google/uuid"

	"github.com/mdbytes/reads-backend/pkg/db/models"
	"github.com/mdbytes/reads-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Phone         *string    `json:"phone,omitempty"`
	Role          enums.Role `json:"role"`
	CompanyID     *uint      `json:"company_id,omitempty"`
	StreetAddress *string    `json:"street_address,omitempty"`
	City          *string    `json:"city,omitempty"`
	State         *string    `json:"state,omitempty"`
	PostalCode    *string    `json:"postal_code,omitempty"`
	IsActive      bool       `json:"is_active"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	Phone         *string
	Role          enums.Role
	CompanyID     *uint
	StreetAddress *string
	City          *string
	State         *string
	PostalCode    *string
	IsActive      *bool
}

// FromModel converts the persisted user into its transport shape.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Phone:         u.Phone,
		Role:          u.Role,
		CompanyID:     u.CompanyID,
		StreetAddress: u.StreetAddress,
		City:          u.City,
		State:         u.State,
		PostalCode:    u.PostalCode,
		IsActive:      u.IsActive,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// ToModel builds the persistence model, defaulting active accounts on.
func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	return &models.User{
		Email:         c.Email,
		PasswordHash:  c.PasswordHash,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Phone:         c.Phone,
		Role:          c.Role,
		CompanyID:     c.CompanyID,
		StreetAddress: c.StreetAddress,
		City:          c.City,
		State:         c.State,
		PostalCode:    c.PostalCode,
		IsActive:      isActive,
	}
}

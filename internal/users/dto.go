package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
	"github.com/ruacmx/ruac-backend/pkg/types"
)

// UserDTO is the full profile returned to the account holder.
type UserDTO struct {
	ID           uuid.UUID             `json:"id"`
	Email        string                `json:"email"`
	FirstName    string                `json:"firstName"`
	LastName     string                `json:"lastName"`
	Phone        *string               `json:"phone,omitempty"`
	Role         enums.UserRole        `json:"role"`
	City         *string               `json:"city,omitempty"`
	LastLocation *types.GeographyPoint `json:"lastLocation,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
}

// ContactDTO is the reduced identity shared with other users, for example the
// tutor block on a public pet profile.
type ContactDTO struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     *string   `json:"phone,omitempty"`
}

// NearbyUserDTO is a user within range of an alert origin.
type NearbyUserDTO struct {
	UserID     uuid.UUID
	DistanceKm float64
}

// CreateUserDTO captures the fields needed to provision a profile row.
type CreateUserDTO struct {
	Email     string
	FirstName string
	LastName  string
	Phone     *string
	Role      enums.UserRole
	City      *string
}

// ToModel maps the creation payload onto the persistence model.
func (d CreateUserDTO) ToModel() *models.User {
	role := d.Role
	if role == "" {
		role = enums.UserRoleTutor
	}
	return &models.User{
		Email:     d.Email,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Phone:     d.Phone,
		Role:      role,
		City:      d.City,
		IsActive:  true,
	}
}

// FromModel maps a persisted user onto the profile DTO.
func FromModel(user *models.User) *UserDTO {
	if user == nil {
		return nil
	}
	return &UserDTO{
		ID:           user.ID,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Phone:        user.Phone,
		Role:         user.Role,
		City:         user.City,
		LastLocation: user.LastLocation,
		CreatedAt:    user.CreatedAt,
	}
}

// ContactFromModel maps a persisted user onto the shared contact DTO.
func ContactFromModel(user *models.User) *ContactDTO {
	if user == nil {
		return nil
	}
	return &ContactDTO{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
	}
}

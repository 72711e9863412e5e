package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a marketplace user profile.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Location     string    `json:"location,omitempty"`
	ProfileImage string    `json:"profile_image,omitempty"`
	Rating       float64   `json:"rating"`
	RatingCount  int       `json:"rating_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicUser is the subset of a profile visible to other users.
type PublicUser struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Location     string    `json:"location,omitempty"`
	ProfileImage string    `json:"profile_image,omitempty"`
	Rating       float64   `json:"rating"`
	RatingCount  int       `json:"rating_count"`
}

// Public strips the private fields from a profile.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Name:         u.Name,
		Location:     u.Location,
		ProfileImage: u.ProfileImage,
		Rating:       u.Rating,
		RatingCount:  u.RatingCount,
	}
}

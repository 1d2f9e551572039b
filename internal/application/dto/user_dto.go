package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/setuphub/setuphub/internal/domain/models"
)

// UpdateProfileRequest represents a request to update the caller's profile
type UpdateProfileRequest struct {
	Name *string `json:"name"`
}

// ProfileResponse is a public user profile
type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	BannerURL string    `json:"banner_url"`
	CreatedAt time.Time `json:"created_at"`
}

// NewProfileResponse converts a user model; email is left out of public profiles
func NewProfileResponse(u *models.User) ProfileResponse {
	return ProfileResponse{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Image:     u.Image,
		BannerURL: "/api/v1/users/" + u.Username + "/banner",
		CreatedAt: u.CreatedAt,
	}
}

// UserSetupsResponse lists one user's setups
type UserSetupsResponse struct {
	Setups []SetupResponse `json:"setups"`
	Total  int             `json:"total"`
}

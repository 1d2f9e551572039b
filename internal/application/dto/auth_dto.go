package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/setuphub/setuphub/internal/domain/models"
)

// AuthConfigResponse tells the frontend which sign-in options exist
type AuthConfigResponse struct {
	Enabled  bool   `json:"enabled"`
	Provider string `json:"provider,omitempty"`
	LoginURL string `json:"login_url,omitempty"`
}

// UserInfo represents a user in API responses
type UserInfo struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserInfo converts a user model
func NewUserInfo(u *models.User) UserInfo {
	return UserInfo{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Email:     u.Email,
		Image:     u.Image,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// SessionResponse is the resolved identity of the caller
type SessionResponse struct {
	User    UserInfo           `json:"user"`
	Session models.SessionView `json:"session"`
}

// NewSessionResponse converts an auth session
func NewSessionResponse(a *models.AuthSession) SessionResponse {
	return SessionResponse{
		User:    NewUserInfo(a.User),
		Session: a.Session,
	}
}

// CreateTokenRequest represents a request to create a personal access token
type CreateTokenRequest struct {
	Name          string `json:"name" binding:"required,max=255"`
	ExpiresInDays *int   `json:"expires_in_days"`
}

// TokenInfo represents token metadata; the secret is never included
type TokenInfo struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewTokenInfo converts a token model
func NewTokenInfo(t *models.PersonalAccessToken) TokenInfo {
	return TokenInfo{
		ID:         t.ID,
		Name:       t.Name,
		ExpiresAt:  t.ExpiresAt,
		LastUsedAt: t.LastUsedAt,
		CreatedAt:  t.CreatedAt,
	}
}

// TokenResponse wraps the caller's token, or null when none exists
type TokenResponse struct {
	Token *TokenInfo `json:"token"`
}

// CreateTokenResponse is returned on creation and rotation.
// Token holds the plaintext secret and is shown exactly once.
type CreateTokenResponse struct {
	Token     string    `json:"token"`
	Message   string    `json:"message"`
	TokenInfo TokenInfo `json:"token_info"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// MessageResponse represents a generic success response
type MessageResponse struct {
	Message string `json:"message"`
}

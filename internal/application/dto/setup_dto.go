package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/setuphub/setuphub/internal/domain/models"
)

// SyncSetupRequest is the payload pushed by the editor extension
type SyncSetupRequest struct {
	EditorName  string              `json:"editor_name" binding:"required"`
	DisplayName string              `json:"display_name" binding:"required"`
	Description string              `json:"description"`
	Content     models.SetupContent `json:"content"`
}

// UpdateSetupRequest is a partial update; omitted fields are unchanged
type UpdateSetupRequest struct {
	DisplayName *string `json:"display_name"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"is_public"`
}

// SetupOwner is the public part of the owning user
type SetupOwner struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Image    string    `json:"image"`
}

// SetupResponse represents a setup in API responses
type SetupResponse struct {
	ID          uuid.UUID           `json:"id"`
	EditorName  string              `json:"editor_name"`
	DisplayName string              `json:"display_name"`
	Description string              `json:"description"`
	Content     models.SetupContent `json:"content"`
	IsPublic    bool                `json:"is_public"`
	StarCount   int64               `json:"star_count"`
	Owner       *SetupOwner         `json:"owner,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// NewSetupResponse converts a setup model
func NewSetupResponse(s *models.Setup) SetupResponse {
	resp := SetupResponse{
		ID:          s.ID,
		EditorName:  s.EditorName,
		DisplayName: s.DisplayName,
		Description: s.Description,
		Content:     s.Content,
		IsPublic:    s.IsPublic,
		StarCount:   s.StarCount,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.Owner != nil {
		resp.Owner = &SetupOwner{
			ID:       s.Owner.ID,
			Username: s.Owner.Username,
			Name:     s.Owner.Name,
			Image:    s.Owner.Image,
		}
	}
	return resp
}

// NewSetupResponses converts a slice of setups
func NewSetupResponses(setups []*models.Setup) []SetupResponse {
	out := make([]SetupResponse, len(setups))
	for i, s := range setups {
		out[i] = NewSetupResponse(s)
	}
	return out
}

// ListSetupsResponse is one page of setups
type ListSetupsResponse struct {
	Setups []SetupResponse `json:"setups"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// StarResponse is the result of a star toggle
type StarResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	IsStarred *bool  `json:"is_starred,omitempty"`
	StarCount *int64 `json:"star_count,omitempty"`
}

// StarStatusResponse is the viewer's star state
type StarStatusResponse struct {
	IsStarred bool  `json:"is_starred"`
	StarCount int64 `json:"star_count"`
}

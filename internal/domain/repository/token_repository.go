package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/setuphub/setuphub/internal/domain/models"
)

// TokenRepository defines the interface for personal access token data access operations
type TokenRepository interface {
	// Create stores a new token. Fails with a conflict if the user already has one.
	Create(ctx context.Context, token *models.PersonalAccessToken) error

	// FindByID retrieves a token by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*models.PersonalAccessToken, error)

	// FindByHash retrieves a token by the SHA-256 hex digest of its secret
	FindByHash(ctx context.Context, hash string) (*models.PersonalAccessToken, error)

	// FindByUserID retrieves the user's token
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.PersonalAccessToken, error)

	// ExistsForUser reports whether the user already holds a token
	ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error)

	// Rotate replaces the hash and created timestamp of a token in place
	Rotate(ctx context.Context, id uuid.UUID, hash string, createdAt time.Time) error

	// UpdateLastUsed sets last_used_at for a token
	UpdateLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error

	// Delete removes a token by its ID
	Delete(ctx context.Context, id uuid.UUID) error
}

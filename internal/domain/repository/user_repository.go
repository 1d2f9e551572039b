package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/setuphub/setuphub/internal/domain/models"
)

// UserRepository defines the interface for user data access operations
type UserRepository interface {
	// Create creates a new user in the database
	Create(ctx context.Context, user *models.User) error

	// FindByID retrieves a user by their ID
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// FindByUsername retrieves a user by their username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByProviderSubject retrieves a user by identity provider and subject
	FindByProviderSubject(ctx context.Context, provider, subject string) (*models.User, error)

	// Update persists changes to an existing user
	Update(ctx context.Context, user *models.User) error

	// ExistsByUsername checks if a user with the given username exists
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

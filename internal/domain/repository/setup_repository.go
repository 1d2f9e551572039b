package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/setuphub/setuphub/internal/domain/models"
)

// SetupSort orders public listings
type SetupSort string

const (
	SortByStars  SetupSort = "stars"
	SortByRecent SetupSort = "recent"
)

// SetupQuery filters and pages public setups
type SetupQuery struct {
	Search string
	Editor string
	Sort   SetupSort
	Limit  int
	Offset int
}

// SetupRepository defines the interface for setup data access operations
type SetupRepository interface {
	// Upsert inserts the setup or, when (user, editor) already exists, replaces
	// its display name, description and content. Visibility and star count are
	// left untouched on update. Returns the stored row.
	Upsert(ctx context.Context, setup *models.Setup) (*models.Setup, error)

	// FindByID retrieves a setup with its owner
	FindByID(ctx context.Context, id uuid.UUID) (*models.Setup, error)

	// Update applies the given column changes to a setup
	Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) error

	// Delete removes a setup and its stars
	Delete(ctx context.Context, id uuid.UUID) error

	// ListPublic returns a page of public setups and the total match count
	ListPublic(ctx context.Context, q SetupQuery) ([]*models.Setup, int64, error)

	// ListByUser returns a user's setups, optionally including private ones
	ListByUser(ctx context.Context, userID uuid.UUID, includePrivate bool) ([]*models.Setup, error)
}

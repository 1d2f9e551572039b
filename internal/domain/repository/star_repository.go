package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/setuphub/setuphub/internal/domain/models"
)

// StarRepository owns the setup_stars relation and the denormalized
// setups.star_count column.
type StarRepository interface {
	// Toggle flips the user's star on a setup and adjusts the counter with a
	// relative update floored at zero. Returns the new state and count.
	// Fails with NotFound when the setup does not exist.
	Toggle(ctx context.Context, userID, setupID uuid.UUID) (starred bool, count int64, err error)

	// IsStarred reports whether the user has starred the setup
	IsStarred(ctx context.Context, userID, setupID uuid.UUID) (bool, error)

	// ListStarred returns the setups a user starred, most recent star first
	ListStarred(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Setup, error)

	// ReconcileCounts rewrites every drifted star_count from the relation and
	// returns how many setups were corrected
	ReconcileCounts(ctx context.Context) (int64, error)
}

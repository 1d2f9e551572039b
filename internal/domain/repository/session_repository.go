package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/setuphub/setuphub/internal/domain/models"
)

// SessionRepository defines the interface for browser session storage
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error

	// FindByID retrieves a session with its user
	FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error)

	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteExpired removes sessions that expired before the given time
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

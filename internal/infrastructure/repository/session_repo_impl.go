package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/setuphub/setuphub/internal/domain/models"
	"github.com/setuphub/setuphub/internal/domain/repository"
	apperror "github.com/setuphub/setuphub/pkg/errors"
)

// SessionRepoImpl implements the SessionRepository interface using GORM
type SessionRepoImpl struct {
	db *gorm.DB
}

// NewSessionRepository creates a new SessionRepoImpl instance
func NewSessionRepository(db *gorm.DB) repository.SessionRepository {
	return &SessionRepoImpl{db: db}
}

// Create inserts a new session row
func (r *SessionRepoImpl) Create(ctx context.Context, session *models.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return apperror.DatabaseError("create session", err)
	}
	return nil
}

// FindByID retrieves a session with its user
func (r *SessionRepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("session", apperror.ErrNotFound)
		}
		return nil, apperror.DatabaseError("find session", err)
	}
	return &session, nil
}

// Delete removes a session; deleting an unknown id is not an error
func (r *SessionRepoImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{}).Error; err != nil {
		return apperror.DatabaseError("delete session", err)
	}
	return nil
}

// DeleteExpired removes sessions that expired before the given time
func (r *SessionRepoImpl) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&models.Session{})
	if result.Error != nil {
		return 0, apperror.DatabaseError("delete expired sessions", result.Error)
	}
	return result.RowsAffected, nil
}

// Verify interface compliance at compile time
var _ repository.SessionRepository = (*SessionRepoImpl)(nil)

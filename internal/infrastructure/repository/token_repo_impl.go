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

// TokenRepoImpl implements the TokenRepository interface using GORM
type TokenRepoImpl struct {
	db *gorm.DB
}

// NewTokenRepository creates a new TokenRepoImpl instance
func NewTokenRepository(db *gorm.DB) repository.TokenRepository {
	return &TokenRepoImpl{db: db}
}

// Create stores a new token. The unique index on user_id backs the
// one-token-per-user rule even when two creates race.
func (r *TokenRepoImpl) Create(ctx context.Context, token *models.PersonalAccessToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		if isDuplicate(err) {
			return apperror.Conflict("a token already exists for this user", apperror.ErrTokenExists)
		}
		return apperror.DatabaseError("create token", err)
	}
	return nil
}

// FindByID retrieves a token by its ID
func (r *TokenRepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.PersonalAccessToken, error) {
	return r.findOne(ctx, "find token by id", "id = ?", id)
}

// FindByHash retrieves a token by the hex digest of its secret
func (r *TokenRepoImpl) FindByHash(ctx context.Context, hash string) (*models.PersonalAccessToken, error) {
	return r.findOne(ctx, "find token by hash", "token_hash = ?", hash)
}

// FindByUserID retrieves the user's token
func (r *TokenRepoImpl) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.PersonalAccessToken, error) {
	return r.findOne(ctx, "find token by user id", "user_id = ?", userID)
}

func (r *TokenRepoImpl) findOne(ctx context.Context, op, query string, args ...interface{}) (*models.PersonalAccessToken, error) {
	var token models.PersonalAccessToken
	if err := r.db.WithContext(ctx).Where(query, args...).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("token", apperror.ErrNotFound)
		}
		return nil, apperror.DatabaseError(op, err)
	}
	return &token, nil
}

// ExistsForUser reports whether the user already holds a token
func (r *TokenRepoImpl) ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PersonalAccessToken{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, apperror.DatabaseError("count tokens by user id", err)
	}
	return count > 0, nil
}

// Rotate replaces the hash and created timestamp in place and clears last use
func (r *TokenRepoImpl) Rotate(ctx context.Context, id uuid.UUID, hash string, createdAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.PersonalAccessToken{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"token_hash":   hash,
			"created_at":   createdAt,
			"last_used_at": nil,
		})
	if result.Error != nil {
		return apperror.DatabaseError("rotate token", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("token", apperror.ErrNotFound)
	}
	return nil
}

// UpdateLastUsed sets last_used_at for a token
func (r *TokenRepoImpl) UpdateLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.PersonalAccessToken{}).
		Where("id = ?", id).
		UpdateColumn("last_used_at", at)
	if result.Error != nil {
		return apperror.DatabaseError("update token last used", result.Error)
	}
	return nil
}

// Delete removes a token by its ID
func (r *TokenRepoImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PersonalAccessToken{})
	if result.Error != nil {
		return apperror.DatabaseError("delete token", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("token", apperror.ErrNotFound)
	}
	return nil
}

// Verify interface compliance at compile time
var _ repository.TokenRepository = (*TokenRepoImpl)(nil)

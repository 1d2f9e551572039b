package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/setuphub/setuphub/internal/domain/models"
	"github.com/setuphub/setuphub/internal/domain/repository"
	apperror "github.com/setuphub/setuphub/pkg/errors"
)

// UserRepoImpl implements the UserRepository interface using GORM
type UserRepoImpl struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepoImpl instance
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &UserRepoImpl{db: db}
}

// Create creates a new user in the database
func (r *UserRepoImpl) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicate(err) {
			return apperror.Conflict("user already exists", apperror.ErrUserExists)
		}
		return apperror.DatabaseError("create user", err)
	}
	return nil
}

// FindByID retrieves a user by their ID
func (r *UserRepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, "find user by id", "id = ?", id)
}

// FindByUsername retrieves a user by their username
func (r *UserRepoImpl) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "find user by username", "username = ?", username)
}

// FindByProviderSubject retrieves a user by identity provider and subject
func (r *UserRepoImpl) FindByProviderSubject(ctx context.Context, provider, subject string) (*models.User, error) {
	return r.findOne(ctx, "find user by provider subject", "provider = ? AND provider_subject = ?", provider, subject)
}

func (r *UserRepoImpl) findOne(ctx context.Context, op string, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", apperror.ErrNotFound)
		}
		return nil, apperror.DatabaseError(op, err)
	}
	return &user, nil
}

// Update persists changes to an existing user
func (r *UserRepoImpl) Update(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).Save(user)
	if result.Error != nil {
		if isDuplicate(result.Error) {
			return apperror.Conflict("username already exists", apperror.ErrUserExists)
		}
		return apperror.DatabaseError("update user", result.Error)
	}
	return nil
}

// ExistsByUsername checks if a user with the given username exists
func (r *UserRepoImpl) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, apperror.DatabaseError("check user exists by username", err)
	}
	return count > 0, nil
}

// Verify interface compliance at compile time
var _ repository.UserRepository = (*UserRepoImpl)(nil)

package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/setuphub/setuphub/internal/domain/models"
	"github.com/setuphub/setuphub/internal/domain/repository"
	apperror "github.com/setuphub/setuphub/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SetupRepoImpl implements the SetupRepository interface using GORM
type SetupRepoImpl struct {
	db *gorm.DB
}

// NewSetupRepository creates a new SetupRepoImpl instance
func NewSetupRepository(db *gorm.DB) repository.SetupRepository {
	return &SetupRepoImpl{db: db}
}

// Upsert inserts or updates on the (user_id, editor_name) unique index
func (r *SetupRepoImpl) Upsert(ctx context.Context, setup *models.Setup) (*models.Setup, error) {
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "editor_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "description", "content", "updated_at"}),
		}).
		Create(setup).Error
	if err != nil {
		return nil, apperror.DatabaseError("upsert setup", err)
	}

	var stored models.Setup
	if err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("user_id = ? AND editor_name = ?", setup.UserID, setup.EditorName).
		First(&stored).Error; err != nil {
		return nil, apperror.DatabaseError("reload setup", err)
	}
	return &stored, nil
}

// FindByID retrieves a setup with its owner
func (r *SetupRepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Setup, error) {
	var setup models.Setup
	if err := r.db.WithContext(ctx).Preload("Owner").Where("id = ?", id).First(&setup).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("setup", apperror.ErrNotFound)
		}
		return nil, apperror.DatabaseError("find setup by id", err)
	}
	return &setup, nil
}

// Update applies column changes to a setup
func (r *SetupRepoImpl) Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) error {
	if len(changes) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&models.Setup{}).Where("id = ?", id).Updates(changes)
	if result.Error != nil {
		return apperror.DatabaseError("update setup", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("setup", apperror.ErrNotFound)
	}
	return nil
}

// Delete removes a setup and its star rows in one transaction
func (r *SetupRepoImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("setup_id = ?", id).Delete(&models.SetupStar{}).Error; err != nil {
			return apperror.DatabaseError("delete setup stars", err)
		}

		result := tx.Where("id = ?", id).Delete(&models.Setup{})
		if result.Error != nil {
			return apperror.DatabaseError("delete setup", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.NotFound("setup", apperror.ErrNotFound)
		}
		return nil
	})
}

// ListPublic returns a page of public setups and the total match count
func (r *SetupRepoImpl) ListPublic(ctx context.Context, q repository.SetupQuery) ([]*models.Setup, int64, error) {
	filtered := func() *gorm.DB {
		tx := r.db.WithContext(ctx).Model(&models.Setup{}).Where("is_public = ?", true)
		if q.Editor != "" {
			tx = tx.Where("editor_name = ?", q.Editor)
		}
		if search := strings.TrimSpace(q.Search); search != "" {
			like := "%" + escapeLike(strings.ToLower(search)) + "%"
			tx = tx.Where("(LOWER(display_name) LIKE ? ESCAPE '\\' OR LOWER(editor_name) LIKE ? ESCAPE '\\')", like, like)
		}
		return tx
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, apperror.DatabaseError("count public setups", err)
	}

	order := "updated_at DESC, id ASC"
	if q.Sort == repository.SortByStars {
		order = "star_count DESC, updated_at DESC, id ASC"
	}

	var setups []*models.Setup
	if err := filtered().
		Preload("Owner").
		Order(order).
		Limit(pageSize(q.Limit)).
		Offset(max(q.Offset, 0)).
		Find(&setups).Error; err != nil {
		return nil, 0, apperror.DatabaseError("list public setups", err)
	}

	return setups, total, nil
}

// ListByUser returns a user's setups, newest first
func (r *SetupRepoImpl) ListByUser(ctx context.Context, userID uuid.UUID, includePrivate bool) ([]*models.Setup, error) {
	tx := r.db.WithContext(ctx).Preload("Owner").Where("user_id = ?", userID)
	if !includePrivate {
		tx = tx.Where("is_public = ?", true)
	}

	var setups []*models.Setup
	if err := tx.Order("updated_at DESC").Find(&setups).Error; err != nil {
		return nil, apperror.DatabaseError("list setups by user", err)
	}
	return setups, nil
}

func pageSize(limit int) int {
	switch {
	case limit <= 0:
		return defaultPageSize
	case limit > maxPageSize:
		return maxPageSize
	default:
		return limit
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Verify interface compliance at compile time
var _ repository.SetupRepository = (*SetupRepoImpl)(nil)

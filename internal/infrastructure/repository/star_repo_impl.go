package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/setuphub/setuphub/internal/domain/models"
	"github.com/setuphub/setuphub/internal/domain/repository"
	apperror "github.com/setuphub/setuphub/pkg/errors"
)

// Relative counter updates run in the database. CASE rather than GREATEST
// keeps the decrement portable to SQLite.
var (
	incrementStarCount = gorm.Expr("star_count + 1")
	decrementStarCount = gorm.Expr("CASE WHEN star_count > 0 THEN star_count - 1 ELSE 0 END")
)

// StarRepoImpl implements the StarRepository interface using GORM
type StarRepoImpl struct {
	db *gorm.DB
}

// NewStarRepository creates a new StarRepoImpl instance
func NewStarRepository(db *gorm.DB) repository.StarRepository {
	return &StarRepoImpl{db: db}
}

// Toggle flips the star inside one transaction. The delete doubles as the
// existence check: one affected row means the star was there.
func (r *StarRepoImpl) Toggle(ctx context.Context, userID, setupID uuid.UUID) (bool, int64, error) {
	var (
		starred bool
		count   int64
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Setup{}).Where("id = ?", setupID).Count(&exists).Error; err != nil {
			return apperror.DatabaseError("find setup", err)
		}
		if exists == 0 {
			return apperror.NotFound("setup", apperror.ErrNotFound)
		}

		removed := tx.Where("user_id = ? AND setup_id = ?", userID, setupID).Delete(&models.SetupStar{})
		if removed.Error != nil {
			return apperror.DatabaseError("delete star", removed.Error)
		}

		delta := decrementStarCount
		if removed.RowsAffected == 0 {
			star := &models.SetupStar{UserID: userID, SetupID: setupID}
			if err := tx.Omit(clause.Associations).Create(star).Error; err != nil {
				if isDuplicate(err) {
					return apperror.Conflict("star already recorded", apperror.ErrDuplicate)
				}
				return apperror.DatabaseError("insert star", err)
			}
			delta = incrementStarCount
			starred = true
		}

		if err := tx.Model(&models.Setup{}).Where("id = ?", setupID).UpdateColumn("star_count", delta).Error; err != nil {
			return apperror.DatabaseError("update star count", err)
		}

		if err := tx.Model(&models.Setup{}).Select("star_count").Where("id = ?", setupID).Scan(&count).Error; err != nil {
			return apperror.DatabaseError("read star count", err)
		}
		return nil
	})
	if err != nil {
		return false, 0, err
	}

	return starred, count, nil
}

// IsStarred reports whether the user has starred the setup
func (r *StarRepoImpl) IsStarred(ctx context.Context, userID, setupID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SetupStar{}).
		Where("user_id = ? AND setup_id = ?", userID, setupID).
		Count(&count).Error; err != nil {
		return false, apperror.DatabaseError("check star", err)
	}
	return count > 0, nil
}

// ListStarred returns setups the user starred that are still visible to them
func (r *StarRepoImpl) ListStarred(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Setup, error) {
	var setups []*models.Setup
	err := r.db.WithContext(ctx).
		Select("setups.*").
		Joins("JOIN setup_stars ON setup_stars.setup_id = setups.id").
		Where("setup_stars.user_id = ?", userID).
		Where("(setups.is_public = ? OR setups.user_id = ?)", true, userID).
		Preload("Owner").
		Order("setup_stars.created_at DESC").
		Limit(pageSize(limit)).
		Offset(max(offset, 0)).
		Find(&setups).Error
	if err != nil {
		return nil, apperror.DatabaseError("list starred setups", err)
	}
	return setups, nil
}

// ReconcileCounts rewrites every star_count that drifted from the relation
func (r *StarRepoImpl) ReconcileCounts(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE setups
		SET star_count = (SELECT COUNT(*) FROM setup_stars WHERE setup_stars.setup_id = setups.id)
		WHERE star_count <> (SELECT COUNT(*) FROM setup_stars WHERE setup_stars.setup_id = setups.id)
	`)
	if result.Error != nil {
		return 0, apperror.DatabaseError("reconcile star counts", result.Error)
	}
	return result.RowsAffected, nil
}

// Verify interface compliance at compile time
var _ repository.StarRepository = (*StarRepoImpl)(nil)

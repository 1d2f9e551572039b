package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/setuphub/setuphub/internal/domain/models"
	"github.com/setuphub/setuphub/pkg/logger"
)

// AutoMigrate creates or updates all tables from the GORM models
func (d *Database) AutoMigrate(ctx context.Context) error {
	if err := d.db.WithContext(ctx).AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}
	return nil
}

// RunMigrations runs AutoMigrate followed by PostgreSQL-only constraints
func (d *Database) RunMigrations(ctx context.Context) error {
	if err := d.AutoMigrate(ctx); err != nil {
		return err
	}

	if d.Dialect() != "postgres" {
		return nil
	}

	if err := d.ensureStarCountCheck(ctx); err != nil {
		return fmt.Errorf("star count constraint failed: %w", err)
	}
	return nil
}

// ensureStarCountCheck adds a CHECK keeping setups.star_count non-negative
func (d *Database) ensureStarCountCheck(ctx context.Context) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists bool
		err := tx.Raw(`
			SELECT EXISTS (
				SELECT 1
				FROM information_schema.table_constraints
				WHERE table_name = 'setups'
				AND constraint_name = 'chk_setups_star_count_nonnegative'
			)
		`).Scan(&exists).Error
		if err != nil {
			return fmt.Errorf("failed to check for constraint: %w", err)
		}
		if exists {
			return nil
		}

		d.log.Info("Adding non-negative star count constraint", logger.String("table", "setups"))
		return tx.Exec(`
			ALTER TABLE setups
			ADD CONSTRAINT chk_setups_star_count_nonnegative CHECK (star_count >= 0)
		`).Error
	})
}

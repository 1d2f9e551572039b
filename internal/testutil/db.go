// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/setuphub/setuphub/internal/domain/models"
	"github.com/setuphub/setuphub/internal/infrastructure/database"
	"github.com/setuphub/setuphub/pkg/logger"
)

// NewDatabase opens an isolated in-memory SQLite database with the schema
// migrated. It is closed when the test ends.
func NewDatabase(t *testing.T) *database.Database {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_foreign_keys=on", name, uuid.NewString()[:8])

	db, err := database.Open(sqlite.Open(dsn), logger.NewNop())
	require.NoError(t, err)

	sqlDB, err := db.DB().DB()
	require.NoError(t, err)
	// one connection keeps transactions serialized on SQLite
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.RunMigrations(context.Background()))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewDB is NewDatabase for callers that only need the GORM handle
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	return NewDatabase(t).DB()
}

// CreateUser inserts a user with a unique username derived from name
func CreateUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	user := &models.User{
		Username:        name,
		Name:            name,
		Email:           name + "@example.com",
		Provider:        "github",
		ProviderSubject: uuid.NewString(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateSetup inserts a setup owned by user
func CreateSetup(t *testing.T, db *gorm.DB, user *models.User, editor string, public bool) *models.Setup {
	t.Helper()

	setup := &models.Setup{
		UserID:      user.ID,
		EditorName:  editor,
		DisplayName: editor + " setup",
		Content:     models.SetupContent{Theme: "One Dark Pro"},
		IsPublic:    public,
	}
	require.NoError(t, db.Omit("Owner").Create(setup).Error)
	return setup
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setuphub/setuphub/internal/domain/models"
	"github.com/setuphub/setuphub/internal/testutil"
	apperror "github.com/setuphub/setuphub/pkg/errors"
)

func TestSessionRepo_FindAndPurge(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice")
	live := &models.Session{UserID: user.ID, TokenHash: "live", ExpiresAt: time.Now().Add(time.Hour)}
	stale := &models.Session{UserID: user.ID, TokenHash: "stale", ExpiresAt: time.Now().Add(-time.Hour)}
	require.NoError(t, repo.Create(ctx, live))
	require.NoError(t, repo.Create(ctx, stale))

	found, err := repo.FindByID(ctx, live.ID)
	require.NoError(t, err)
	require.NotNil(t, found.User)
	assert.Equal(t, "alice", found.User.Username)

	purged, err := repo.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = repo.FindByID(ctx, stale.ID)
	assert.True(t, apperror.IsNotFound(err))

	require.NoError(t, repo.Delete(ctx, live.ID))
	_, err = repo.FindByID(ctx, live.ID)
	assert.True(t, apperror.IsNotFound(err))
}

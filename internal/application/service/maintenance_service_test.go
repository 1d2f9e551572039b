package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setuphub/setuphub/internal/domain/models"
	"github.com/setuphub/setuphub/internal/observability"
	"github.com/setuphub/setuphub/pkg/logger"
)

func TestMaintenance_RunOnce(t *testing.T) {
	user := newTestUser("alice")
	sessions, sessionRepo := newTestSessionService(t, user)
	ctx := context.Background()

	require.NoError(t, sessionRepo.Create(ctx, &models.Session{ID: uuid.New(), UserID: user.ID, ExpiresAt: time.Now().Add(-time.Minute)}))
	require.NoError(t, sessionRepo.Create(ctx, &models.Session{ID: uuid.New(), UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}))

	stars := newFakeStarRepo(newFakeSetupRepo())
	stars.reconcile = 2

	svc := NewMaintenanceService(sessions, stars, observability.NewMetrics(), time.Hour, logger.NewNop())
	report, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.ExpiredSessions)
	assert.Equal(t, int64(2), report.ReconciledSetups)
}

func TestMaintenance_StartStop(t *testing.T) {
	stars := newFakeStarRepo(newFakeSetupRepo())
	svc := NewMaintenanceService(nil, stars, nil, time.Hour, logger.NewNop())

	svc.Start()
	assert.True(t, svc.IsRunning())
	svc.Start()

	svc.Stop()
	assert.False(t, svc.IsRunning())
	svc.Stop()

	svc.Start()
	assert.True(t, svc.IsRunning())
	svc.Stop()
}

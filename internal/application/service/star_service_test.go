package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setuphub/setuphub/internal/domain/models"
	apperrors "github.com/setuphub/setuphub/pkg/errors"
	"github.com/setuphub/setuphub/pkg/logger"
)

func newStarFixture(setups ...*models.Setup) (*StarService, *fakeStarRepo) {
	setupRepo := newFakeSetupRepo(setups...)
	starRepo := newFakeStarRepo(setupRepo)
	return NewStarService(starRepo, setupRepo, nil, logger.NewNop()), starRepo
}

func newTestSetup(owner *models.User, public bool) *models.Setup {
	return &models.Setup{
		ID:          uuid.New(),
		UserID:      owner.ID,
		EditorName:  "vscode",
		DisplayName: "My setup",
		IsPublic:    public,
	}
}

func TestToggleStar_RoundTrip(t *testing.T) {
	owner, fan := newTestUser("owner"), newTestUser("fan")
	setup := newTestSetup(owner, true)
	svc, _ := newStarFixture(setup)
	ctx := context.Background()

	res := svc.ToggleStar(ctx, fan, setup.ID.String())
	require.True(t, res.Success)
	assert.True(t, *res.IsStarred)
	assert.Equal(t, int64(1), *res.StarCount)

	res = svc.ToggleStar(ctx, fan, setup.ID.String())
	require.True(t, res.Success)
	assert.False(t, *res.IsStarred)
	assert.Equal(t, int64(0), *res.StarCount)
}

func TestToggleStar_TwoUsers(t *testing.T) {
	owner := newTestUser("owner")
	setup := newTestSetup(owner, true)
	svc, _ := newStarFixture(setup)
	ctx := context.Background()

	svc.ToggleStar(ctx, newTestUser("a"), setup.ID.String())
	res := svc.ToggleStar(ctx, newTestUser("b"), setup.ID.String())
	require.True(t, res.Success)
	assert.Equal(t, int64(2), *res.StarCount)
}

func TestToggleStar_Failures(t *testing.T) {
	owner, fan := newTestUser("owner"), newTestUser("fan")
	public := newTestSetup(owner, true)
	private := newTestSetup(owner, false)

	tests := []struct {
		name    string
		viewer  *models.User
		setupID string
		repoErr error
		want    string
	}{
		{"anonymous", nil, public.ID.String(), nil, MsgSignInToStar},
		{"malformed id", fan, "not-a-uuid", nil, MsgSetupNotFound},
		{"unknown setup", fan, uuid.NewString(), nil, MsgSetupNotFound},
		{"private setup of another user", fan, private.ID.String(), nil, MsgSetupNotFound},
		{"store failure", fan, public.ID.String(), errors.New("disk full"), MsgStarUpdateFails},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newStarFixture(public, private)
			repo.toggleErr = tt.repoErr

			res := svc.ToggleStar(context.Background(), tt.viewer, tt.setupID)
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Message)
			assert.Nil(t, res.IsStarred)
			assert.Nil(t, res.StarCount)
		})
	}
}

func TestToggleStar_OwnerCanStarOwnPrivateSetup(t *testing.T) {
	owner := newTestUser("owner")
	private := newTestSetup(owner, false)
	svc, _ := newStarFixture(private)

	res := svc.ToggleStar(context.Background(), owner, private.ID.String())
	assert.True(t, res.Success)
}

func TestStarStatus(t *testing.T) {
	owner, fan := newTestUser("owner"), newTestUser("fan")
	setup := newTestSetup(owner, true)
	svc, _ := newStarFixture(setup)
	ctx := context.Background()

	svc.ToggleStar(ctx, fan, setup.ID.String())

	status, err := svc.StarStatus(ctx, fan, setup.ID.String())
	require.NoError(t, err)
	assert.True(t, status.IsStarred)
	assert.Equal(t, int64(1), status.StarCount)

	status, err = svc.StarStatus(ctx, nil, setup.ID.String())
	require.NoError(t, err)
	assert.False(t, status.IsStarred)
	assert.Equal(t, int64(1), status.StarCount)

	_, err = svc.StarStatus(ctx, fan, "nope")
	assert.True(t, apperrors.IsNotFound(err))
}

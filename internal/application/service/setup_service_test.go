package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setuphub/setuphub/internal/domain/models"
	apperrors "github.com/setuphub/setuphub/pkg/errors"
	"github.com/setuphub/setuphub/pkg/logger"
)

func newSetupFixture(users ...*models.User) (*SetupService, *fakeSetupRepo) {
	repo := newFakeSetupRepo()
	return NewSetupService(repo, newFakeUserRepo(users...), nil, logger.NewNop()), repo
}

func TestSyncSetup(t *testing.T) {
	svc, _ := newSetupFixture()
	userID := uuid.New()

	setup, err := svc.SyncSetup(context.Background(), userID, SyncSetupRequest{
		EditorName:  " VSCode ",
		DisplayName: "<b>Daily</b> driver",
		Description: "Go & Rust <script>alert(1)</script>",
		Content: models.SetupContent{
			Theme:      "One Dark Pro",
			Font:       &models.Font{Family: "JetBrains Mono", Size: 14},
			Extensions: []models.Extension{{ID: "golang.go", Name: "Go"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "vscode", setup.EditorName)
	assert.Equal(t, "Daily driver", setup.DisplayName)
	assert.Equal(t, "Go & Rust", setup.Description)
	assert.True(t, setup.IsPublic)
	assert.NotNil(t, setup.Content.Settings)
	assert.Equal(t, "JetBrains Mono", setup.Content.Font.Family)
}

func TestSyncSetup_Validation(t *testing.T) {
	svc, _ := newSetupFixture()

	tests := []struct {
		name  string
		req   SyncSetupRequest
		field string
	}{
		{"bad editor", SyncSetupRequest{EditorName: "vs code", DisplayName: "x"}, "editor_name"},
		{"editor leading dash", SyncSetupRequest{EditorName: "-vim", DisplayName: "x"}, "editor_name"},
		{"editor too long", SyncSetupRequest{EditorName: strings.Repeat("a", 51), DisplayName: "x"}, "editor_name"},
		{"empty display name", SyncSetupRequest{EditorName: "zed", DisplayName: "<i></i>"}, "display_name"},
		{"long display name", SyncSetupRequest{EditorName: "zed", DisplayName: strings.Repeat("n", 101)}, "display_name"},
		{"long description", SyncSetupRequest{EditorName: "zed", DisplayName: "x", Description: strings.Repeat("d", 501)}, "description"},
		{"extension without id", SyncSetupRequest{EditorName: "zed", DisplayName: "x", Content: models.SetupContent{Extensions: []models.Extension{{Name: "x"}}}}, "content.extensions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SyncSetup(context.Background(), uuid.New(), tt.req)
			require.Error(t, err)
			assert.True(t, apperrors.IsBadRequest(err))

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestSyncSetup_ResyncKeepsID(t *testing.T) {
	svc, _ := newSetupFixture()
	userID := uuid.New()
	ctx := context.Background()

	first, err := svc.SyncSetup(ctx, userID, SyncSetupRequest{EditorName: "zed", DisplayName: "one"})
	require.NoError(t, err)
	second, err := svc.SyncSetup(ctx, userID, SyncSetupRequest{EditorName: "zed", DisplayName: "two"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "two", second.DisplayName)
}

func TestGetSetup_Visibility(t *testing.T) {
	owner, other := newTestUser("owner"), newTestUser("other")
	svc, repo := newSetupFixture()
	private := newTestSetup(owner, false)
	repo.setups[private.ID] = private
	ctx := context.Background()

	got, err := svc.GetSetup(ctx, owner, private.ID.String())
	require.NoError(t, err)
	assert.Equal(t, private.ID, got.ID)

	_, err = svc.GetSetup(ctx, other, private.ID.String())
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.GetSetup(ctx, nil, private.ID.String())
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.GetSetup(ctx, owner, "garbage")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateSetup(t *testing.T) {
	owner, other := newTestUser("owner"), newTestUser("other")
	svc, repo := newSetupFixture()
	setup := newTestSetup(owner, true)
	repo.setups[setup.ID] = setup
	ctx := context.Background()

	name, private := "Renamed", false
	updated, err := svc.UpdateSetup(ctx, owner.ID, setup.ID.String(), UpdateSetupRequest{DisplayName: &name, IsPublic: &private})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.DisplayName)
	assert.False(t, updated.IsPublic)

	_, err = svc.UpdateSetup(ctx, other.ID, setup.ID.String(), UpdateSetupRequest{DisplayName: &name})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup not found or unauthorized")
}

func TestDeleteSetup(t *testing.T) {
	owner, other := newTestUser("owner"), newTestUser("other")
	svc, repo := newSetupFixture()
	setup := newTestSetup(owner, true)
	repo.setups[setup.ID] = setup
	ctx := context.Background()

	err := svc.DeleteSetup(ctx, other.ID, setup.ID.String())
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, svc.DeleteSetup(ctx, owner.ID, setup.ID.String()))
	assert.Empty(t, repo.setups)
}

func TestListPublic_Validation(t *testing.T) {
	svc, _ := newSetupFixture()
	ctx := context.Background()

	page, err := svc.ListPublic(ctx, ListSetupsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 20, page.Limit)

	_, err = svc.ListPublic(ctx, ListSetupsQuery{Sort: "popular"})
	assert.True(t, apperrors.IsBadRequest(err))

	_, err = svc.ListPublic(ctx, ListSetupsQuery{Limit: 101})
	assert.True(t, apperrors.IsBadRequest(err))

	_, err = svc.ListPublic(ctx, ListSetupsQuery{Offset: -1})
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestListByUser(t *testing.T) {
	owner, other := newTestUser("owner"), newTestUser("other")
	svc, repo := newSetupFixture(owner, other)
	public := newTestSetup(owner, true)
	private := newTestSetup(owner, false)
	private.EditorName = "zed"
	repo.setups[public.ID] = public
	repo.setups[private.ID] = private
	ctx := context.Background()

	mine, err := svc.ListByUser(ctx, owner, "owner")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := svc.ListByUser(ctx, other, "Owner")
	require.NoError(t, err)
	assert.Len(t, theirs, 1)

	_, err = svc.ListByUser(ctx, nil, "nobody")
	assert.True(t, apperrors.IsNotFound(err))
}

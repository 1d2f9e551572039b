package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/setuphub/setuphub/pkg/errors"
	"github.com/setuphub/setuphub/pkg/logger"
)

func TestFindOrCreate_NewAndReturning(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, logger.NewNop())
	ctx := context.Background()

	id := &Identity{Provider: "github", Subject: "42", Login: "Octo.Cat", Name: "Octo", Email: "OCTO@example.com"}
	user, err := svc.FindOrCreate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "octo-cat", user.Username)
	assert.Equal(t, "octo@example.com", user.Email)

	id.AvatarURL = "https://avatars.example.com/42"
	again, err := svc.FindOrCreate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "https://avatars.example.com/42", again.Image)
}

func TestFindOrCreate_DedupesUsername(t *testing.T) {
	taken := newTestUser("octocat")
	repo := newFakeUserRepo(taken)
	svc := NewUserService(repo, logger.NewNop())
	ctx := context.Background()

	user, err := svc.FindOrCreate(ctx, &Identity{Provider: "oidc", Subject: "abc", Login: "octocat"})
	require.NoError(t, err)
	assert.Equal(t, "octocat2", user.Username)

	user, err = svc.FindOrCreate(ctx, &Identity{Provider: "oidc", Subject: "def", Login: "octocat"})
	require.NoError(t, err)
	assert.Equal(t, "octocat3", user.Username)
}

func TestFindOrCreate_RequiresSubject(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), logger.NewNop())
	_, err := svc.FindOrCreate(context.Background(), &Identity{Provider: "github"})
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestUpdateProfile(t *testing.T) {
	user := newTestUser("alice")
	svc := NewUserService(newFakeUserRepo(user), logger.NewNop())
	ctx := context.Background()

	name := " <em>Alice</em> L. "
	updated, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice L.", updated.Name)

	long := strings.Repeat("a", 101)
	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Name: &long})
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestSanitizeUsername(t *testing.T) {
	tests := map[string]string{
		"Octo.Cat":             "octo-cat",
		"--weird__name--":      "weird-name",
		"über":                 "ber",
		"":                     "",
		strings.Repeat("a", 50): strings.Repeat("a", 39),
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeUsername(in), in)
	}

	assert.Equal(t, "octocat", usernameCandidate("octocat", 0))
	assert.Equal(t, "octocat2", usernameCandidate("octocat", 1))
	assert.Len(t, usernameCandidate(strings.Repeat("a", 39), 9), 39)
}

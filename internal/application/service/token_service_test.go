package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setuphub/setuphub/internal/config"
	apperrors "github.com/setuphub/setuphub/pkg/errors"
	"github.com/setuphub/setuphub/pkg/logger"
)

var tokenFormat = regexp.MustCompile(`^shub_[0-9a-f]{64}$`)

func newTestTokenService() (*TokenService, *fakeTokenRepo) {
	repo := newFakeTokenRepo()
	svc := NewTokenService(repo, config.TokenConfig{Prefix: "shub_", MaxExpiryDays: 365}, logger.NewNop())
	return svc, repo
}

func TestCreateToken(t *testing.T) {
	svc, repo := newTestTokenService()
	userID := uuid.New()

	issued, err := svc.CreateToken(context.Background(), CreateTokenRequest{UserID: userID, Name: "  laptop "})
	require.NoError(t, err)

	assert.Regexp(t, tokenFormat, issued.RawToken)
	assert.Equal(t, "laptop", issued.Token.Name)
	assert.Nil(t, issued.Token.ExpiresAt)
	assert.Equal(t, hashToken(issued.RawToken), issued.Token.TokenHash)

	stored, err := repo.FindByHash(context.Background(), hashToken(issued.RawToken))
	require.NoError(t, err)
	assert.Equal(t, userID, stored.UserID)
	assert.NotEqual(t, issued.RawToken, stored.TokenHash)
}

func TestCreateToken_OnePerUser(t *testing.T) {
	svc, _ := newTestTokenService()
	userID := uuid.New()

	_, err := svc.CreateToken(context.Background(), CreateTokenRequest{UserID: userID, Name: "first"})
	require.NoError(t, err)

	_, err = svc.CreateToken(context.Background(), CreateTokenRequest{UserID: userID, Name: "second"})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestCreateToken_Validation(t *testing.T) {
	svc, _ := newTestTokenService()
	zero, tooMany, ok := 0, 400, 30

	_, err := svc.CreateToken(context.Background(), CreateTokenRequest{UserID: uuid.New(), Name: " "})
	assert.True(t, apperrors.IsBadRequest(err))

	_, err = svc.CreateToken(context.Background(), CreateTokenRequest{UserID: uuid.New(), Name: "x", ExpiresInDays: &zero})
	assert.True(t, apperrors.IsBadRequest(err))

	_, err = svc.CreateToken(context.Background(), CreateTokenRequest{UserID: uuid.New(), Name: "x", ExpiresInDays: &tooMany})
	assert.True(t, apperrors.IsBadRequest(err))

	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	issued, err := svc.CreateToken(context.Background(), CreateTokenRequest{UserID: uuid.New(), Name: "x", ExpiresInDays: &ok})
	require.NoError(t, err)
	require.NotNil(t, issued.Token.ExpiresAt)
	assert.Equal(t, now.AddDate(0, 0, 30), *issued.Token.ExpiresAt)
}

func TestRotateToken(t *testing.T) {
	svc, repo := newTestTokenService()
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.CreateToken(ctx, CreateTokenRequest{UserID: userID, Name: "laptop"})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateLastUsed(ctx, first.Token.ID, time.Now()))
	<-repo.lastUsed

	rotated, err := svc.RotateToken(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, first.Token.ID, rotated.Token.ID)
	assert.NotEqual(t, first.RawToken, rotated.RawToken)
	assert.Regexp(t, tokenFormat, rotated.RawToken)
	assert.Nil(t, rotated.Token.LastUsedAt)

	_, err = repo.FindByHash(ctx, hashToken(first.RawToken))
	assert.True(t, apperrors.IsNotFound(err))

	stored, err := repo.FindByHash(ctx, hashToken(rotated.RawToken))
	require.NoError(t, err)
	assert.Equal(t, first.Token.ID, stored.ID)
}

func TestRotateToken_NoToken(t *testing.T) {
	svc, _ := newTestTokenService()
	_, err := svc.RotateToken(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteToken_Ownership(t *testing.T) {
	svc, _ := newTestTokenService()
	ctx := context.Background()
	owner, intruder := uuid.New(), uuid.New()

	issued, err := svc.CreateToken(ctx, CreateTokenRequest{UserID: owner, Name: "laptop"})
	require.NoError(t, err)

	err = svc.DeleteToken(ctx, intruder, issued.Token.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "not found or unauthorized")

	err = svc.DeleteToken(ctx, owner, uuid.New())
	assert.Contains(t, err.Error(), "not found or unauthorized")

	require.NoError(t, svc.DeleteToken(ctx, owner, issued.Token.ID))
	_, err = svc.GetToken(ctx, owner)
	assert.True(t, apperrors.IsNotFound(err))
}

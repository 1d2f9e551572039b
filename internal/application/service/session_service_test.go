package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setuphub/setuphub/internal/config"
	"github.com/setuphub/setuphub/internal/domain/models"
	apperrors "github.com/setuphub/setuphub/pkg/errors"
	"github.com/setuphub/setuphub/pkg/logger"
)

const testSessionSecret = "0123456789abcdef0123456789abcdef"

func newTestSessionService(t *testing.T, users ...*models.User) (*SessionService, *fakeSessionRepo) {
	t.Helper()
	repo := newFakeSessionRepo(newFakeUserRepo(users...))
	svc, err := NewSessionService(repo, config.SessionConfig{
		Secret:     testSessionSecret,
		CookieName: "setuphub_session",
		TTLHours:   24,
	}, logger.NewNop())
	require.NoError(t, err)
	return svc, repo
}

func cookieRequest(name, value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: name, Value: value})
	return req
}

func TestSession_CreateAndResolve(t *testing.T) {
	user := newTestUser("alice")
	svc, _ := newTestSessionService(t, user)
	ctx := context.Background()

	value, session, err := svc.CreateSession(ctx, user, "10.0.0.1", "vscode/1.90")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(value, ".")+1)

	got, err := svc.ResolveCookie(ctx, cookieRequest("setuphub_session", value))
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, user.ID, got.User.ID)
	assert.Equal(t, models.AuthMethodSession, got.Method)
	assert.Equal(t, session.ID.String(), got.Session.ID)
	require.NotNil(t, got.Session.IPAddress)
	assert.Equal(t, "10.0.0.1", *got.Session.IPAddress)
	assert.Empty(t, got.Session.Token)
}

func TestSession_NoCookie(t *testing.T) {
	svc, _ := newTestSessionService(t)

	got, err := svc.ResolveCookie(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSession_RejectsTamperedAndForeignCookies(t *testing.T) {
	user := newTestUser("alice")
	svc, repo := newTestSessionService(t, user)
	ctx := context.Background()

	value, _, err := svc.CreateSession(ctx, user, "", "")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, value+"x")
	assert.True(t, apperrors.IsUnauthorized(err))

	other, err := NewSessionService(repo, config.SessionConfig{
		Secret:     strings.Repeat("z", 32),
		CookieName: "setuphub_session",
	}, logger.NewNop())
	require.NoError(t, err)
	_, err = other.Verify(ctx, value)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestSession_Expired(t *testing.T) {
	user := newTestUser("alice")
	svc, _ := newTestSessionService(t, user)
	ctx := context.Background()

	value, _, err := svc.CreateSession(ctx, user, "", "")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = svc.Verify(ctx, value)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestSession_RevokeAndPurge(t *testing.T) {
	user := newTestUser("alice")
	svc, repo := newTestSessionService(t, user)
	ctx := context.Background()

	value, session, err := svc.CreateSession(ctx, user, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, value))
	_, err = repo.FindByID(ctx, session.ID)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Verify(ctx, value)
	assert.True(t, apperrors.IsUnauthorized(err))

	require.NoError(t, repo.Create(ctx, &models.Session{ID: uuid.New(), UserID: user.ID, ExpiresAt: time.Now().Add(-time.Hour)}))
	purged, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestNewSessionService_RequiresSecret(t *testing.T) {
	_, err := NewSessionService(newFakeSessionRepo(newFakeUserRepo()), config.SessionConfig{}, logger.NewNop())
	assert.Error(t, err)
}

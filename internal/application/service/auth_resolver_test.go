package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setuphub/setuphub/internal/domain/models"
	"github.com/setuphub/setuphub/pkg/logger"
)

type stubSessions struct {
	session *models.AuthSession
	err     error
	calls   int
}

func (s *stubSessions) ResolveCookie(context.Context, *http.Request) (*models.AuthSession, error) {
	s.calls++
	return s.session, s.err
}

type resolverFixture struct {
	resolver *AuthResolverImpl
	tokens   *fakeTokenRepo
	sessions *stubSessions
	user     *models.User
	now      time.Time
}

func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()

	user := newTestUser("alice")
	f := &resolverFixture{
		tokens:   newFakeTokenRepo(),
		sessions: &stubSessions{},
		user:     user,
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.resolver = NewAuthResolver(f.tokens, newFakeUserRepo(user), f.sessions, nil, logger.NewNop())
	f.resolver.now = func() time.Time { return f.now }
	return f
}

func (f *resolverFixture) addToken(t *testing.T, raw string, expiresAt *time.Time) *models.PersonalAccessToken {
	t.Helper()
	token := &models.PersonalAccessToken{
		ID:        uuid.New(),
		Name:      "laptop",
		TokenHash: hashToken(raw),
		UserID:    f.user.ID,
		ExpiresAt: expiresAt,
		CreatedAt: f.now.Add(-time.Hour),
	}
	require.NoError(t, f.tokens.Create(context.Background(), token))
	return token
}

func bearerRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestResolve_ValidToken(t *testing.T) {
	f := newResolverFixture(t)
	raw := "shub_" + "ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34"
	token := f.addToken(t, raw, nil)

	got := f.resolver.Resolve(context.Background(), bearerRequest(raw))
	require.NotNil(t, got)

	assert.Equal(t, f.user.ID, got.User.ID)
	assert.Equal(t, models.AuthMethodToken, got.Method)
	assert.Equal(t, "pat_"+token.ID.String(), got.Session.ID)
	assert.Equal(t, f.user.ID.String(), got.Session.UserID)
	assert.Equal(t, f.now.AddDate(1, 0, 0), got.Session.ExpiresAt)
	assert.Empty(t, got.Session.Token)
	assert.Nil(t, got.Session.IPAddress)
	assert.Nil(t, got.Session.UserAgent)
	assert.Zero(t, f.sessions.calls)

	select {
	case id := <-f.tokens.lastUsed:
		assert.Equal(t, token.ID, id)
	case <-time.After(time.Second):
		t.Fatal("last used timestamp was not recorded")
	}
}

func TestResolve_LastUsedFailureIgnored(t *testing.T) {
	f := newResolverFixture(t)
	f.tokens.touchErr = errors.New("connection reset")
	token := f.addToken(t, "shub_flaky", nil)

	got := f.resolver.Resolve(context.Background(), bearerRequest("shub_flaky"))
	require.NotNil(t, got)
	assert.Equal(t, f.user.ID, got.User.ID)
	assert.Equal(t, "pat_"+token.ID.String(), got.Session.ID)
	assert.Zero(t, f.sessions.calls)

	select {
	case id := <-f.tokens.lastUsed:
		assert.Equal(t, token.ID, id)
	case <-time.After(time.Second):
		t.Fatal("last used update was not attempted")
	}

	// later requests keep resolving
	assert.NotNil(t, f.resolver.Resolve(context.Background(), bearerRequest("shub_flaky")))
}

func TestResolve_TokenExpiryCarriedToSession(t *testing.T) {
	f := newResolverFixture(t)
	expires := f.now.Add(48 * time.Hour)
	f.addToken(t, "shub_future", &expires)

	got := f.resolver.Resolve(context.Background(), bearerRequest("shub_future"))
	require.NotNil(t, got)
	assert.Equal(t, expires, got.Session.ExpiresAt)
}

func TestResolve_ExpiredTokenFallsBackToCookie(t *testing.T) {
	f := newResolverFixture(t)
	expired := f.now.Add(-time.Minute)
	f.addToken(t, "shub_old", &expired)

	cookieUser := newTestUser("bob")
	f.sessions.session = &models.AuthSession{User: cookieUser, Method: models.AuthMethodSession}

	got := f.resolver.Resolve(context.Background(), bearerRequest("shub_old"))
	require.NotNil(t, got)
	assert.Equal(t, cookieUser.ID, got.User.ID)
	assert.Equal(t, models.AuthMethodSession, got.Method)
	assert.Equal(t, 1, f.sessions.calls)

	select {
	case <-f.tokens.lastUsed:
		t.Fatal("expired token must not be touched")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestResolve_ExpiredTokenWithoutCookie(t *testing.T) {
	f := newResolverFixture(t)
	expired := f.now
	f.addToken(t, "shub_edge", &expired)

	assert.Nil(t, f.resolver.Resolve(context.Background(), bearerRequest("shub_edge")))
}

func TestResolve_FallsBackToCookie(t *testing.T) {
	cookieUser := newTestUser("carol")

	tests := []struct {
		name   string
		header string
		setup  func(f *resolverFixture)
	}{
		{name: "no header"},
		{name: "unknown token", header: "Bearer shub_unknown"},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "empty bearer", header: "Bearer "},
		{name: "lookup error", header: "Bearer shub_x", setup: func(f *resolverFixture) {
			f.tokens.findErr = errors.New("connection reset")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newResolverFixture(t)
			f.sessions.session = &models.AuthSession{User: cookieUser, Method: models.AuthMethodSession}
			if tt.setup != nil {
				tt.setup(f)
			}

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			got := f.resolver.Resolve(context.Background(), req)
			require.NotNil(t, got)
			assert.Equal(t, cookieUser.ID, got.User.ID)
			assert.Equal(t, 1, f.sessions.calls)
		})
	}
}

func TestResolve_NeitherCredential(t *testing.T) {
	f := newResolverFixture(t)
	assert.Nil(t, f.resolver.Resolve(context.Background(), bearerRequest("")))

	f.sessions.err = errors.New("bad signature")
	assert.Nil(t, f.resolver.Resolve(context.Background(), bearerRequest("")))
}

func TestResolve_TokenOwnerMissing(t *testing.T) {
	f := newResolverFixture(t)
	orphan := &models.PersonalAccessToken{ID: uuid.New(), TokenHash: hashToken("shub_orphan"), UserID: uuid.New()}
	require.NoError(t, f.tokens.Create(context.Background(), orphan))

	assert.Nil(t, f.resolver.Resolve(context.Background(), bearerRequest("shub_orphan")))
	assert.Equal(t, 1, f.sessions.calls)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Bearer", "", false},
		{"Bearer a b", "", false},
		{"Token abc", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/setuphub/setuphub/internal/config"
	apperrors "github.com/setuphub/setuphub/pkg/errors"
	"github.com/setuphub/setuphub/pkg/logger"
)

type stubProvider struct {
	identity *Identity
	err      error
}

func (p *stubProvider) Name() string { return "github" }

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://github.example.com/login/oauth/authorize?state=" + state
}

func (p *stubProvider) Exchange(context.Context, string) (*Identity, error) {
	return p.identity, p.err
}

func newOAuthFixture(t *testing.T, provider IdentityProvider) (*OAuthService, *fakeUserRepo) {
	t.Helper()
	users := newFakeUserRepo()
	sessions, err := NewSessionService(newFakeSessionRepo(users), config.SessionConfig{
		Secret:     testSessionSecret,
		CookieName: "setuphub_session",
	}, logger.NewNop())
	require.NoError(t, err)
	return NewOAuthService(provider, NewUserService(users, logger.NewNop()), sessions, logger.NewNop()), users
}

func TestOAuth_LoginAndCallback(t *testing.T) {
	provider := &stubProvider{identity: &Identity{Provider: "github", Subject: "7", Login: "octocat"}}
	svc, _ := newOAuthFixture(t, provider)
	ctx := context.Background()

	url, state, err := svc.LoginURL()
	require.NoError(t, err)
	assert.Contains(t, url, state)

	res, err := svc.HandleCallback(ctx, "code", state, state, "127.0.0.1", "test")
	require.NoError(t, err)
	assert.Equal(t, "octocat", res.User.Username)
	assert.NotEmpty(t, res.CookieValue)

	verified, err := svc.sessions.Verify(ctx, res.CookieValue)
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID, verified.ID)
}

func TestOAuth_CallbackFailures(t *testing.T) {
	ctx := context.Background()

	svc, _ := newOAuthFixture(t, &stubProvider{identity: &Identity{Subject: "1"}})
	_, err := svc.HandleCallback(ctx, "code", "a", "b", "", "")
	assert.True(t, apperrors.IsUnauthorized(err))

	_, err = svc.HandleCallback(ctx, "", "a", "a", "", "")
	assert.True(t, apperrors.IsBadRequest(err))

	svc, _ = newOAuthFixture(t, &stubProvider{err: errors.New("exchange failed")})
	_, err = svc.HandleCallback(ctx, "code", "a", "a", "", "")
	assert.Error(t, err)

	disabled, _ := newOAuthFixture(t, nil)
	assert.False(t, disabled.IsEnabled())
	_, _, err = disabled.LoginURL()
	assert.Error(t, err)
}

func TestGitHubProvider_FetchIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gho_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/user":
			_, _ = w.Write([]byte(`{"id":583231,"login":"octocat","name":"The Octocat","email":"","avatar_url":"https://avatars.example.com/u/583231"}`))
		case "/user/emails":
			_, _ = w.Write([]byte(`[{"email":"old@example.com","primary":false,"verified":true},{"email":"octo@example.com","primary":true,"verified":true}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := newGitHubProvider(&config.OAuthConfig{APIBaseURL: srv.URL}, oauth2.Endpoint{})

	id, err := p.fetchIdentity(context.Background(), "gho_test")
	require.NoError(t, err)
	assert.Equal(t, "github", id.Provider)
	assert.Equal(t, "583231", id.Subject)
	assert.Equal(t, "octocat", id.Login)
	assert.Equal(t, "octo@example.com", id.Email)

	_, err = p.fetchIdentity(context.Background(), "wrong")
	assert.Error(t, err)
}

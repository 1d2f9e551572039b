package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/setuphub/setuphub/internal/config"
	"github.com/setuphub/setuphub/internal/domain/models"
	apperrors "github.com/setuphub/setuphub/pkg/errors"
	"github.com/setuphub/setuphub/pkg/logger"
)

// IdentityProvider runs the OAuth authorization code flow against one provider
type IdentityProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// GitHubProvider signs users in with GitHub OAuth apps
type GitHubProvider struct {
	oauth2Cfg *oauth2.Config
	client    *resty.Client
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// NewGitHubProvider creates a GitHubProvider from the oauth config
func NewGitHubProvider(cfg *config.OAuthConfig) *GitHubProvider {
	return newGitHubProvider(cfg, github.Endpoint)
}

func newGitHubProvider(cfg *config.OAuthConfig, endpoint oauth2.Endpoint) *GitHubProvider {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.APIBaseURL, "/")).
		SetTimeout(cfg.Timeout()).
		SetRetryCount(2).
		SetRetryWaitTime(100*time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("X-GitHub-Api-Version", "2022-11-28")

	return &GitHubProvider{
		oauth2Cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		client: client,
	}
}

// Name returns the provider name stored on users
func (p *GitHubProvider) Name() string {
	return "github"
}

// AuthCodeURL returns the GitHub authorization URL
func (p *GitHubProvider) AuthCodeURL(state string) string {
	return p.oauth2Cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the code for a token and loads the GitHub profile
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := p.oauth2Cfg.Exchange(ctx, code)
	if err != nil {
		return nil, apperrors.Unauthorized("failed to exchange authorization code", err)
	}
	return p.fetchIdentity(ctx, token.AccessToken)
}

func (p *GitHubProvider) fetchIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	var user githubUser
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&user).
		Get("/user")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch github profile: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("github /user returned status %d", resp.StatusCode())
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("github returned an invalid user")
	}

	email := user.Email
	if email == "" {
		email = p.primaryEmail(ctx, accessToken)
	}

	return &Identity{
		Provider:  p.Name(),
		Subject:   strconv.FormatInt(user.ID, 10),
		Login:     user.Login,
		Name:      user.Name,
		Email:     email,
		AvatarURL: user.AvatarURL,
	}, nil
}

// primaryEmail looks up the verified primary address when the profile hides it
func (p *GitHubProvider) primaryEmail(ctx context.Context, accessToken string) string {
	var emails []githubEmail
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&emails).
		Get("/user/emails")
	if err != nil || resp.IsError() {
		return ""
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	return ""
}

// OIDCProvider signs users in with any OpenID Connect issuer
type OIDCProvider struct {
	oauth2Cfg *oauth2.Config
	verifier  *oidc.IDTokenVerifier
}

// OIDCClaims represents the claims from an OIDC ID token
type OIDCClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Username      string `json:"preferred_username"`
	Picture       string `json:"picture"`
}

// NewOIDCProvider runs issuer discovery and builds the provider
func NewOIDCProvider(ctx context.Context, cfg *config.OAuthConfig) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OIDC provider: %w", err)
	}

	scopes := cfg.Scopes
	if !slices.Contains(scopes, oidc.ScopeOpenID) {
		scopes = append([]string{oidc.ScopeOpenID, "profile", "email"}, scopes...)
	}

	return &OIDCProvider{
		oauth2Cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// Name returns the provider name stored on users
func (p *OIDCProvider) Name() string {
	return "oidc"
}

// AuthCodeURL returns the issuer's authorization URL
func (p *OIDCProvider) AuthCodeURL(state string) string {
	return p.oauth2Cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the code for tokens and verifies the ID token
func (p *OIDCProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := p.oauth2Cfg.Exchange(ctx, code)
	if err != nil {
		return nil, apperrors.Unauthorized("failed to exchange authorization code", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, apperrors.Unauthorized("no id_token in token response", apperrors.ErrInvalidToken)
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, apperrors.Unauthorized("failed to verify id_token", err)
	}

	var claims OIDCClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	email := ""
	if claims.EmailVerified {
		email = claims.Email
	}

	return &Identity{
		Provider:  p.Name(),
		Subject:   claims.Subject,
		Login:     claims.Username,
		Name:      claims.Name,
		Email:     email,
		AvatarURL: claims.Picture,
	}, nil
}

// OAuthService drives browser sign-in: redirect, callback, session creation
type OAuthService struct {
	provider IdentityProvider
	users    *UserService
	sessions *SessionService
	log      *logger.Logger
}

// NewOAuthService creates a new OAuthService. A nil provider disables sign-in.
func NewOAuthService(
	provider IdentityProvider,
	users *UserService,
	sessions *SessionService,
	log *logger.Logger,
) *OAuthService {
	return &OAuthService{
		provider: provider,
		users:    users,
		sessions: sessions,
		log:      log.WithComponent("oauth-service"),
	}
}

// IsEnabled reports whether a provider is configured
func (s *OAuthService) IsEnabled() bool {
	return s.provider != nil
}

// ProviderName returns the configured provider, or empty when disabled
func (s *OAuthService) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// LoginURL returns the provider URL and the state to remember in a cookie
func (s *OAuthService) LoginURL() (string, string, error) {
	if s.provider == nil {
		return "", "", apperrors.NewAppError(apperrors.CodeServiceUnavailable, "sign-in is not configured", apperrors.ErrConfigError)
	}

	state, err := randomString(32)
	if err != nil {
		return "", "", apperrors.InternalError("failed to generate state", err)
	}
	return s.provider.AuthCodeURL(state), state, nil
}

// SignInResult is returned after a successful callback
type SignInResult struct {
	User        *models.User
	Session     *models.Session
	CookieValue string
}

// HandleCallback verifies state, exchanges the code and opens a session
func (s *OAuthService) HandleCallback(ctx context.Context, code, state, expectedState, ip, userAgent string) (*SignInResult, error) {
	if s.provider == nil {
		return nil, apperrors.NewAppError(apperrors.CodeServiceUnavailable, "sign-in is not configured", apperrors.ErrConfigError)
	}
	if state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expectedState)) != 1 {
		return nil, apperrors.Unauthorized("invalid state parameter", apperrors.ErrUnauthorized)
	}
	if code == "" {
		return nil, apperrors.BadRequest("missing authorization code", apperrors.ErrInvalidInput)
	}

	identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.log.Warn("OAuth exchange failed",
			logger.String("provider", s.provider.Name()),
			logger.Error(err),
		)
		return nil, err
	}

	user, err := s.users.FindOrCreate(ctx, identity)
	if err != nil {
		return nil, err
	}

	value, session, err := s.sessions.CreateSession(ctx, user, ip, userAgent)
	if err != nil {
		return nil, err
	}

	s.log.Info("User signed in",
		logger.UserID(user.ID.String()),
		logger.Username(user.Username),
		logger.String("provider", s.provider.Name()),
	)
	return &SignInResult{User: user, Session: session, CookieValue: value}, nil
}

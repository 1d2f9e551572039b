package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthConfig groups OAuth sign-in, cookie sessions and personal access tokens
type AuthConfig struct {
	OAuth   OAuthConfig   `mapstructure:"oauth"`
	Session SessionConfig `mapstructure:"session"`
	Tokens  TokenConfig   `mapstructure:"tokens"`
}

// OAuthConfig selects the identity provider used for browser sign-in
type OAuthConfig struct {
	// Provider is "github" or "oidc"
	Provider string `mapstructure:"provider"`

	ClientID string `mapstructure:"client_id"`

	// ClientSecret should come from SETUPHUB_AUTH_OAUTH_CLIENT_SECRET in production
	ClientSecret string `mapstructure:"client_secret"`

	// RedirectURL is the absolute callback URL registered with the provider,
	// e.g. https://setuphub.dev/api/v1/auth/callback
	RedirectURL string `mapstructure:"redirect_url"`

	// IssuerURL is only used by the oidc provider for discovery
	IssuerURL string `mapstructure:"issuer_url"`

	Scopes []string `mapstructure:"scopes"`

	// APIBaseURL is the GitHub REST endpoint; overridable for GitHub Enterprise
	APIBaseURL string `mapstructure:"api_base_url"`

	TimeoutSeconds int `mapstructure:"timeout"`
}

// SessionConfig controls browser sessions
type SessionConfig struct {
	// Secret is the root key the cookie signing key is derived from
	Secret string `mapstructure:"secret"`

	CookieName string `mapstructure:"cookie_name"`

	// TTLHours is how long a session stays valid after sign-in
	TTLHours int `mapstructure:"ttl_hours"`

	// Secure marks cookies as HTTPS-only
	Secure bool `mapstructure:"secure"`

	Domain string `mapstructure:"domain"`
}

// TokenConfig controls personal access token issuance
type TokenConfig struct {
	// Prefix is prepended to every generated secret so leaked tokens are recognizable
	Prefix string `mapstructure:"prefix"`

	// MaxExpiryDays caps the expiry a user can request; 0 means unlimited
	MaxExpiryDays int `mapstructure:"max_expiry_days"`
}

// DefaultAuthConfig returns default auth configuration
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		OAuth: OAuthConfig{
			Provider:       "github",
			Scopes:         []string{"read:user", "user:email"},
			APIBaseURL:     "https://api.github.com",
			TimeoutSeconds: 10,
		},
		Session: SessionConfig{
			CookieName: "setuphub_session",
			TTLHours:   24 * 30,
		},
		Tokens: TokenConfig{
			Prefix:        "shub_",
			MaxExpiryDays: 365,
		},
	}
}

// IsConfigured returns true if sign-in can be offered at all
func (o *OAuthConfig) IsConfigured() bool {
	if o.ClientID == "" || o.ClientSecret == "" || o.RedirectURL == "" {
		return false
	}
	if o.IsOIDC() {
		return o.IssuerURL != ""
	}
	return true
}

// IsOIDC reports whether the generic OIDC provider is selected
func (o *OAuthConfig) IsOIDC() bool {
	return strings.EqualFold(o.Provider, "oidc")
}

// Timeout returns the provider request timeout
func (o *OAuthConfig) Timeout() time.Duration {
	if o.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// TTL returns the session lifetime
func (s *SessionConfig) TTL() time.Duration {
	if s.TTLHours <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(s.TTLHours) * time.Hour
}

// Validate checks the auth section
func (a *AuthConfig) Validate() error {
	switch strings.ToLower(a.OAuth.Provider) {
	case "github", "oidc":
	default:
		return fmt.Errorf("invalid oauth provider: %s", a.OAuth.Provider)
	}

	if len(a.Session.Secret) < 32 {
		return fmt.Errorf("session secret must be at least 32 characters")
	}
	if a.Session.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}

	if a.Tokens.Prefix == "" {
		return fmt.Errorf("token prefix is required")
	}
	if a.Tokens.MaxExpiryDays < 0 {
		return fmt.Errorf("invalid token max expiry: %d", a.Tokens.MaxExpiryDays)
	}

	return nil
}

package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/setuphub/setuphub/internal/application/dto"
	"github.com/setuphub/setuphub/internal/application/service"
	"github.com/setuphub/setuphub/internal/transport/http/middleware"
	"github.com/setuphub/setuphub/pkg/logger"
)

const (
	oauthStateCookie    = "setuphub_oauth_state"
	oauthStateCookieExp = 10 * time.Minute
	authPathPrefix      = "/api/v1/auth"
)

// AuthHandler handles sign-in, sign-out and identity requests
type AuthHandler struct {
	oauthService   *service.OAuthService
	sessionService *service.SessionService
	frontendURL    string
	log            *logger.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(
	oauthService *service.OAuthService,
	sessionService *service.SessionService,
	frontendURL string,
	log *logger.Logger,
) *AuthHandler {
	return &AuthHandler{
		oauthService:   oauthService,
		sessionService: sessionService,
		frontendURL:    frontendURL,
		log:            log.WithComponent("auth-handler"),
	}
}

// Config handles GET /api/v1/auth/config
func (h *AuthHandler) Config(c *gin.Context) {
	resp := dto.AuthConfigResponse{Enabled: h.oauthService.IsEnabled()}
	if resp.Enabled {
		resp.Provider = h.oauthService.ProviderName()
		resp.LoginURL = authPathPrefix + "/login"
	}
	c.JSON(http.StatusOK, resp)
}

// Login handles GET /api/v1/auth/login by redirecting to the identity provider
func (h *AuthHandler) Login(c *gin.Context) {
	authURL, state, err := h.oauthService.LoginURL()
	if err != nil {
		handleError(c, err)
		return
	}

	cfg := h.sessionService.Config()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, int(oauthStateCookieExp.Seconds()), authPathPrefix, cfg.Domain, cfg.Secure, true)

	c.Redirect(http.StatusFound, authURL)
}

// Callback handles GET /api/v1/auth/callback
func (h *AuthHandler) Callback(c *gin.Context) {
	expected, _ := c.Cookie(oauthStateCookie)

	cfg := h.sessionService.Config()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, "", -1, authPathPrefix, cfg.Domain, cfg.Secure, true)

	if providerErr := c.Query("error"); providerErr != "" {
		h.log.Info("Identity provider denied sign-in",
			logger.String("provider_error", providerErr),
			logger.ClientIP(c.ClientIP()),
		)
		c.Redirect(http.StatusFound, h.frontendRedirect("access_denied"))
		return
	}

	result, err := h.oauthService.HandleCallback(
		c.Request.Context(),
		c.Query("code"),
		c.Query("state"),
		expected,
		c.ClientIP(),
		c.Request.UserAgent(),
	)
	if err != nil {
		h.log.Warn("Sign-in callback failed",
			logger.ClientIP(c.ClientIP()),
			logger.Error(err),
		)
		c.Redirect(http.StatusFound, h.frontendRedirect("signin_failed"))
		return
	}

	h.setSessionCookie(c, result.CookieValue, int(cfg.TTL().Seconds()))
	c.Redirect(http.StatusFound, h.frontendRedirect(""))
}

// Logout handles POST /api/v1/auth/logout. It always clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	cfg := h.sessionService.Config()
	if value, err := c.Cookie(cfg.CookieName); err == nil && value != "" {
		if err := h.sessionService.Revoke(c.Request.Context(), value); err != nil {
			h.log.Debug("Session revoke failed", logger.Error(err))
		}
	}

	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Signed out"})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	auth := middleware.GetAuthSession(c)
	if auth == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "authentication required",
		})
		return
	}
	c.JSON(http.StatusOK, dto.NewSessionResponse(auth))
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	cfg := h.sessionService.Config()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, value, maxAge, "/", cfg.Domain, cfg.Secure, true)
}

func (h *AuthHandler) frontendRedirect(authError string) string {
	target := h.frontendURL
	if target == "" {
		target = "/"
	}
	if authError == "" {
		return target
	}

	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("auth_error", authError)
	u.RawQuery = q.Encode()
	return u.String()
}

package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/setuphub/setuphub/internal/domain/models"
	"github.com/setuphub/setuphub/internal/domain/repository"
	domainservice "github.com/setuphub/setuphub/internal/domain/service"
	"github.com/setuphub/setuphub/internal/observability"
	apperrors "github.com/setuphub/setuphub/pkg/errors"
	"github.com/setuphub/setuphub/pkg/logger"
)

const (
	patSessionPrefix = "pat_"
	lastUsedTimeout  = 5 * time.Second
)

// AuthResolverImpl resolves a request to an identity. A bearer PAT is tried
// first; any failure on that path falls back to the session cookie.
type AuthResolverImpl struct {
	tokenRepo repository.TokenRepository
	userRepo  repository.UserRepository
	sessions  domainservice.SessionResolver
	metrics   *observability.Metrics
	log       *logger.Logger
	now       func() time.Time
}

// NewAuthResolver creates a new AuthResolverImpl instance
func NewAuthResolver(
	tokenRepo repository.TokenRepository,
	userRepo repository.UserRepository,
	sessions domainservice.SessionResolver,
	metrics *observability.Metrics,
	log *logger.Logger,
) *AuthResolverImpl {
	return &AuthResolverImpl{
		tokenRepo: tokenRepo,
		userRepo:  userRepo,
		sessions:  sessions,
		metrics:   metrics,
		log:       log.WithComponent("auth-resolver"),
		now:       time.Now,
	}
}

// Resolve returns the acting identity or nil. It never fails.
func (r *AuthResolverImpl) Resolve(ctx context.Context, req *http.Request) *models.AuthSession {
	if session := r.resolveToken(ctx, req); session != nil {
		r.metrics.RecordAuth(string(models.AuthMethodToken))
		return session
	}

	if r.sessions != nil {
		session, err := r.sessions.ResolveCookie(ctx, req)
		if err != nil {
			r.log.Debug("Session cookie rejected", logger.Error(err))
		} else if session != nil {
			r.metrics.RecordAuth(string(models.AuthMethodSession))
			return session
		}
	}

	r.metrics.RecordAuth("")
	return nil
}

// resolveToken handles the Authorization: Bearer path. Every failure
// returns nil so the caller can try the cookie.
func (r *AuthResolverImpl) resolveToken(ctx context.Context, req *http.Request) *models.AuthSession {
	raw, ok := bearerToken(req.Header.Get("Authorization"))
	if !ok {
		return nil
	}

	token, err := r.tokenRepo.FindByHash(ctx, hashToken(raw))
	if err != nil {
		if !apperrors.IsNotFound(err) {
			r.log.Debug("Token lookup failed", logger.Error(err))
		}
		return nil
	}

	now := r.now()
	if token.IsExpired(now) {
		r.log.Debug("Expired token presented", logger.TokenID(token.ID.String()))
		return nil
	}

	r.touchLastUsed(token.ID, now)

	user, err := r.userRepo.FindByID(ctx, token.UserID)
	if err != nil {
		r.log.Debug("Token owner lookup failed",
			logger.TokenID(token.ID.String()),
			logger.Error(err),
		)
		return nil
	}

	return &models.AuthSession{
		User:    user,
		Session: tokenSessionView(token, now),
		Method:  models.AuthMethodToken,
	}
}

// touchLastUsed records token use without blocking the request. The write
// runs on a detached context so it survives the request finishing.
func (r *AuthResolverImpl) touchLastUsed(id uuid.UUID, at time.Time) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), lastUsedTimeout)
		defer cancel()

		if err := r.tokenRepo.UpdateLastUsed(ctx, id, at); err != nil {
			r.log.Debug("Failed to record token use",
				logger.TokenID(id.String()),
				logger.Error(err),
			)
		}
	}()
}

// tokenSessionView builds the synthetic session for PAT auth. The secret is
// never echoed back, so Token stays empty.
func tokenSessionView(token *models.PersonalAccessToken, now time.Time) models.SessionView {
	expiresAt := now.AddDate(1, 0, 0)
	if token.ExpiresAt != nil {
		expiresAt = *token.ExpiresAt
	}

	return models.SessionView{
		ID:        patSessionPrefix + token.ID.String(),
		UserID:    token.UserID.String(),
		ExpiresAt: expiresAt,
		CreatedAt: token.CreatedAt,
		UpdatedAt: token.UpdatedAt,
	}
}

// bearerToken extracts the credential of a "Bearer <token>" header
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// Verify interface compliance at compile time
var _ domainservice.AuthResolver = (*AuthResolverImpl)(nil)

package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"github.com/setuphub/setuphub/internal/config"
	"github.com/setuphub/setuphub/internal/domain/models"
	"github.com/setuphub/setuphub/internal/domain/repository"
	domainservice "github.com/setuphub/setuphub/internal/domain/service"
	apperrors "github.com/setuphub/setuphub/pkg/errors"
	"github.com/setuphub/setuphub/pkg/logger"
)

const (
	sessionIssuer     = "setuphub"
	sessionKeyInfo    = "setuphub session cookie v1"
	sessionSecretSize = 32
	maxIPLength       = 64
	maxUserAgentLen   = 512
)

// SessionClaims represents the claims in the session cookie JWT.
// The JWT id is the session row id; Secret is checked against the stored hash.
type SessionClaims struct {
	jwt.RegisteredClaims
	Secret string `json:"sec"`
}

// SessionService manages DB-backed browser sessions carried in a signed cookie
type SessionService struct {
	sessionRepo repository.SessionRepository
	cfg         config.SessionConfig
	key         []byte
	log         *logger.Logger
	now         func() time.Time
}

// NewSessionService derives the cookie signing key from the configured secret
func NewSessionService(
	sessionRepo repository.SessionRepository,
	cfg config.SessionConfig,
	log *logger.Logger,
) (*SessionService, error) {
	key, err := deriveSessionKey(cfg.Secret)
	if err != nil {
		return nil, err
	}

	return &SessionService{
		sessionRepo: sessionRepo,
		cfg:         cfg,
		key:         key,
		log:         log.WithComponent("session-service"),
		now:         time.Now,
	}, nil
}

// Config returns the cookie settings
func (s *SessionService) Config() config.SessionConfig {
	return s.cfg
}

// CreateSession stores a new session for the user and returns the cookie value
func (s *SessionService) CreateSession(ctx context.Context, user *models.User, ip, userAgent string) (string, *models.Session, error) {
	secret, err := randomString(sessionSecretSize)
	if err != nil {
		return "", nil, apperrors.InternalError("failed to generate session secret", err)
	}

	now := s.now()
	session := &models.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(secret),
		ExpiresAt: now.Add(s.cfg.TTL()),
		IPAddress: optional(truncate(ip, maxIPLength)),
		UserAgent: optional(truncate(userAgent, maxUserAgentLen)),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return "", nil, err
	}

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID.String(),
			Issuer:    sessionIssuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
		Secret: secret,
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", nil, apperrors.InternalError("failed to sign session", err)
	}

	s.log.Info("Session created",
		logger.UserID(user.ID.String()),
		logger.SessionID(session.ID.String()),
	)
	return value, session, nil
}

// ResolveCookie loads the session named by the request cookie.
// A request without the cookie resolves to nil without error.
func (s *SessionService) ResolveCookie(ctx context.Context, r *http.Request) (*models.AuthSession, error) {
	cookie, err := r.Cookie(s.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	session, err := s.Verify(ctx, cookie.Value)
	if err != nil {
		return nil, err
	}
	if session.User == nil {
		return nil, apperrors.Unauthorized("session user not found", apperrors.ErrInvalidToken)
	}

	return &models.AuthSession{
		User: session.User,
		Session: models.SessionView{
			ID:        session.ID.String(),
			UserID:    session.UserID.String(),
			ExpiresAt: session.ExpiresAt,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
			IPAddress: session.IPAddress,
			UserAgent: session.UserAgent,
		},
		Method: models.AuthMethodSession,
	}, nil
}

// Verify checks the cookie signature, the stored row, its expiry and its secret
func (s *SessionService) Verify(ctx context.Context, value string) (*models.Session, error) {
	claims, err := s.parse(value, true)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid session", apperrors.ErrInvalidToken)
	}

	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized("session not found", apperrors.ErrInvalidToken)
		}
		return nil, err
	}

	if !session.ExpiresAt.After(s.now()) {
		return nil, apperrors.Unauthorized("session expired", apperrors.ErrTokenExpired)
	}
	if subtle.ConstantTimeCompare([]byte(hashToken(claims.Secret)), []byte(session.TokenHash)) != 1 {
		return nil, apperrors.Unauthorized("invalid session", apperrors.ErrInvalidToken)
	}

	return session, nil
}

// Revoke deletes the session named by a cookie value. Expired but correctly
// signed cookies are accepted so that logout always cleans up.
func (s *SessionService) Revoke(ctx context.Context, value string) error {
	claims, err := s.parse(value, false)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return apperrors.Unauthorized("invalid session", apperrors.ErrInvalidToken)
	}

	if err := s.sessionRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info("Session revoked", logger.SessionID(id.String()))
	return nil
}

// PurgeExpired removes sessions past their expiry
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx, s.now())
}

func (s *SessionService) parse(value string, validateClaims bool) (*SessionClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(s.now),
	}
	if !validateClaims {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.Unauthorized("session expired", apperrors.ErrTokenExpired)
		}
		return nil, apperrors.Unauthorized("invalid session", apperrors.ErrInvalidToken)
	}
	if !token.Valid {
		return nil, apperrors.Unauthorized("invalid session", apperrors.ErrInvalidToken)
	}
	return claims, nil
}

func deriveSessionKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, apperrors.NewAppError(apperrors.CodeInternalServerError, "session secret is not configured", apperrors.ErrConfigError)
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(sessionKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive session key: %w", err)
	}
	return key, nil
}

func randomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ domainservice.SessionResolver = (*SessionService)(nil)

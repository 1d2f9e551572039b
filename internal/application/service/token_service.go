package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/setuphub/setuphub/internal/config"
	"github.com/setuphub/setuphub/internal/domain/models"
	"github.com/setuphub/setuphub/internal/domain/repository"
	apperrors "github.com/setuphub/setuphub/pkg/errors"
	"github.com/setuphub/setuphub/pkg/logger"
)

const (
	tokenSecretBytes  = 32
	maxTokenNameChars = 255
)

// TokenService handles personal access token operations
type TokenService struct {
	tokenRepo repository.TokenRepository
	cfg       config.TokenConfig
	log       *logger.Logger
	now       func() time.Time
}

// NewTokenService creates a new TokenService instance
func NewTokenService(
	tokenRepo repository.TokenRepository,
	cfg config.TokenConfig,
	log *logger.Logger,
) *TokenService {
	return &TokenService{
		tokenRepo: tokenRepo,
		cfg:       cfg,
		log:       log.WithComponent("token-service"),
		now:       time.Now,
	}
}

// CreateTokenRequest represents a request to create a new PAT
type CreateTokenRequest struct {
	UserID        uuid.UUID
	Name          string
	ExpiresInDays *int // nil = never expires
}

// IssuedToken carries a token row and its plaintext secret.
// RawToken is only ever available here, right after creation or rotation.
type IssuedToken struct {
	Token    *models.PersonalAccessToken
	RawToken string
}

// CreateToken issues the user's personal access token. A user may hold only
// one; a second create is a conflict.
func (s *TokenService) CreateToken(ctx context.Context, req CreateTokenRequest) (*IssuedToken, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.ValidationError("name", "token name is required")
	}
	if utf8.RuneCountInString(name) > maxTokenNameChars {
		return nil, apperrors.ValidationError("name", fmt.Sprintf("token name must be at most %d characters", maxTokenNameChars))
	}

	now := s.now()
	expiresAt, err := s.expiry(now, req.ExpiresInDays)
	if err != nil {
		return nil, err
	}

	exists, err := s.tokenRepo.ExistsForUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Conflict("a token already exists; rotate or delete it first", apperrors.ErrTokenExists)
	}

	raw, err := generateTokenSecret(s.cfg.Prefix)
	if err != nil {
		return nil, apperrors.InternalError("failed to generate token", err)
	}

	token := &models.PersonalAccessToken{
		Name:      name,
		TokenHash: hashToken(raw),
		UserID:    req.UserID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, err
	}

	s.log.Info("Personal access token created",
		logger.UserID(req.UserID.String()),
		logger.TokenID(token.ID.String()),
	)
	return &IssuedToken{Token: token, RawToken: raw}, nil
}

// RotateToken replaces the user's token secret in place. The previous
// plaintext stops matching as soon as the row is updated.
func (s *TokenService) RotateToken(ctx context.Context, userID uuid.UUID) (*IssuedToken, error) {
	token, err := s.tokenRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	raw, err := generateTokenSecret(s.cfg.Prefix)
	if err != nil {
		return nil, apperrors.InternalError("failed to generate token", err)
	}

	now := s.now()
	hash := hashToken(raw)
	if err := s.tokenRepo.Rotate(ctx, token.ID, hash, now); err != nil {
		return nil, err
	}

	token.TokenHash = hash
	token.CreatedAt = now
	token.LastUsedAt = nil

	s.log.Info("Personal access token rotated",
		logger.UserID(userID.String()),
		logger.TokenID(token.ID.String()),
	)
	return &IssuedToken{Token: token, RawToken: raw}, nil
}

// GetToken returns the user's token metadata
func (s *TokenService) GetToken(ctx context.Context, userID uuid.UUID) (*models.PersonalAccessToken, error) {
	return s.tokenRepo.FindByUserID(ctx, userID)
}

// DeleteToken removes a token owned by the user. A missing token and a
// token owned by someone else are indistinguishable to the caller.
func (s *TokenService) DeleteToken(ctx context.Context, userID, tokenID uuid.UUID) error {
	token, err := s.tokenRepo.FindByID(ctx, tokenID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NotFoundOrUnauthorized("token")
		}
		return err
	}
	if token.UserID != userID {
		return apperrors.NotFoundOrUnauthorized("token")
	}

	if err := s.tokenRepo.Delete(ctx, tokenID); err != nil {
		return err
	}

	s.log.Info("Personal access token deleted",
		logger.UserID(userID.String()),
		logger.TokenID(tokenID.String()),
	)
	return nil
}

func (s *TokenService) expiry(now time.Time, days *int) (*time.Time, error) {
	if days == nil {
		return nil, nil
	}
	if *days < 1 {
		return nil, apperrors.ValidationError("expires_in_days", "must be at least 1")
	}
	if s.cfg.MaxExpiryDays > 0 && *days > s.cfg.MaxExpiryDays {
		return nil, apperrors.ValidationError("expires_in_days", fmt.Sprintf("must be at most %d", s.cfg.MaxExpiryDays))
	}
	at := now.AddDate(0, 0, *days)
	return &at, nil
}

// generateTokenSecret returns prefix followed by 64 hex chars
func generateTokenSecret(prefix string) (string, error) {
	b := make([]byte, tokenSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return prefix + hex.EncodeToString(b), nil
}

// hashToken returns the SHA-256 hex digest stored in place of a secret
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

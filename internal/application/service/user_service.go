package service

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/setuphub/setuphub/internal/domain/models"
	"github.com/setuphub/setuphub/internal/domain/repository"
	apperrors "github.com/setuphub/setuphub/pkg/errors"
	"github.com/setuphub/setuphub/pkg/logger"
)

const (
	maxUsernameLength    = 39
	minUsernameLength    = 3
	maxUsernameAttempts  = 20
	maxProfileNameLength = 100
)

// Identity is a user profile as reported by the identity provider
type Identity struct {
	Provider  string
	Subject   string
	Login     string
	Name      string
	Email     string
	AvatarURL string
}

// UserService handles user-related business logic
type UserService struct {
	userRepo repository.UserRepository
	policy   *bluemonday.Policy
	log      *logger.Logger
}

// NewUserService creates a new UserService instance
func NewUserService(
	userRepo repository.UserRepository,
	log *logger.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		policy:   bluemonday.StrictPolicy(),
		log:      log.WithComponent("user-service"),
	}
}

// UpdateProfileRequest represents a request to update a user's profile
type UpdateProfileRequest struct {
	Name *string
}

// FindOrCreate returns the user linked to the identity, creating one on
// first sign-in. Profile fields are refreshed from the provider each time.
func (s *UserService) FindOrCreate(ctx context.Context, id *Identity) (*models.User, error) {
	if id.Subject == "" {
		return nil, apperrors.Unauthorized("identity provider returned no subject", apperrors.ErrUnauthorized)
	}

	user, err := s.userRepo.FindByProviderSubject(ctx, id.Provider, id.Subject)
	if err == nil {
		return s.refreshProfile(ctx, user, id)
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	base := sanitizeUsername(id.Login)
	if base == "" {
		base = sanitizeUsername(strings.Split(id.Email, "@")[0])
	}
	if base == "" {
		base = "user"
	}
	if len(base) < minUsernameLength {
		base += strings.Repeat("0", minUsernameLength-len(base))
	}

	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		username := usernameCandidate(base, attempt)

		exists, err := s.userRepo.ExistsByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		user := &models.User{
			Username:        username,
			Name:            s.clean(id.Name),
			Email:           strings.ToLower(strings.TrimSpace(id.Email)),
			Image:           id.AvatarURL,
			Provider:        id.Provider,
			ProviderSubject: id.Subject,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			// lost a race for the username; try the next suffix
			if apperrors.IsConflict(err) {
				continue
			}
			return nil, err
		}

		s.log.Info("User created",
			logger.UserID(user.ID.String()),
			logger.Username(user.Username),
			logger.String("provider", id.Provider),
		)
		return user, nil
	}

	return nil, apperrors.Conflict("could not allocate a unique username", apperrors.ErrUserExists)
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// GetUserByUsername retrieves a user by username
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.FindByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
}

// UpdateProfile updates the editable parts of a user's profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := s.clean(*req.Name)
		if n := utf8.RuneCountInString(name); n < 1 || n > maxProfileNameLength {
			return nil, apperrors.ValidationError("name", fmt.Sprintf("name must be 1 to %d characters", maxProfileNameLength))
		}
		user.Name = name
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("Profile updated", logger.UserID(user.ID.String()))
	return user, nil
}

func (s *UserService) refreshProfile(ctx context.Context, user *models.User, id *Identity) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(id.Email))
	changed := false
	if email != "" && email != user.Email {
		user.Email = email
		changed = true
	}
	if id.AvatarURL != "" && id.AvatarURL != user.Image {
		user.Image = id.AvatarURL
		changed = true
	}
	if user.Name == "" && id.Name != "" {
		user.Name = s.clean(id.Name)
		changed = true
	}

	if changed {
		if err := s.userRepo.Update(ctx, user); err != nil {
			// sign-in still succeeds with the stale profile
			s.log.Warn("Failed to refresh profile",
				logger.UserID(user.ID.String()),
				logger.Error(err),
			)
		}
	}
	return user, nil
}

func (s *UserService) clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

// usernameCandidate returns base for the first attempt and base2, base3, ...
// afterwards, keeping the result within the length limit
func usernameCandidate(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	suffix := strconv.Itoa(attempt + 1)
	if len(base)+len(suffix) > maxUsernameLength {
		base = base[:maxUsernameLength-len(suffix)]
	}
	return base + suffix
}

// sanitizeUsername keeps lowercase alphanumerics and single dashes
func sanitizeUsername(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		case (r == '-' || r == '_' || r == '.' || r == ' ') && !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}

	username := strings.Trim(b.String(), "-")
	if len(username) > maxUsernameLength {
		username = strings.TrimRight(username[:maxUsernameLength], "-")
	}
	return username
}

package service

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/setuphub/setuphub/internal/domain/models"
	"github.com/setuphub/setuphub/internal/domain/repository"
	"github.com/setuphub/setuphub/internal/observability"
	apperrors "github.com/setuphub/setuphub/pkg/errors"
	"github.com/setuphub/setuphub/pkg/logger"
)

const (
	maxDisplayNameChars = 100
	maxDescriptionChars = 500
	maxExtensions       = 1000
	maxThemeChars       = 200
	maxPageLimit        = 100
)

var editorNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,49}$`)

// SetupService handles setup sync, listing and editing
type SetupService struct {
	setupRepo repository.SetupRepository
	userRepo  repository.UserRepository
	policy    *bluemonday.Policy
	metrics   *observability.Metrics
	log       *logger.Logger
}

// NewSetupService creates a new SetupService instance
func NewSetupService(
	setupRepo repository.SetupRepository,
	userRepo repository.UserRepository,
	metrics *observability.Metrics,
	log *logger.Logger,
) *SetupService {
	return &SetupService{
		setupRepo: setupRepo,
		userRepo:  userRepo,
		policy:    bluemonday.StrictPolicy(),
		metrics:   metrics,
		log:       log.WithComponent("setup-service"),
	}
}

// SyncSetupRequest is what the editor extension pushes
type SyncSetupRequest struct {
	EditorName  string
	DisplayName string
	Description string
	Content     models.SetupContent
}

// UpdateSetupRequest represents a partial update; nil fields are left alone
type UpdateSetupRequest struct {
	DisplayName *string
	Description *string
	IsPublic    *bool
}

// ListSetupsQuery filters the public listing
type ListSetupsQuery struct {
	Query  string
	Editor string
	Sort   string
	Limit  int
	Offset int
}

// SetupPage is one page of a listing
type SetupPage struct {
	Setups []*models.Setup
	Total  int64
	Limit  int
	Offset int
}

// SyncSetup creates or replaces the user's setup for one editor.
// New setups are public; an existing setup keeps its visibility and stars.
func (s *SetupService) SyncSetup(ctx context.Context, userID uuid.UUID, req SyncSetupRequest) (*models.Setup, error) {
	editor := strings.ToLower(strings.TrimSpace(req.EditorName))
	if !editorNamePattern.MatchString(editor) {
		return nil, apperrors.ValidationError("editor_name", "editor name must be lowercase letters, digits or dashes, at most 50 characters")
	}

	displayName, err := s.displayName(req.DisplayName)
	if err != nil {
		return nil, err
	}
	description, err := s.description(req.Description)
	if err != nil {
		return nil, err
	}
	content, err := s.content(req.Content)
	if err != nil {
		return nil, err
	}

	setup, err := s.setupRepo.Upsert(ctx, &models.Setup{
		UserID:      userID,
		EditorName:  editor,
		DisplayName: displayName,
		Description: description,
		Content:     content,
		IsPublic:    true,
	})
	if err != nil {
		s.log.Error("Failed to sync setup",
			logger.UserID(userID.String()),
			logger.EditorName(editor),
			logger.Error(err),
		)
		return nil, err
	}

	s.metrics.RecordSetupSync()
	s.log.Info("Setup synced",
		logger.UserID(userID.String()),
		logger.SetupID(setup.ID.String()),
		logger.EditorName(editor),
		logger.Int("extensions", len(content.Extensions)),
	)
	return setup, nil
}

// ListPublic returns a page of public setups
func (s *SetupService) ListPublic(ctx context.Context, q ListSetupsQuery) (*SetupPage, error) {
	sort := repository.SortByRecent
	switch strings.ToLower(q.Sort) {
	case "", string(repository.SortByRecent):
	case string(repository.SortByStars):
		sort = repository.SortByStars
	default:
		return nil, apperrors.ValidationError("sort", "sort must be stars or recent")
	}

	limit := q.Limit
	if limit == 0 {
		limit = 20
	}
	if limit < 1 || limit > maxPageLimit {
		return nil, apperrors.ValidationError("limit", fmt.Sprintf("limit must be between 1 and %d", maxPageLimit))
	}
	if q.Offset < 0 {
		return nil, apperrors.ValidationError("offset", "offset must not be negative")
	}

	setups, total, err := s.setupRepo.ListPublic(ctx, repository.SetupQuery{
		Search: strings.TrimSpace(q.Query),
		Editor: strings.ToLower(strings.TrimSpace(q.Editor)),
		Sort:   sort,
		Limit:  limit,
		Offset: q.Offset,
	})
	if err != nil {
		return nil, err
	}

	return &SetupPage{Setups: setups, Total: total, Limit: limit, Offset: q.Offset}, nil
}

// GetSetup returns a setup the viewer may see. Private setups of other
// users are reported as not found.
func (s *SetupService) GetSetup(ctx context.Context, viewer *models.User, id string) (*models.Setup, error) {
	setupID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.NotFound("setup", apperrors.ErrNotFound)
	}

	setup, err := s.setupRepo.FindByID(ctx, setupID)
	if err != nil {
		return nil, err
	}
	if !setup.VisibleTo(viewer) {
		return nil, apperrors.NotFound("setup", apperrors.ErrNotFound)
	}
	return setup, nil
}

// UpdateSetup edits metadata of a setup owned by userID
func (s *SetupService) UpdateSetup(ctx context.Context, userID uuid.UUID, id string, req UpdateSetupRequest) (*models.Setup, error) {
	setup, err := s.ownedSetup(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]interface{})
	if req.DisplayName != nil {
		name, err := s.displayName(*req.DisplayName)
		if err != nil {
			return nil, err
		}
		changes["display_name"] = name
	}
	if req.Description != nil {
		description, err := s.description(*req.Description)
		if err != nil {
			return nil, err
		}
		changes["description"] = description
	}
	if req.IsPublic != nil {
		changes["is_public"] = *req.IsPublic
	}

	if len(changes) == 0 {
		return setup, nil
	}
	if err := s.setupRepo.Update(ctx, setup.ID, changes); err != nil {
		return nil, err
	}

	s.log.Info("Setup updated",
		logger.UserID(userID.String()),
		logger.SetupID(setup.ID.String()),
	)
	return s.setupRepo.FindByID(ctx, setup.ID)
}

// DeleteSetup removes a setup owned by userID together with its stars
func (s *SetupService) DeleteSetup(ctx context.Context, userID uuid.UUID, id string) error {
	setup, err := s.ownedSetup(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.setupRepo.Delete(ctx, setup.ID); err != nil {
		return err
	}

	s.log.Info("Setup deleted",
		logger.UserID(userID.String()),
		logger.SetupID(setup.ID.String()),
	)
	return nil
}

// ListByUser returns a user's setups; the owner also sees private ones
func (s *SetupService) ListByUser(ctx context.Context, viewer *models.User, username string) ([]*models.Setup, error) {
	owner, err := s.userRepo.FindByUsername(ctx, strings.ToLower(username))
	if err != nil {
		return nil, err
	}

	includePrivate := viewer != nil && viewer.ID == owner.ID
	return s.setupRepo.ListByUser(ctx, owner.ID, includePrivate)
}

func (s *SetupService) ownedSetup(ctx context.Context, userID uuid.UUID, id string) (*models.Setup, error) {
	setupID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.NotFoundOrUnauthorized("setup")
	}

	setup, err := s.setupRepo.FindByID(ctx, setupID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFoundOrUnauthorized("setup")
		}
		return nil, err
	}
	if setup.UserID != userID {
		return nil, apperrors.NotFoundOrUnauthorized("setup")
	}
	return setup, nil
}

// sanitize strips markup. bluemonday escapes entities, which are unescaped
// again because values are stored as plain text and escaped on render.
func (s *SetupService) sanitize(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

func (s *SetupService) displayName(v string) (string, error) {
	name := s.sanitize(v)
	if n := utf8.RuneCountInString(name); n < 1 || n > maxDisplayNameChars {
		return "", apperrors.ValidationError("display_name", fmt.Sprintf("display name must be 1 to %d characters", maxDisplayNameChars))
	}
	return name, nil
}

func (s *SetupService) description(v string) (string, error) {
	description := s.sanitize(v)
	if utf8.RuneCountInString(description) > maxDescriptionChars {
		return "", apperrors.ValidationError("description", fmt.Sprintf("description must be at most %d characters", maxDescriptionChars))
	}
	return description, nil
}

func (s *SetupService) content(c models.SetupContent) (models.SetupContent, error) {
	c.Theme = s.sanitize(c.Theme)
	if utf8.RuneCountInString(c.Theme) > maxThemeChars {
		return c, apperrors.ValidationError("content.theme", fmt.Sprintf("theme must be at most %d characters", maxThemeChars))
	}
	if len(c.Extensions) > maxExtensions {
		return c, apperrors.ValidationError("content.extensions", fmt.Sprintf("at most %d extensions are allowed", maxExtensions))
	}

	if c.Font != nil {
		font := *c.Font
		font.Family = s.sanitize(font.Family)
		c.Font = &font
	}

	extensions := make([]models.Extension, 0, len(c.Extensions))
	for _, ext := range c.Extensions {
		ext.ID = strings.TrimSpace(ext.ID)
		if ext.ID == "" {
			return c, apperrors.ValidationError("content.extensions", "extension id is required")
		}
		ext.Name = s.sanitize(ext.Name)
		extensions = append(extensions, ext)
	}
	c.Extensions = extensions

	if c.Settings == nil {
		c.Settings = map[string]interface{}{}
	}
	return c, nil
}

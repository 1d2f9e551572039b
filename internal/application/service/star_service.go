package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/setuphub/setuphub/internal/domain/models"
	"github.com/setuphub/setuphub/internal/domain/repository"
	"github.com/setuphub/setuphub/internal/observability"
	apperrors "github.com/setuphub/setuphub/pkg/errors"
	"github.com/setuphub/setuphub/pkg/logger"
)

// Messages reported by ToggleStar on failure
const (
	MsgSignInToStar    = "Sign in to star setups"
	MsgSetupNotFound   = "Setup not found"
	MsgStarUpdateFails = "Failed to update star"
)

// StarResult is the outcome of a toggle. On failure only Message is set.
type StarResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	IsStarred *bool  `json:"is_starred,omitempty"`
	StarCount *int64 `json:"star_count,omitempty"`
}

// StarStatus is a viewer's star state for one setup
type StarStatus struct {
	IsStarred bool  `json:"is_starred"`
	StarCount int64 `json:"star_count"`
}

// StarService handles starring setups
type StarService struct {
	starRepo  repository.StarRepository
	setupRepo repository.SetupRepository
	metrics   *observability.Metrics
	log       *logger.Logger
}

// NewStarService creates a new StarService instance
func NewStarService(
	starRepo repository.StarRepository,
	setupRepo repository.SetupRepository,
	metrics *observability.Metrics,
	log *logger.Logger,
) *StarService {
	return &StarService{
		starRepo:  starRepo,
		setupRepo: setupRepo,
		metrics:   metrics,
		log:       log.WithComponent("star-service"),
	}
}

// ToggleStar stars the setup for the viewer, or removes the star if present.
// It never returns an error; failures are reported in the result.
func (s *StarService) ToggleStar(ctx context.Context, viewer *models.User, setupID string) StarResult {
	if viewer == nil {
		return StarResult{Message: MsgSignInToStar}
	}

	id, err := uuid.Parse(setupID)
	if err != nil {
		return StarResult{Message: MsgSetupNotFound}
	}

	if _, err := s.visibleSetup(ctx, viewer, id); err != nil {
		if apperrors.IsNotFound(err) {
			return StarResult{Message: MsgSetupNotFound}
		}
		return s.failed(viewer, id, err)
	}

	starred, count, err := s.starRepo.Toggle(ctx, viewer.ID, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return StarResult{Message: MsgSetupNotFound}
		}
		return s.failed(viewer, id, err)
	}

	outcome := "unstarred"
	if starred {
		outcome = "starred"
	}
	s.metrics.RecordStarToggle(outcome)

	s.log.Debug("Star toggled",
		logger.UserID(viewer.ID.String()),
		logger.SetupID(id.String()),
		logger.Bool("starred", starred),
		logger.Int64("star_count", count),
	)
	return StarResult{Success: true, IsStarred: &starred, StarCount: &count}
}

// StarStatus reports whether the viewer starred the setup and its count.
// Anonymous viewers always see IsStarred false.
func (s *StarService) StarStatus(ctx context.Context, viewer *models.User, setupID string) (*StarStatus, error) {
	id, err := uuid.Parse(setupID)
	if err != nil {
		return nil, apperrors.NotFound("setup", apperrors.ErrNotFound)
	}

	setup, err := s.visibleSetup(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	status := &StarStatus{StarCount: setup.StarCount}
	if viewer != nil {
		status.IsStarred, err = s.starRepo.IsStarred(ctx, viewer.ID, id)
		if err != nil {
			return nil, err
		}
	}
	return status, nil
}

// ListStarred returns the setups a user starred, most recent first
func (s *StarService) ListStarred(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Setup, error) {
	return s.starRepo.ListStarred(ctx, userID, limit, offset)
}

func (s *StarService) visibleSetup(ctx context.Context, viewer *models.User, id uuid.UUID) (*models.Setup, error) {
	setup, err := s.setupRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !setup.VisibleTo(viewer) {
		return nil, apperrors.NotFound("setup", apperrors.ErrNotFound)
	}
	return setup, nil
}

func (s *StarService) failed(viewer *models.User, id uuid.UUID, err error) StarResult {
	s.metrics.RecordStarToggle("failed")
	s.log.Error("Failed to toggle star",
		logger.UserID(viewer.ID.String()),
		logger.SetupID(id.String()),
		logger.Error(err),
	)
	return StarResult{Message: MsgStarUpdateFails}
}

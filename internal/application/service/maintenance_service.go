package service

import (
	"context"
	"sync"
	"time"

	"github.com/setuphub/setuphub/internal/domain/repository"
	"github.com/setuphub/setuphub/internal/observability"
	"github.com/setuphub/setuphub/pkg/logger"
)

const maintenanceRunTimeout = 10 * time.Minute

// MaintenanceReport summarizes one maintenance pass
type MaintenanceReport struct {
	ExpiredSessions  int64
	ReconciledSetups int64
}

// MaintenanceService periodically purges expired sessions and repairs
// drifted star counts
type MaintenanceService struct {
	sessions *SessionService
	starRepo repository.StarRepository
	metrics  *observability.Metrics
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
	log      *logger.Logger
}

// NewMaintenanceService creates a new maintenance scheduler
func NewMaintenanceService(
	sessions *SessionService,
	starRepo repository.StarRepository,
	metrics *observability.Metrics,
	interval time.Duration,
	log *logger.Logger,
) *MaintenanceService {
	if interval <= 0 {
		interval = time.Hour
	}

	return &MaintenanceService{
		sessions: sessions,
		starRepo: starRepo,
		metrics:  metrics,
		interval: interval,
		log:      log.WithComponent("maintenance"),
	}
}

// Start starts the scheduler
func (s *MaintenanceService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.log.Warn("Maintenance scheduler already running")
		return
	}

	s.stopChan = make(chan struct{})
	s.running = true
	s.wg.Add(1)

	go s.run(s.stopChan)

	s.log.Info("Maintenance scheduler started", logger.Duration("interval", s.interval))
}

// Stop stops the scheduler and waits for an in-flight pass to finish
func (s *MaintenanceService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("Maintenance scheduler stopped")
}

// IsRunning returns whether the scheduler is running
func (s *MaintenanceService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *MaintenanceService) run(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runScheduled()

	for {
		select {
		case <-ticker.C:
			s.runScheduled()
		case <-stop:
			return
		}
	}
}

func (s *MaintenanceService) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), maintenanceRunTimeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error("Maintenance pass failed", logger.Error(err))
	}
}

// RunOnce performs a single maintenance pass. Both jobs run even if the
// first fails; the first error is returned.
func (s *MaintenanceService) RunOnce(ctx context.Context) (*MaintenanceReport, error) {
	report := &MaintenanceReport{}
	var firstErr error

	if s.sessions != nil {
		purged, err := s.sessions.PurgeExpired(ctx)
		if err != nil {
			firstErr = err
			s.log.Error("Failed to purge expired sessions", logger.Error(err))
		}
		report.ExpiredSessions = purged
		s.metrics.RecordMaintenance("expired_sessions", purged)
	}

	fixed, err := s.starRepo.ReconcileCounts(ctx)
	if err != nil {
		if firstErr == nil {
			firstErr = err
		}
		s.log.Error("Failed to reconcile star counts", logger.Error(err))
	}
	report.ReconciledSetups = fixed
	s.metrics.RecordMaintenance("reconcile_stars", fixed)

	if report.ExpiredSessions > 0 || report.ReconciledSetups > 0 {
		s.log.Info("Maintenance pass finished",
			logger.Int64("expired_sessions", report.ExpiredSessions),
			logger.Int64("reconciled_setups", report.ReconciledSetups),
		)
	}
	return report, firstErr
}

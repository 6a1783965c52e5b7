package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/you/blogauth/domain"
)

const sweepTimeout = 30 * time.Second

// CleanupServiceImpl periodically deletes unverified accounts whose
// registration window lapsed. Each sweep claims accounts one at a time so a
// failure on one never blocks the rest, and a concurrent sweep never deletes
// the same account twice.
type CleanupServiceImpl struct {
	userRepo domain.UserRepository
	otpRepo  domain.OTPRepository
	interval time.Duration
	logger   *slog.Logger

	now func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewCleanupService creates a cleanup service sweeping at the given interval.
func NewCleanupService(userRepo domain.UserRepository, otpRepo domain.OTPRepository, interval time.Duration, logger *slog.Logger) *CleanupServiceImpl {
	return &CleanupServiceImpl{
		userRepo: userRepo,
		otpRepo:  otpRepo,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start launches the background sweep loop. Calling Start on a running
// service is a no-op.
func (s *CleanupServiceImpl) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Warn("cleanup scheduler already running")
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.stopCh, s.done)
	s.logger.Info("cleanup scheduler started", "interval", s.interval)
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
// Calling Stop on a stopped service is a no-op.
func (s *CleanupServiceImpl) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Warn("cleanup scheduler not running")
		return
	}
	s.running = false
	stopCh, done := s.stopCh, s.done
	s.mu.Unlock()

	close(stopCh)
	<-done
	s.logger.Info("cleanup scheduler stopped")
}

func (s *CleanupServiceImpl) loop(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	s.sweepOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *CleanupServiceImpl) sweepOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	if _, err := s.RunSweep(ctx); err != nil {
		s.logger.Error("cleanup sweep failed", "error", err)
	}
}

// RunSweep deletes every expired unverified account and reports a per-account
// outcome. An account already claimed by another sweep is skipped silently.
func (s *CleanupServiceImpl) RunSweep(ctx context.Context) ([]domain.CleanupOutcome, error) {
	users, err := s.userRepo.FindExpiredUnverified(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}

	outcomes := make([]domain.CleanupOutcome, 0, len(users))
	deleted := 0
	for _, user := range users {
		outcome := s.deleteExpired(ctx, user)
		if outcome == nil {
			continue
		}
		if outcome.Status == domain.CleanupSuccess {
			deleted++
		}
		outcomes = append(outcomes, *outcome)
	}

	s.logger.Info("cleanup sweep completed", "candidates", len(users), "deleted", deleted)
	return outcomes, nil
}

// deleteExpired claims and removes a single account. A nil return means the
// account was claimed by a concurrent sweep.
func (s *CleanupServiceImpl) deleteExpired(ctx context.Context, user *domain.User) *domain.CleanupOutcome {
	claimed, err := s.userRepo.MarkPendingDeletion(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to claim account for deletion", "user_id", user.ID, "error", err)
		return &domain.CleanupOutcome{UserID: user.ID, Email: user.Email, Status: domain.CleanupError, Reason: err.Error()}
	}
	if !claimed {
		return nil
	}

	if err := s.otpRepo.DeleteAllForEmail(ctx, user.Email); err != nil {
		s.logger.Warn("failed to delete otp records during cleanup", "email", user.Email, "error", err)
	}

	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		s.logger.Error("failed to delete expired account", "user_id", user.ID, "error", err)
		return &domain.CleanupOutcome{UserID: user.ID, Email: user.Email, Status: domain.CleanupFailed, Reason: err.Error()}
	}

	s.logger.Info("expired unverified account deleted", "user_id", user.ID, "email", user.Email)
	return &domain.CleanupOutcome{UserID: user.ID, Email: user.Email, Status: domain.CleanupSuccess}
}

// Stats reports the unverified-account backlog and whether the scheduler is
// running.
func (s *CleanupServiceImpl) Stats(ctx context.Context) (*domain.CleanupStats, error) {
	stats, err := s.userRepo.UnverifiedStats(ctx, s.now())
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	stats.SchedulerRunning = s.running
	s.mu.Unlock()
	return stats, nil
}

var _ domain.CleanupService = (*CleanupServiceImpl)(nil)

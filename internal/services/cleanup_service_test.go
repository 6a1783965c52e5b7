package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/you/blogauth/domain"
	"github.com/you/blogauth/internal/mocks"
)

func newCleanupFixture(t *testing.T) (*CleanupServiceImpl, *mocks.MockUserRepository, *mocks.MockOTPRepository) {
	t.Helper()
	userRepo := mocks.NewMockUserRepository()
	otpRepo := mocks.NewMockOTPRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewCleanupService(userRepo, otpRepo, time.Hour, logger)
	return svc, userRepo, otpRepo
}

func expiredAccounts(emails ...string) []*domain.User {
	users := make([]*domain.User, 0, len(emails))
	for i, email := range emails {
		users = append(users, &domain.User{ID: uint(i + 1), Email: email})
	}
	return users
}

func TestCleanupService_RunSweep(t *testing.T) {
	t.Run("deletes every expired account", func(t *testing.T) {
		svc, userRepo, otpRepo := newCleanupFixture(t)
		userRepo.FindExpiredUnverifiedFunc = func(ctx context.Context, now time.Time) ([]*domain.User, error) {
			return expiredAccounts("a@example.com", "b@example.com"), nil
		}
		var deletedIDs []uint
		userRepo.DeleteFunc = func(ctx context.Context, id uint) error {
			deletedIDs = append(deletedIDs, id)
			return nil
		}
		var otpEmails []string
		otpRepo.DeleteAllForEmailFunc = func(ctx context.Context, email string) error {
			otpEmails = append(otpEmails, email)
			return nil
		}

		outcomes, err := svc.RunSweep(context.Background())
		if err != nil {
			t.Fatalf("sweep: %v", err)
		}
		if len(outcomes) != 2 {
			t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
		}
		for _, o := range outcomes {
			if o.Status != domain.CleanupSuccess {
				t.Errorf("expected success, got %+v", o)
			}
		}
		if len(deletedIDs) != 2 || len(otpEmails) != 2 {
			t.Errorf("expected both accounts and their otps deleted, got %v %v", deletedIDs, otpEmails)
		}
	})

	t.Run("empty backlog does nothing", func(t *testing.T) {
		svc, userRepo, _ := newCleanupFixture(t)
		userRepo.DeleteFunc = func(ctx context.Context, id uint) error {
			t.Error("nothing should be deleted")
			return nil
		}

		outcomes, err := svc.RunSweep(context.Background())
		if err != nil {
			t.Fatalf("sweep: %v", err)
		}
		if len(outcomes) != 0 {
			t.Errorf("expected no outcomes, got %+v", outcomes)
		}
	})

	t.Run("one failure does not block the rest", func(t *testing.T) {
		svc, userRepo, _ := newCleanupFixture(t)
		userRepo.FindExpiredUnverifiedFunc = func(ctx context.Context, now time.Time) ([]*domain.User, error) {
			return expiredAccounts("a@example.com", "b@example.com", "c@example.com"), nil
		}
		userRepo.DeleteFunc = func(ctx context.Context, id uint) error {
			if id == 2 {
				return errors.New("disk on fire")
			}
			return nil
		}

		outcomes, err := svc.RunSweep(context.Background())
		if err != nil {
			t.Fatalf("sweep: %v", err)
		}
		byStatus := map[string]int{}
		for _, o := range outcomes {
			byStatus[o.Status]++
		}
		if byStatus[domain.CleanupSuccess] != 2 || byStatus[domain.CleanupFailed] != 1 {
			t.Errorf("expected 2 successes and 1 failure, got %v", byStatus)
		}
	})

	t.Run("accounts claimed elsewhere are skipped", func(t *testing.T) {
		svc, userRepo, _ := newCleanupFixture(t)
		userRepo.FindExpiredUnverifiedFunc = func(ctx context.Context, now time.Time) ([]*domain.User, error) {
			return expiredAccounts("a@example.com", "b@example.com"), nil
		}
		userRepo.MarkPendingDeletionFunc = func(ctx context.Context, id uint) (bool, error) {
			return id == 1, nil
		}
		var deletedIDs []uint
		userRepo.DeleteFunc = func(ctx context.Context, id uint) error {
			deletedIDs = append(deletedIDs, id)
			return nil
		}

		outcomes, err := svc.RunSweep(context.Background())
		if err != nil {
			t.Fatalf("sweep: %v", err)
		}
		if len(outcomes) != 1 || outcomes[0].UserID != 1 {
			t.Errorf("expected only the claimed account reported, got %+v", outcomes)
		}
		if len(deletedIDs) != 1 || deletedIDs[0] != 1 {
			t.Errorf("expected only the claimed account deleted, got %v", deletedIDs)
		}
	})

	t.Run("backlog query failure aborts the sweep", func(t *testing.T) {
		svc, userRepo, _ := newCleanupFixture(t)
		userRepo.FindExpiredUnverifiedFunc = func(ctx context.Context, now time.Time) ([]*domain.User, error) {
			return nil, errors.New("database down")
		}

		if _, err := svc.RunSweep(context.Background()); err == nil {
			t.Error("expected sweep error")
		}
	})
}

func TestCleanupService_StartStopIdempotent(t *testing.T) {
	svc, _, _ := newCleanupFixture(t)

	svc.Start()
	svc.Start() // no-op

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !stats.SchedulerRunning {
		t.Error("expected scheduler running")
	}

	svc.Stop()
	svc.Stop() // no-op

	stats, err = svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.SchedulerRunning {
		t.Error("expected scheduler stopped")
	}
}

func TestCleanupService_StartRunsImmediateSweep(t *testing.T) {
	svc, userRepo, _ := newCleanupFixture(t)
	swept := make(chan struct{}, 1)
	userRepo.FindExpiredUnverifiedFunc = func(ctx context.Context, now time.Time) ([]*domain.User, error) {
		select {
		case swept <- struct{}{}:
		default:
		}
		return nil, nil
	}

	svc.Start()
	defer svc.Stop()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an immediate sweep on start")
	}
}

func TestCleanupService_StatsMergesRepositoryCounts(t *testing.T) {
	svc, userRepo, _ := newCleanupFixture(t)
	userRepo.UnverifiedStatsFunc = func(ctx context.Context, now time.Time) (*domain.CleanupStats, error) {
		return &domain.CleanupStats{TotalUnverified: 5, Expired: 2, PendingExpiry: 3}, nil
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalUnverified != 5 || stats.Expired != 2 || stats.PendingExpiry != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.SchedulerRunning {
		t.Error("scheduler was never started")
	}
}

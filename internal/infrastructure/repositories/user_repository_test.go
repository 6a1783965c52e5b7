package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/you/blogauth/domain"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&DBUser{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func unverifiedUser(email string, expires time.Time) *domain.User {
	return &domain.User{
		Name:                "Test User",
		Email:               email,
		PasswordHash:        "hash",
		Age:                 30,
		AuthMethod:          domain.AuthMethodLocal,
		RegistrationExpires: &expires,
	}
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := unverifiedUser("alice@example.com", time.Now().Add(5*time.Minute))
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected assigned id")
	}

	found, err := repo.FindByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if found.ID != user.ID || found.IsEmailVerified {
		t.Errorf("unexpected record %+v", found)
	}

	byID, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byID.Email != "alice@example.com" {
		t.Errorf("expected alice, got %s", byID.Email)
	}
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, unverifiedUser("alice@example.com", time.Now())); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repo.Create(ctx, unverifiedUser("alice@example.com", time.Now()))
	if !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Errorf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestUserRepository_FindMissing(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := repo.FindByEmail(ctx, "ghost@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.FindByID(ctx, 999); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_MarkVerified(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := unverifiedUser("alice@example.com", time.Now().Add(5*time.Minute))
	repo.Create(ctx, user)

	verified, err := repo.MarkVerified(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	if !verified.IsEmailVerified {
		t.Error("expected verified flag set")
	}
	if verified.RegistrationExpires != nil {
		t.Error("expected registration window cleared")
	}

	if _, err := repo.MarkVerified(ctx, "ghost@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_LockoutRoundTrip(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := unverifiedUser("alice@example.com", time.Now())
	repo.Create(ctx, user)

	block := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	if err := repo.UpdateLockout(ctx, user.ID, 5, &block); err != nil {
		t.Fatalf("update lockout: %v", err)
	}

	locked, _ := repo.FindByID(ctx, user.ID)
	if locked.LoginAttempts != 5 {
		t.Errorf("expected 5 attempts, got %d", locked.LoginAttempts)
	}
	if locked.BlockExpires == nil || !locked.IsLocked(time.Now()) {
		t.Error("expected account locked")
	}

	loginAt := time.Now().Truncate(time.Second)
	if err := repo.RecordLoginSuccess(ctx, user.ID, loginAt); err != nil {
		t.Fatalf("record login: %v", err)
	}

	fresh, _ := repo.FindByID(ctx, user.ID)
	if fresh.LoginAttempts != 0 || fresh.BlockExpires != nil {
		t.Errorf("expected lockout cleared, got attempts=%d block=%v", fresh.LoginAttempts, fresh.BlockExpires)
	}
	if fresh.LastLogin == nil {
		t.Error("expected last login recorded")
	}
}

func TestUserRepository_ResetCredential(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := unverifiedUser("alice@example.com", time.Now())
	repo.Create(ctx, user)
	block := time.Now().Add(time.Hour)
	repo.UpdateLockout(ctx, user.ID, 5, &block)

	if err := repo.ResetCredential(ctx, "alice@example.com", "newhash"); err != nil {
		t.Fatalf("reset credential: %v", err)
	}

	fresh, _ := repo.FindByEmail(ctx, "alice@example.com")
	if fresh.PasswordHash != "newhash" {
		t.Errorf("expected new hash, got %s", fresh.PasswordHash)
	}
	if fresh.LoginAttempts != 0 || fresh.BlockExpires != nil {
		t.Error("reset must clear the lockout")
	}

	if err := repo.ResetCredential(ctx, "ghost@example.com", "x"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_FindExpiredUnverified(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()
	now := time.Now()

	expired := unverifiedUser("expired@example.com", now.Add(-time.Minute))
	repo.Create(ctx, expired)
	pending := unverifiedUser("pending@example.com", now.Add(4*time.Minute))
	repo.Create(ctx, pending)
	verified := unverifiedUser("verified@example.com", now.Add(-time.Minute))
	repo.Create(ctx, verified)
	repo.MarkVerified(ctx, "verified@example.com")

	users, err := repo.FindExpiredUnverified(ctx, now)
	if err != nil {
		t.Fatalf("find expired: %v", err)
	}
	if len(users) != 1 || users[0].Email != "expired@example.com" {
		t.Errorf("expected only the expired unverified account, got %+v", users)
	}
}

func TestUserRepository_MarkPendingDeletionClaimsOnce(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := unverifiedUser("alice@example.com", time.Now().Add(-time.Minute))
	repo.Create(ctx, user)

	claimed, err := repo.MarkPendingDeletion(ctx, user.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !claimed {
		t.Fatal("first claim must succeed")
	}

	claimed, err = repo.MarkPendingDeletion(ctx, user.ID)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if claimed {
		t.Error("second claim must report already claimed")
	}

	// A claimed account no longer shows up as a sweep candidate.
	users, _ := repo.FindExpiredUnverified(ctx, time.Now())
	if len(users) != 0 {
		t.Errorf("claimed account must be excluded, got %+v", users)
	}
}

func TestUserRepository_DeleteIsPhysical(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := unverifiedUser("alice@example.com", time.Now())
	repo.Create(ctx, user)

	if err := repo.Delete(ctx, user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByEmail(ctx, "alice@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected record gone, got %v", err)
	}

	// The email is reusable immediately.
	if err := repo.Create(ctx, unverifiedUser("alice@example.com", time.Now())); err != nil {
		t.Errorf("expected re-registration to work, got %v", err)
	}

	if err := repo.Delete(ctx, 999); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_UnverifiedStats(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()
	now := time.Now()

	repo.Create(ctx, unverifiedUser("a@example.com", now.Add(-time.Minute)))
	repo.Create(ctx, unverifiedUser("b@example.com", now.Add(-2*time.Minute)))
	repo.Create(ctx, unverifiedUser("c@example.com", now.Add(4*time.Minute)))
	repo.Create(ctx, unverifiedUser("d@example.com", now.Add(-time.Minute)))
	repo.MarkVerified(ctx, "d@example.com")

	stats, err := repo.UnverifiedStats(ctx, now)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalUnverified != 3 {
		t.Errorf("expected 3 unverified, got %d", stats.TotalUnverified)
	}
	if stats.Expired != 2 {
		t.Errorf("expected 2 expired, got %d", stats.Expired)
	}
	if stats.PendingExpiry != 1 {
		t.Errorf("expected 1 pending, got %d", stats.PendingExpiry)
	}
}

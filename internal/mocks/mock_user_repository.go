package mocks

import (
	"context"
	"time"

	"github.com/you/blogauth/domain"
)

// MockUserRepository implements domain.UserRepository for testing.
type MockUserRepository struct {
	CreateFunc                   func(ctx context.Context, user *domain.User) error
	FindByEmailFunc              func(ctx context.Context, email string) (*domain.User, error)
	FindByIDFunc                 func(ctx context.Context, id uint) (*domain.User, error)
	UpdateFunc                   func(ctx context.Context, user *domain.User) error
	DeleteFunc                   func(ctx context.Context, id uint) error
	MarkVerifiedFunc             func(ctx context.Context, email string) (*domain.User, error)
	ExtendRegistrationWindowFunc func(ctx context.Context, email string, until time.Time) error
	RecordLoginSuccessFunc       func(ctx context.Context, id uint, at time.Time) error
	UpdateLockoutFunc            func(ctx context.Context, id uint, attempts int, blockExpires *time.Time) error
	UpdatePasswordFunc           func(ctx context.Context, id uint, passwordHash string) error
	ResetCredentialFunc          func(ctx context.Context, email, passwordHash string) error
	BindAuthMethodFunc           func(ctx context.Context, id uint, method string) error
	FindExpiredUnverifiedFunc    func(ctx context.Context, now time.Time) ([]*domain.User, error)
	MarkPendingDeletionFunc      func(ctx context.Context, id uint) (bool, error)
	UnverifiedStatsFunc          func(ctx context.Context, now time.Time) (*domain.CleanupStats, error)
}

// NewMockUserRepository creates a new MockUserRepository with default behaviors.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user)
	}
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) MarkVerified(ctx context.Context, email string) (*domain.User, error) {
	if m.MarkVerifiedFunc != nil {
		return m.MarkVerifiedFunc(ctx, email)
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) ExtendRegistrationWindow(ctx context.Context, email string, until time.Time) error {
	if m.ExtendRegistrationWindowFunc != nil {
		return m.ExtendRegistrationWindowFunc(ctx, email, until)
	}
	return nil
}

func (m *MockUserRepository) RecordLoginSuccess(ctx context.Context, id uint, at time.Time) error {
	if m.RecordLoginSuccessFunc != nil {
		return m.RecordLoginSuccessFunc(ctx, id, at)
	}
	return nil
}

func (m *MockUserRepository) UpdateLockout(ctx context.Context, id uint, attempts int, blockExpires *time.Time) error {
	if m.UpdateLockoutFunc != nil {
		return m.UpdateLockoutFunc(ctx, id, attempts, blockExpires)
	}
	return nil
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) ResetCredential(ctx context.Context, email, passwordHash string) error {
	if m.ResetCredentialFunc != nil {
		return m.ResetCredentialFunc(ctx, email, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) BindAuthMethod(ctx context.Context, id uint, method string) error {
	if m.BindAuthMethodFunc != nil {
		return m.BindAuthMethodFunc(ctx, id, method)
	}
	return nil
}

func (m *MockUserRepository) FindExpiredUnverified(ctx context.Context, now time.Time) ([]*domain.User, error) {
	if m.FindExpiredUnverifiedFunc != nil {
		return m.FindExpiredUnverifiedFunc(ctx, now)
	}
	return nil, nil
}

func (m *MockUserRepository) MarkPendingDeletion(ctx context.Context, id uint) (bool, error) {
	if m.MarkPendingDeletionFunc != nil {
		return m.MarkPendingDeletionFunc(ctx, id)
	}
	return true, nil
}

func (m *MockUserRepository) UnverifiedStats(ctx context.Context, now time.Time) (*domain.CleanupStats, error) {
	if m.UnverifiedStatsFunc != nil {
		return m.UnverifiedStatsFunc(ctx, now)
	}
	return &domain.CleanupStats{}, nil
}

var _ domain.UserRepository = (*MockUserRepository)(nil)

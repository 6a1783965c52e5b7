package mocks

import (
	"context"

	"github.com/you/blogauth/domain"
)

// MockOTPRepository implements domain.OTPRepository for testing.
type MockOTPRepository struct {
	UpsertFunc            func(ctx context.Context, otp *domain.OTP) error
	FindFunc              func(ctx context.Context, email, otpType string) (*domain.OTP, error)
	ConsumeFunc           func(ctx context.Context, email, otpType, code string) error
	IncrementAttemptsFunc func(ctx context.Context, email, otpType string) (int, error)
	DeleteFunc            func(ctx context.Context, email, otpType string) error
	DeleteAllForEmailFunc func(ctx context.Context, email string) error
}

// NewMockOTPRepository creates a new MockOTPRepository with default behaviors.
func NewMockOTPRepository() *MockOTPRepository {
	return &MockOTPRepository{}
}

func (m *MockOTPRepository) Upsert(ctx context.Context, otp *domain.OTP) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, otp)
	}
	return nil
}

func (m *MockOTPRepository) Find(ctx context.Context, email, otpType string) (*domain.OTP, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, email, otpType)
	}
	return nil, domain.ErrOTPNotFound
}

func (m *MockOTPRepository) Consume(ctx context.Context, email, otpType, code string) error {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, email, otpType, code)
	}
	return nil
}

func (m *MockOTPRepository) IncrementAttempts(ctx context.Context, email, otpType string) (int, error) {
	if m.IncrementAttemptsFunc != nil {
		return m.IncrementAttemptsFunc(ctx, email, otpType)
	}
	return 1, nil
}

func (m *MockOTPRepository) Delete(ctx context.Context, email, otpType string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, email, otpType)
	}
	return nil
}

func (m *MockOTPRepository) DeleteAllForEmail(ctx context.Context, email string) error {
	if m.DeleteAllForEmailFunc != nil {
		return m.DeleteAllForEmailFunc(ctx, email)
	}
	return nil
}

var _ domain.OTPRepository = (*MockOTPRepository)(nil)

package mocks

import (
	"context"

	"github.com/you/blogauth/domain"
)

// MockAuthService implements domain.AuthService for handler testing.
type MockAuthService struct {
	RegisterFunc        func(ctx context.Context, firstName, lastName, email, password string, age int, originIP string) error
	VerifySignupFunc    func(ctx context.Context, email, code string) (*domain.AuthResult, error)
	ResendOTPFunc       func(ctx context.Context, email, otpType, originIP string) error
	LoginFunc           func(ctx context.Context, email, password string) (*domain.AuthResult, error)
	VerifyPasswordFunc  func(ctx context.Context, userID uint, password string) error
	SetPasswordFunc     func(ctx context.Context, userID uint, newPassword string) error
	ChangePasswordFunc  func(ctx context.Context, userID uint, currentPassword, newPassword string) error
	ForgotPasswordFunc  func(ctx context.Context, email, originIP string) error
	VerifyResetOTPFunc  func(ctx context.Context, email, code string) error
	ResetPasswordFunc   func(ctx context.Context, email, code, newPassword string) error
	ResolveExternalFunc func(ctx context.Context, profile *domain.ExternalProfile) (*domain.AuthResult, error)
	ProfileFunc         func(ctx context.Context, userID uint) (*domain.User, error)
	UpdateProfileFunc   func(ctx context.Context, userID uint, name string, age int, about string) (*domain.User, error)
	DeleteAccountFunc   func(ctx context.Context, userID uint) error
}

func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

func (m *MockAuthService) Register(ctx context.Context, firstName, lastName, email, password string, age int, originIP string) error {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, firstName, lastName, email, password, age, originIP)
	}
	return nil
}

func (m *MockAuthService) VerifySignup(ctx context.Context, email, code string) (*domain.AuthResult, error) {
	if m.VerifySignupFunc != nil {
		return m.VerifySignupFunc(ctx, email, code)
	}
	return nil, domain.ErrOTPInvalidOrExpired
}

func (m *MockAuthService) ResendOTP(ctx context.Context, email, otpType, originIP string) error {
	if m.ResendOTPFunc != nil {
		return m.ResendOTPFunc(ctx, email, otpType, originIP)
	}
	return nil
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, domain.ErrInvalidCredentials
}

func (m *MockAuthService) VerifyPassword(ctx context.Context, userID uint, password string) error {
	if m.VerifyPasswordFunc != nil {
		return m.VerifyPasswordFunc(ctx, userID, password)
	}
	return nil
}

func (m *MockAuthService) SetPassword(ctx context.Context, userID uint, newPassword string) error {
	if m.SetPasswordFunc != nil {
		return m.SetPasswordFunc(ctx, userID, newPassword)
	}
	return nil
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, userID, currentPassword, newPassword)
	}
	return nil
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email, originIP string) error {
	if m.ForgotPasswordFunc != nil {
		return m.ForgotPasswordFunc(ctx, email, originIP)
	}
	return nil
}

func (m *MockAuthService) VerifyResetOTP(ctx context.Context, email, code string) error {
	if m.VerifyResetOTPFunc != nil {
		return m.VerifyResetOTPFunc(ctx, email, code)
	}
	return nil
}

func (m *MockAuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, email, code, newPassword)
	}
	return nil
}

func (m *MockAuthService) ResolveExternal(ctx context.Context, profile *domain.ExternalProfile) (*domain.AuthResult, error) {
	if m.ResolveExternalFunc != nil {
		return m.ResolveExternalFunc(ctx, profile)
	}
	return nil, domain.ErrExternalProfile
}

func (m *MockAuthService) Profile(ctx context.Context, userID uint) (*domain.User, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, userID)
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, userID uint, name string, age int, about string) (*domain.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, userID, name, age, about)
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockAuthService) DeleteAccount(ctx context.Context, userID uint) error {
	if m.DeleteAccountFunc != nil {
		return m.DeleteAccountFunc(ctx, userID)
	}
	return nil
}

var _ domain.AuthService = (*MockAuthService)(nil)

package mocks

import (
	"context"

	"github.com/you/blogauth/domain"
)

// MockTokenService implements domain.TokenService for testing.
type MockTokenService struct {
	GenerateFunc func(userID uint, email string) (string, error)
	ValidateFunc func(token string) (*domain.TokenClaims, error)
}

func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

func (m *MockTokenService) Generate(userID uint, email string) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(userID, email)
	}
	return "test-token", nil
}

func (m *MockTokenService) Validate(token string) (*domain.TokenClaims, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(token)
	}
	return nil, domain.ErrTokenInvalid
}

// MockPasswordService implements domain.PasswordService for testing.
type MockPasswordService struct {
	HashFunc   func(password string) (string, error)
	VerifyFunc func(hashedPassword, password string) bool
}

func NewMockPasswordService() *MockPasswordService {
	return &MockPasswordService{}
}

func (m *MockPasswordService) Hash(password string) (string, error) {
	if m.HashFunc != nil {
		return m.HashFunc(password)
	}
	return "hashed:" + password, nil
}

func (m *MockPasswordService) Verify(hashedPassword, password string) bool {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(hashedPassword, password)
	}
	return hashedPassword == "hashed:"+password
}

// MockOTPDeliverer implements domain.OTPDeliverer for testing.
type MockOTPDeliverer struct {
	SendFunc func(ctx context.Context, email, code, otpType, originIP string) error

	// Sent records every delivery when SendFunc is nil.
	Sent []SentOTP
}

// SentOTP is one recorded delivery.
type SentOTP struct {
	Email string
	Code  string
	Type  string
	IP    string
}

func NewMockOTPDeliverer() *MockOTPDeliverer {
	return &MockOTPDeliverer{}
}

func (m *MockOTPDeliverer) Send(ctx context.Context, email, code, otpType, originIP string) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, email, code, otpType, originIP)
	}
	m.Sent = append(m.Sent, SentOTP{Email: email, Code: code, Type: otpType, IP: originIP})
	return nil
}

// MockRateLimiter implements domain.RateLimiter for testing.
type MockRateLimiter struct {
	ConsumeFunc func(key string) error

	// Keys records every consumed key when ConsumeFunc is nil.
	Keys []string
}

func NewMockRateLimiter() *MockRateLimiter {
	return &MockRateLimiter{}
}

func (m *MockRateLimiter) Consume(key string) error {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(key)
	}
	m.Keys = append(m.Keys, key)
	return nil
}

var (
	_ domain.TokenService    = (*MockTokenService)(nil)
	_ domain.PasswordService = (*MockPasswordService)(nil)
	_ domain.OTPDeliverer    = (*MockOTPDeliverer)(nil)
	_ domain.RateLimiter     = (*MockRateLimiter)(nil)
)

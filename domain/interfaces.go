package domain

import (
	"context"
	"time"
)

// UserRepository defines credential-store access. Every implementation must
// bound each operation with its own store timeout.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id uint) error

	// MarkVerified flips the verification flag and clears the registration
	// window in one update, returning the fresh record.
	MarkVerified(ctx context.Context, email string) (*User, error)
	ExtendRegistrationWindow(ctx context.Context, email string, until time.Time) error

	RecordLoginSuccess(ctx context.Context, id uint, at time.Time) error
	UpdateLockout(ctx context.Context, id uint, attempts int, blockExpires *time.Time) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	// ResetCredential replaces the password hash and clears lockout state.
	ResetCredential(ctx context.Context, email, passwordHash string) error
	BindAuthMethod(ctx context.Context, id uint, method string) error

	FindExpiredUnverified(ctx context.Context, now time.Time) ([]*User, error)
	// MarkPendingDeletion claims an account for deletion; it reports false
	// when another sweep already claimed it.
	MarkPendingDeletion(ctx context.Context, id uint) (bool, error)
	UnverifiedStats(ctx context.Context, now time.Time) (*CleanupStats, error)
}

// OTPRepository defines the short-lived passcode store. Records expire on
// their own after the store TTL; Consume is an atomic compare-and-delete so
// two concurrent verifications of the same code cannot both win.
type OTPRepository interface {
	Upsert(ctx context.Context, otp *OTP) error
	Find(ctx context.Context, email, otpType string) (*OTP, error)
	Consume(ctx context.Context, email, otpType, code string) error
	IncrementAttempts(ctx context.Context, email, otpType string) (int, error)
	Delete(ctx context.Context, email, otpType string) error
	DeleteAllForEmail(ctx context.Context, email string) error
}

// TokenService issues and validates stateless bearer tokens.
type TokenService interface {
	Generate(userID uint, email string) (string, error)
	Validate(token string) (*TokenClaims, error)
}

// PasswordService defines password hashing operations.
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// OTPDeliverer delivers a passcode to an address. Implementations classify
// failures as ErrMailAuth, ErrMailConnection or ErrMailRejected so callers
// can distinguish retryable from terminal delivery problems.
type OTPDeliverer interface {
	Send(ctx context.Context, email, code, otpType, originIP string) error
}

// RateLimiter is a point-budget limiter keyed by caller-qualified strings.
// Consume returns a *RateLimitedError when the key's budget is exhausted.
type RateLimiter interface {
	Consume(key string) error
}

// ExternalIdentityResolver is the boundary to a third-party login provider.
type ExternalIdentityResolver interface {
	AuthURL(state string) string
	Resolve(ctx context.Context, code string) (*ExternalProfile, error)
}

// AuthService defines the authentication and account-lifecycle business logic.
type AuthService interface {
	Register(ctx context.Context, firstName, lastName, email, password string, age int, originIP string) error
	VerifySignup(ctx context.Context, email, code string) (*AuthResult, error)
	ResendOTP(ctx context.Context, email, otpType, originIP string) error
	Login(ctx context.Context, email, password string) (*AuthResult, error)

	VerifyPassword(ctx context.Context, userID uint, password string) error
	SetPassword(ctx context.Context, userID uint, newPassword string) error
	ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error

	ForgotPassword(ctx context.Context, email, originIP string) error
	VerifyResetOTP(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error

	ResolveExternal(ctx context.Context, profile *ExternalProfile) (*AuthResult, error)

	Profile(ctx context.Context, userID uint) (*User, error)
	UpdateProfile(ctx context.Context, userID uint, name string, age int, about string) (*User, error)
	DeleteAccount(ctx context.Context, userID uint) error
}

// CleanupService sweeps expired unverified accounts in the background.
// Start and Stop are idempotent.
type CleanupService interface {
	Start()
	Stop()
	RunSweep(ctx context.Context) ([]CleanupOutcome, error)
	Stats(ctx context.Context) (*CleanupStats, error)
}

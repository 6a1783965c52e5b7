package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/you/blogauth/domain"
)

const (
	registrationWindow = 5 * time.Minute
	maxLoginAttempts   = 5
	lockoutDuration    = 30 * time.Minute
	maxOTPAttempts     = 3
	otpLength          = 6
	minPasswordLength  = 8
	defaultExternalAge = 18
)

// Limiters groups the named rate limiters the auth service consumes. Each
// guards a different abuse vector, so their key namespaces never overlap.
type Limiters struct {
	OTPIssue       domain.RateLimiter
	ForgotPassword domain.RateLimiter
	OTPVerify      domain.RateLimiter
}

// AuthServiceImpl implements domain.AuthService.
type AuthServiceImpl struct {
	userRepo    domain.UserRepository
	otpRepo     domain.OTPRepository
	passwordSvc domain.PasswordService
	tokenSvc    domain.TokenService
	deliverer   domain.OTPDeliverer
	limiters    Limiters
	logger      *slog.Logger

	now func() time.Time
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo domain.UserRepository,
	otpRepo domain.OTPRepository,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenService,
	deliverer domain.OTPDeliverer,
	limiters Limiters,
	logger *slog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo:    userRepo,
		otpRepo:     otpRepo,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		deliverer:   deliverer,
		limiters:    limiters,
		logger:      logger,
		now:         time.Now,
	}
}

// NormalizeEmail lowercases and trims an address; emails are unique
// case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register implements domain.AuthService. It creates an unverified account
// with a five-minute registration window and dispatches a signup OTP. No
// token is issued until verification.
func (s *AuthServiceImpl) Register(ctx context.Context, firstName, lastName, email, password string, age int, originIP string) error {
	email = NormalizeEmail(email)
	if firstName == "" || lastName == "" || email == "" || password == "" || age <= 0 {
		return fmt.Errorf("%w: all fields are required", domain.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}

	if existing, err := s.userRepo.FindByEmail(ctx, email); err == nil && existing != nil {
		s.logger.Warn("registration failed, user already exists", "email", email, "ip", originIP)
		return domain.ErrUserAlreadyExists
	} else if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("failed to check existing user: %w", err)
	}

	if err := s.limiters.OTPIssue.Consume(email); err != nil {
		s.logger.Warn("registration rate limited", "email", email, "ip", originIP)
		return err
	}

	hash, err := s.passwordSvc.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	expires := s.now().Add(registrationWindow)
	user := &domain.User{
		Name:                firstName + " " + lastName,
		Email:               email,
		PasswordHash:        hash,
		Age:                 age,
		AuthMethod:          domain.AuthMethodLocal,
		IsEmailVerified:     false,
		RegistrationExpires: &expires,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.issueOTP(ctx, email, domain.OTPTypeSignup, originIP); err != nil {
		return err
	}

	s.logger.Info("user registration initiated", "user_id", user.ID, "email", email, "ip", originIP)
	return nil
}

// VerifySignup implements domain.AuthService. Consumption is atomic: of two
// concurrent attempts with the same code, one wins and the other observes an
// invalid-or-expired failure. Whether the email exists at all is never
// leaked.
func (s *AuthServiceImpl) VerifySignup(ctx context.Context, email, code string) (*domain.AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || code == "" {
		return nil, fmt.Errorf("%w: email and otp are required", domain.ErrValidation)
	}

	if err := s.limiters.OTPVerify.Consume("verify_signup_" + email); err != nil {
		s.logger.Warn("signup verification rate limited", "email", email)
		return nil, err
	}

	if err := s.otpRepo.Consume(ctx, email, domain.OTPTypeSignup, code); err != nil {
		if errors.Is(err, domain.ErrOTPNotFound) || errors.Is(err, domain.ErrOTPInvalidOrExpired) {
			s.logger.Warn("signup verification failed, invalid or expired otp", "email", email)
			return nil, domain.ErrOTPInvalidOrExpired
		}
		return nil, err
	}

	user, err := s.userRepo.MarkVerified(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to mark user verified: %w", err)
	}

	token, err := s.tokenSvc.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("email verification successful", "user_id", user.ID, "email", email)
	return &domain.AuthResult{User: user, Token: token}, nil
}

// ResendOTP implements domain.AuthService. A signup resend extends the
// registration window, since the account holder is demonstrably still
// trying to verify.
func (s *AuthServiceImpl) ResendOTP(ctx context.Context, email, otpType, originIP string) error {
	email = NormalizeEmail(email)
	if email == "" || otpType == "" {
		return fmt.Errorf("%w: email and type are required", domain.ErrValidation)
	}
	if otpType != domain.OTPTypeSignup && otpType != domain.OTPTypeReset {
		return fmt.Errorf("%w: invalid otp type %q", domain.ErrValidation, otpType)
	}

	if err := s.limiters.OTPIssue.Consume(email + ":" + otpType); err != nil {
		s.logger.Warn("otp resend rate limited", "email", email, "type", otpType)
		return err
	}

	if err := s.issueOTP(ctx, email, otpType, originIP); err != nil {
		return err
	}

	if otpType == domain.OTPTypeSignup {
		until := s.now().Add(registrationWindow)
		if err := s.userRepo.ExtendRegistrationWindow(ctx, email, until); err != nil {
			s.logger.Warn("failed to extend registration window", "email", email, "error", err)
		}
	}

	s.logger.Info("otp resent", "email", email, "type", otpType, "ip", originIP)
	return nil
}

// Login implements domain.AuthService. The account lockout is the core
// state machine: five consecutive failures lock the account for thirty
// minutes; the lock is observed lazily on the next attempt and cleared by
// the next successful login.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn("login failed, user not found", "email", email)
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	now := s.now()
	if user.IsLocked(now) {
		remaining := user.BlockExpires.Sub(now)
		s.logger.Warn("blocked user login attempt", "email", email, "minutes_left", int(remaining.Minutes())+1)
		return nil, &domain.LockedError{RetryAfter: remaining}
	}

	if !user.IsEmailVerified {
		s.logger.Warn("login failed, email not verified", "email", email)
		return nil, domain.ErrEmailNotVerified
	}

	// External-auth accounts have no usable local credential: fail closed.
	match := user.AuthMethod == domain.AuthMethodLocal && s.passwordSvc.Verify(user.PasswordHash, password)
	if !match {
		// Read-modify-write without locking: concurrent failures may
		// undercount. Accepted; the requirement is eventual brute-force
		// slowdown, not exact-once counting.
		attempts := user.LoginAttempts + 1
		var block *time.Time
		if attempts >= maxLoginAttempts {
			t := now.Add(lockoutDuration)
			block = &t
		}
		if err := s.userRepo.UpdateLockout(ctx, user.ID, attempts, block); err != nil {
			s.logger.Error("failed to record login failure", "email", email, "error", err)
		}
		if block != nil {
			s.logger.Warn("account locked after repeated failures", "email", email, "attempts", attempts)
			return nil, &domain.LockedError{RetryAfter: lockoutDuration}
		}
		s.logger.Warn("login failed, invalid password", "email", email, "attempts", attempts)
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.userRepo.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LoginAttempts = 0
	user.BlockExpires = nil
	user.LastLogin = &now

	token, err := s.tokenSvc.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("user login successful", "user_id", user.ID, "email", email)
	return &domain.AuthResult{User: user, Token: token}, nil
}

// VerifyPassword implements domain.AuthService.
func (s *AuthServiceImpl) VerifyPassword(ctx context.Context, userID uint, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", domain.ErrValidation)
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.AuthMethod != domain.AuthMethodLocal || !s.passwordSvc.Verify(user.PasswordHash, password) {
		return domain.ErrInvalidCredentials
	}
	return nil
}

// SetPassword implements domain.AuthService. No current-password check: the
// caller is already authenticated, and external-auth accounts use this to
// add a local credential for the first time.
func (s *AuthServiceImpl) SetPassword(ctx context.Context, userID uint, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}
	hash, err := s.passwordSvc.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	s.logger.Info("password set", "user_id", userID)
	return nil
}

// ChangePassword implements domain.AuthService.
func (s *AuthServiceImpl) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: current and new password are required", domain.ErrValidation)
	}
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.passwordSvc.Verify(user.PasswordHash, currentPassword) {
		s.logger.Warn("password change failed, wrong current password", "user_id", userID)
		return domain.ErrInvalidCredentials
	}

	hash, err := s.passwordSvc.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	s.logger.Info("password changed", "user_id", userID)
	return nil
}

// ForgotPassword implements domain.AuthService. Only verified accounts may
// start a reset; an unverified account is rejected outright to avoid a
// parallel reset/verify race.
func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, email, originIP string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	}

	if err := s.limiters.ForgotPassword.Consume(email); err != nil {
		s.logger.Warn("forgot password rate limited", "email", email)
		return err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn("password reset requested for unknown email", "email", email, "ip", originIP)
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsEmailVerified {
		s.logger.Warn("password reset requested for unverified account", "email", email)
		return fmt.Errorf("%w: verify your email before resetting the password", domain.ErrValidation)
	}

	if err := s.issueOTP(ctx, email, domain.OTPTypeReset, originIP); err != nil {
		return err
	}

	s.logger.Info("password reset otp sent", "email", email, "ip", originIP)
	return nil
}

// VerifyResetOTP implements domain.AuthService. The reset flow is two-step
// (verify, then reset), so a successful verification does not consume the
// record; it spends one unit of the shared attempt budget instead.
func (s *AuthServiceImpl) VerifyResetOTP(ctx context.Context, email, code string) error {
	email = NormalizeEmail(email)
	if err := validateResetInput(email, code); err != nil {
		return err
	}

	if err := s.limiters.OTPVerify.Consume("verify_" + email); err != nil {
		s.logger.Warn("reset otp verification rate limited", "email", email)
		return err
	}

	if err := s.checkResetOTP(ctx, email, code); err != nil {
		return err
	}

	s.logger.Info("reset otp verified", "email", email)
	return nil
}

// ResetPassword implements domain.AuthService. It re-validates the same
// reset record against the same attempt budget, consumes it, and gives the
// account a clean lockout slate.
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = NormalizeEmail(email)
	if err := validateResetInput(email, code); err != nil {
		return err
	}
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}

	if err := s.limiters.OTPVerify.Consume("reset_" + email); err != nil {
		s.logger.Warn("password reset rate limited", "email", email)
		return err
	}

	if err := s.checkResetOTP(ctx, email, code); err != nil {
		return err
	}

	hash, err := s.passwordSvc.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.ResetCredential(ctx, email, hash); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to reset credential: %w", err)
	}

	if err := s.otpRepo.Delete(ctx, email, domain.OTPTypeReset); err != nil {
		s.logger.Warn("failed to delete consumed reset otp", "email", email, "error", err)
	}

	s.logger.Info("password reset completed", "email", email)
	return nil
}

// checkResetOTP enforces the shared attempt budget for the two-step reset
// flow. Every targeted attempt spends one unit whether or not the code
// matches; once the budget is gone the record is purged and every further
// attempt fails regardless of code correctness.
func (s *AuthServiceImpl) checkResetOTP(ctx context.Context, email, code string) error {
	otp, err := s.otpRepo.Find(ctx, email, domain.OTPTypeReset)
	if err != nil {
		if errors.Is(err, domain.ErrOTPNotFound) {
			return domain.ErrOTPInvalidOrExpired
		}
		return err
	}
	if s.now().Sub(otp.CreatedAt) > registrationWindow {
		return domain.ErrOTPInvalidOrExpired
	}

	if otp.Attempts >= maxOTPAttempts {
		if err := s.otpRepo.Delete(ctx, email, domain.OTPTypeReset); err != nil {
			s.logger.Warn("failed to purge exhausted otp", "email", email, "error", err)
		}
		s.logger.Warn("reset otp exhausted", "email", email)
		return domain.ErrOTPTooManyAttempts
	}

	attempts, err := s.otpRepo.IncrementAttempts(ctx, email, domain.OTPTypeReset)
	if err != nil {
		if errors.Is(err, domain.ErrOTPNotFound) {
			return domain.ErrOTPInvalidOrExpired
		}
		return err
	}
	// A concurrent increment may have beaten us past the budget.
	if attempts > maxOTPAttempts {
		if err := s.otpRepo.Delete(ctx, email, domain.OTPTypeReset); err != nil {
			s.logger.Warn("failed to purge exhausted otp", "email", email, "error", err)
		}
		return domain.ErrOTPTooManyAttempts
	}

	if otp.Code != code {
		s.logger.Warn("reset otp mismatch", "email", email, "attempts", attempts)
		return domain.ErrOTPInvalidOrExpired
	}
	return nil
}

// ResolveExternal implements domain.AuthService. The provider already proved
// email ownership, so accounts created here skip OTP verification entirely.
// An existing local account is bound to the external method idempotently.
func (s *AuthServiceImpl) ResolveExternal(ctx context.Context, profile *domain.ExternalProfile) (*domain.AuthResult, error) {
	if profile == nil || profile.Email == "" || !profile.EmailVerified {
		return nil, domain.ErrExternalProfile
	}
	email := NormalizeEmail(profile.Email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		user = &domain.User{
			Name:            profile.Name,
			Email:           email,
			Age:             defaultExternalAge,
			AuthMethod:      domain.AuthMethodGoogle,
			IsEmailVerified: true,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create external user: %w", err)
		}
		s.logger.Info("new user created via external identity", "user_id", user.ID, "email", email)
	case err != nil:
		return nil, fmt.Errorf("failed to look up user: %w", err)
	default:
		if user.AuthMethod != domain.AuthMethodGoogle {
			if err := s.userRepo.BindAuthMethod(ctx, user.ID, domain.AuthMethodGoogle); err != nil {
				return nil, fmt.Errorf("failed to bind auth method: %w", err)
			}
			user.AuthMethod = domain.AuthMethodGoogle
			s.logger.Info("existing user bound to external identity", "user_id", user.ID, "email", email)
		}
	}

	token, err := s.tokenSvc.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &domain.AuthResult{User: user, Token: token}, nil
}

// Profile implements domain.AuthService.
func (s *AuthServiceImpl) Profile(ctx context.Context, userID uint) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// UpdateProfile implements domain.AuthService.
func (s *AuthServiceImpl) UpdateProfile(ctx context.Context, userID uint, name string, age int, about string) (*domain.User, error) {
	if name == "" || age <= 0 {
		return nil, fmt.Errorf("%w: name and age are required", domain.ErrValidation)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Name = name
	user.Age = age
	user.About = about
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	s.logger.Info("profile updated", "user_id", userID)
	return user, nil
}

// DeleteAccount implements domain.AuthService.
func (s *AuthServiceImpl) DeleteAccount(ctx context.Context, userID uint) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.otpRepo.DeleteAllForEmail(ctx, user.Email); err != nil {
		s.logger.Warn("failed to delete otp records for account", "email", user.Email, "error", err)
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("account deleted", "user_id", userID, "email", user.Email)
	return nil
}

// issueOTP generates a fresh code, supersedes any previous record for the
// (email, type) pair and hands it to the deliverer.
func (s *AuthServiceImpl) issueOTP(ctx context.Context, email, otpType, originIP string) error {
	code, err := generateCode(otpLength)
	if err != nil {
		return fmt.Errorf("failed to generate otp code: %w", err)
	}

	otp := &domain.OTP{
		Email:     email,
		Code:      code,
		Type:      otpType,
		IP:        originIP,
		CreatedAt: s.now(),
	}
	if err := s.otpRepo.Upsert(ctx, otp); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	if err := s.deliverer.Send(ctx, email, code, otpType, originIP); err != nil {
		return fmt.Errorf("failed to deliver otp: %w", err)
	}
	return nil
}

func validateResetInput(email, code string) error {
	if email == "" || code == "" {
		return fmt.Errorf("%w: email and otp are required", domain.ErrValidation)
	}
	if len(code) != otpLength || !allDigits(code) {
		return fmt.Errorf("%w: otp must be a %d-digit number", domain.ErrValidation, otpLength)
	}
	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// generateCode produces a cryptographically secure numeric passcode.
func generateCode(length int) (string, error) {
	digits := make([]byte, length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

var _ domain.AuthService = (*AuthServiceImpl)(nil)

package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Authentication errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrValidation         = errors.New("invalid input")
)

// OTP errors
var (
	ErrOTPNotFound         = errors.New("otp not found")
	ErrOTPInvalidOrExpired = errors.New("invalid or expired otp")
	ErrOTPTooManyAttempts  = errors.New("too many otp attempts")
)

// Token errors
var (
	ErrTokenInvalid     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenMalformed   = errors.New("malformed token")
	ErrTokenNotYetValid = errors.New("token not active yet")
	ErrUnauthorized     = errors.New("unauthorized access")
)

// Delivery and external-provider errors
var (
	ErrMailAuth        = errors.New("mail sender authentication failed")
	ErrMailConnection  = errors.New("mail service unreachable")
	ErrMailRejected    = errors.New("recipient rejected by mail server")
	ErrExternalProfile = errors.New("external profile has no verified email")
)

// LockedError is returned while an account is under brute-force lockout.
// RetryAfter tells the caller how long until login becomes possible again.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account temporarily locked, try again after %d minutes", e.RetryAfterMinutes())
}

// RetryAfterMinutes rounds the remaining lockout up to whole minutes.
func (e *LockedError) RetryAfterMinutes() int {
	return int(math.Ceil(e.RetryAfter.Minutes()))
}

// RateLimitedError is returned when a rate limiter rejects a key.
// RetryAfter tells the caller how long until the budget replenishes.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many requests, try again in %d seconds", e.RetryAfterSeconds())
}

// RetryAfterSeconds rounds the remaining wait up to whole seconds.
func (e *RateLimitedError) RetryAfterSeconds() int {
	return int(math.Ceil(e.RetryAfter.Seconds()))
}

package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestLockedError_RetryAfterMinutes(t *testing.T) {
	tests := []struct {
		remaining time.Duration
		expected  int
	}{
		{30 * time.Minute, 30},
		{29*time.Minute + time.Second, 30},
		{time.Second, 1},
		{0, 0},
	}
	for _, tt := range tests {
		err := &LockedError{RetryAfter: tt.remaining}
		if got := err.RetryAfterMinutes(); got != tt.expected {
			t.Errorf("RetryAfterMinutes(%v) = %d, want %d", tt.remaining, got, tt.expected)
		}
	}
}

func TestRateLimitedError_RetryAfterSeconds(t *testing.T) {
	err := &RateLimitedError{RetryAfter: 90*time.Second + 500*time.Millisecond}
	if got := err.RetryAfterSeconds(); got != 91 {
		t.Errorf("expected 91, got %d", got)
	}
}

func TestStructErrorsWorkWithErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", &LockedError{RetryAfter: time.Minute})

	var locked *LockedError
	if !errors.As(wrapped, &locked) {
		t.Fatal("expected errors.As to find LockedError through wrapping")
	}
	if locked.RetryAfterMinutes() != 1 {
		t.Errorf("expected 1 minute, got %d", locked.RetryAfterMinutes())
	}
}

func TestSentinelErrorsWrap(t *testing.T) {
	wrapped := fmt.Errorf("%w: password too short", ErrValidation)
	if !errors.Is(wrapped, ErrValidation) {
		t.Error("expected errors.Is to match through wrapping")
	}
}

func TestUser_IsLocked(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	if (&User{}).IsLocked(now) {
		t.Error("nil block expiry must not lock")
	}
	if !(&User{BlockExpires: &future}).IsLocked(now) {
		t.Error("future block expiry must lock")
	}
	if (&User{BlockExpires: &past}).IsLocked(now) {
		t.Error("past block expiry must not lock")
	}
}

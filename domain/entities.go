package domain

import "time"

// Authentication methods for User.AuthMethod.
const (
	AuthMethodLocal  = "local"
	AuthMethodGoogle = "google"
)

// OTP purposes.
const (
	OTPTypeSignup = "signup"
	OTPTypeReset  = "reset"
)

// Cleanup outcome statuses.
const (
	CleanupSuccess = "success"
	CleanupFailed  = "failed"
	CleanupError   = "error"
)

// User represents a blog platform account.
//
// RegistrationExpires is non-nil only while the account is unverified; it is
// set at creation, extended on every OTP resend and cleared the moment
// verification succeeds. LoginAttempts and BlockExpires implement the
// brute-force lockout and are never exposed through the API.
type User struct {
	ID                  uint
	Name                string
	Email               string
	PasswordHash        string
	Age                 int
	About               string
	AuthMethod          string
	IsEmailVerified     bool
	PendingDeletion     bool
	RegistrationExpires *time.Time
	LoginAttempts       int
	BlockExpires        *time.Time
	LastLogin           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsLocked reports whether the account is under an active lockout window.
func (u *User) IsLocked(now time.Time) bool {
	return u.BlockExpires != nil && u.BlockExpires.After(now)
}

// OTP is a one-time passcode bound to an email address and a purpose.
// At most one effective OTP exists per (email, type) pair; issuing a new one
// supersedes the previous one.
type OTP struct {
	Email     string
	Code      string
	Type      string
	IP        string
	Attempts  int
	CreatedAt time.Time
}

// Identity is the minimal projection attached to authenticated requests.
type Identity struct {
	ID              uint
	Email           string
	Name            string
	IsEmailVerified bool
}

// AuthResult is the outcome of a successful login or verification.
type AuthResult struct {
	User  *User
	Token string
}

// TokenClaims carries the verified claims of a bearer token.
type TokenClaims struct {
	UserID    uint
	Email     string
	IssuedAt  int64
	ExpiresAt int64
}

// ExternalProfile is what an external identity provider proves about a user.
type ExternalProfile struct {
	Email         string
	EmailVerified bool
	Name          string
}

// CleanupOutcome records the fate of one account during a cleanup sweep.
type CleanupOutcome struct {
	UserID uint
	Email  string
	Status string
	Reason string
}

// CleanupStats describes the unverified-account backlog and scheduler state.
type CleanupStats struct {
	TotalUnverified  int64 `json:"total_unverified"`
	Expired          int64 `json:"expired"`
	PendingExpiry    int64 `json:"pending_expiry"`
	SchedulerRunning bool  `json:"scheduler_running"`
}

package ratelimit

import "github.com/you/blogauth/domain"

// Bypass is a limiter that always admits. It is selected by configuration in
// non-production environments; it disables request-volume throttling only and
// never weakens OTP code validation.
type Bypass struct{}

// Consume implements domain.RateLimiter.
func (Bypass) Consume(string) error { return nil }

var _ domain.RateLimiter = Bypass{}

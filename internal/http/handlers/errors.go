package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/you/blogauth/domain"
)

// respondError maps a service error to its HTTP response. Unknown errors are
// logged and answered with a generic 500 so internals never leak to clients.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var locked *domain.LockedError
	var limited *domain.RateLimitedError

	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, domain.ErrEmailNotVerified):
		c.JSON(http.StatusForbidden, gin.H{"error": "email not verified"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.As(err, &locked):
		c.Header("Retry-After", strconv.Itoa(locked.RetryAfterMinutes()*60))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": locked.Error()})
	case errors.As(err, &limited):
		c.Header("Retry-After", strconv.Itoa(limited.RetryAfterSeconds()))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, please try again later"})
	case errors.Is(err, domain.ErrOTPInvalidOrExpired), errors.Is(err, domain.ErrOTPNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired otp"})
	case errors.Is(err, domain.ErrOTPTooManyAttempts):
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many attempts, request a new otp"})
	case errors.Is(err, domain.ErrMailAuth), errors.Is(err, domain.ErrMailConnection), errors.Is(err, domain.ErrMailRejected):
		logger.Error("otp delivery failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not deliver verification email, please try again later"})
	default:
		logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

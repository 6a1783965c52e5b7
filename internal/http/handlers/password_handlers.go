package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/blogauth/domain"
)

// PasswordHandlers handles the unauthenticated password reset flow.
type PasswordHandlers struct {
	authSvc domain.AuthService
	logger  *slog.Logger
}

// NewPasswordHandlers creates new password reset handlers.
func NewPasswordHandlers(authSvc domain.AuthService, logger *slog.Logger) *PasswordHandlers {
	return &PasswordHandlers{authSvc: authSvc, logger: logger}
}

// ForgotPasswordRequest represents a reset initiation request.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyResetOTPRequest represents the first step of the reset flow.
type VerifyResetOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
}

// ResetPasswordRequest represents the final step of the reset flow.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// Forgot starts the reset flow by sending a reset OTP.
func (h *PasswordHandlers) Forgot(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authSvc.ForgotPassword(c.Request.Context(), req.Email, c.ClientIP()); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message": "A password reset code has been sent to your email.",
		},
	})
}

// VerifyOTP checks a reset code without consuming it, so the client can
// collect the new password before the final step.
func (h *PasswordHandlers) VerifyOTP(c *gin.Context) {
	var req VerifyResetOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authSvc.VerifyResetOTP(c.Request.Context(), req.Email, req.OTP); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Code verified."}})
}

// Reset completes the flow: re-validates the code, sets the new password and
// clears any lockout.
func (h *PasswordHandlers) Reset(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authSvc.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Password reset successfully. You can now log in."}})
}

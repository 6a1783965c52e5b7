package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/blogauth/domain"
	"github.com/you/blogauth/internal/http/middleware"
)

// AccountHandlers handles requests on the authenticated user's own account.
type AccountHandlers struct {
	authSvc domain.AuthService
	logger  *slog.Logger
}

// NewAccountHandlers creates new account handlers.
func NewAccountHandlers(authSvc domain.AuthService, logger *slog.Logger) *AccountHandlers {
	return &AccountHandlers{authSvc: authSvc, logger: logger}
}

// VerifyPasswordRequest represents a password re-confirmation request.
type VerifyPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// SetPasswordRequest represents a first-credential request.
type SetPasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// ChangePasswordRequest represents a password change request.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// UpdateProfileRequest represents a profile update request.
type UpdateProfileRequest struct {
	Name  string `json:"name" binding:"required"`
	Age   int    `json:"age" binding:"required,gt=0"`
	About string `json:"about"`
}

// Me returns the authenticated user's profile.
func (h *AccountHandlers) Me(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.authSvc.Profile(c.Request.Context(), identity.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": userView(user)})
}

// VerifyPassword re-confirms the current password for sensitive client flows.
func (h *AccountHandlers) VerifyPassword(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req VerifyPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authSvc.VerifyPassword(c.Request.Context(), identity.ID, req.Password); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Password verified."}})
}

// SetPassword adds a local credential to an account that has none.
func (h *AccountHandlers) SetPassword(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authSvc.SetPassword(c.Request.Context(), identity.ID, req.NewPassword); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Password set successfully."}})
}

// ChangePassword replaces the current password after re-confirming it.
func (h *AccountHandlers) ChangePassword(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), identity.ID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Password changed successfully."}})
}

// UpdateProfile updates the mutable profile fields.
func (h *AccountHandlers) UpdateProfile(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authSvc.UpdateProfile(c.Request.Context(), identity.ID, req.Name, req.Age, req.About)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": userView(user)})
}

// DeleteAccount removes the authenticated user's account permanently.
func (h *AccountHandlers) DeleteAccount(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.authSvc.DeleteAccount(c.Request.Context(), identity.ID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Account deleted."}})
}

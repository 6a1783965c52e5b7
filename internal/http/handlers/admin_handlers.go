package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/blogauth/domain"
)

// AdminHandlers exposes operational endpoints for the cleanup scheduler.
type AdminHandlers struct {
	cleanupSvc domain.CleanupService
	logger     *slog.Logger
}

// NewAdminHandlers creates new admin handlers.
func NewAdminHandlers(cleanupSvc domain.CleanupService, logger *slog.Logger) *AdminHandlers {
	return &AdminHandlers{cleanupSvc: cleanupSvc, logger: logger}
}

// CleanupStats reports the unverified-account backlog.
func (h *AdminHandlers) CleanupStats(c *gin.Context) {
	stats, err := h.cleanupSvc.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// CleanupTrigger runs a sweep immediately and reports what it did.
func (h *AdminHandlers) CleanupTrigger(c *gin.Context) {
	outcomes, err := h.cleanupSvc.RunSweep(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	deleted := 0
	results := make([]gin.H, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Status == domain.CleanupSuccess {
			deleted++
		}
		results = append(results, gin.H{
			"user_id": o.UserID,
			"email":   o.Email,
			"status":  o.Status,
			"reason":  o.Reason,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"deleted": deleted,
			"results": results,
		},
	})
}

package httpx

import (
	"github.com/gin-gonic/gin"
	"github.com/you/blogauth/domain"
	"github.com/you/blogauth/internal/http/handlers"
	"github.com/you/blogauth/internal/http/middleware"
)

// BuildRouter wires all routes. genericLimiter throttles raw request volume
// per client IP on the unauthenticated endpoints; the finer per-email limits
// live inside the service layer.
func BuildRouter(
	ah *handlers.AuthHandlers,
	ach *handlers.AccountHandlers,
	ph *handlers.PasswordHandlers,
	eh *handlers.ExternalHandlers,
	adh *handlers.AdminHandlers,
	authn *middleware.Authenticator,
	genericLimiter domain.RateLimiter,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	api := r.Group("/api")

	auth := api.Group("/auth", middleware.RateLimit(genericLimiter))
	auth.POST("/register", ah.Register)
	auth.POST("/verify-signup", ah.VerifySignup)
	auth.POST("/resend-otp", ah.ResendOTP)
	auth.POST("/login", ah.Login)
	auth.GET("/google", eh.Start)
	auth.GET("/google/callback", eh.Callback)

	pw := api.Group("/password", middleware.RateLimit(genericLimiter))
	pw.POST("/forgot", ph.Forgot)
	pw.POST("/verify-otp", ph.VerifyOTP)
	pw.POST("/reset", ph.Reset)

	account := api.Group("/auth").Use(authn.RequireAuth())
	account.GET("/me", ach.Me)
	account.POST("/verify-password", ach.VerifyPassword)
	account.POST("/set-password", ach.SetPassword)
	account.POST("/change-password", ach.ChangePassword)
	account.PUT("/profile", ach.UpdateProfile)
	account.DELETE("/account", ach.DeleteAccount)

	adm := api.Group("/admin").Use(authn.RequireAuth())
	adm.GET("/cleanup-stats", adh.CleanupStats)
	adm.POST("/cleanup-trigger", adh.CleanupTrigger)

	return r
}

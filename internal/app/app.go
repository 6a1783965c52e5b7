package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/blogauth/domain"
	"github.com/you/blogauth/internal/config"
	httpx "github.com/you/blogauth/internal/http"
	"github.com/you/blogauth/internal/http/handlers"
	"github.com/you/blogauth/internal/http/middleware"
	"github.com/you/blogauth/internal/infrastructure/auth"
	"github.com/you/blogauth/internal/infrastructure/database"
	"github.com/you/blogauth/internal/infrastructure/identity"
	"github.com/you/blogauth/internal/infrastructure/notifications"
	"github.com/you/blogauth/internal/infrastructure/repositories"
	"github.com/you/blogauth/internal/ratelimit"
	"github.com/you/blogauth/internal/services"
)

const shutdownTimeout = 10 * time.Second

// Run wires all dependencies, starts the HTTP server and the cleanup
// scheduler, and blocks until shutdown.
func Run(cfg *config.Config) error {
	gin.SetMode(cfg.GinMode)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	gdb, err := database.Open(cfg.DSN)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(gdb); err != nil {
		return err
	}

	rdb := database.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := database.PingRedis(context.Background(), rdb); err != nil {
		return err
	}

	userRepo := repositories.NewUserRepository(gdb)
	otpRepo := repositories.NewOTPRepository(rdb, cfg.OTPTTL)

	passwordSvc := auth.NewPasswordService()
	tokenSvc := auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	deliverer := notifications.NewEmailService(notifications.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, logger)
	resolver := identity.NewGoogleResolver(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)

	generic, limiters := buildLimiters(cfg, logger)

	authSvc := services.NewAuthService(userRepo, otpRepo, passwordSvc, tokenSvc, deliverer, limiters, logger)
	cleanupSvc := services.NewCleanupService(userRepo, otpRepo, cfg.CleanupInterval, logger)

	authH := handlers.NewAuthHandlers(authSvc, logger)
	accountH := handlers.NewAccountHandlers(authSvc, logger)
	passwordH := handlers.NewPasswordHandlers(authSvc, logger)
	externalH := handlers.NewExternalHandlers(authSvc, resolver, cfg.ClientURL, logger)
	adminH := handlers.NewAdminHandlers(cleanupSvc, logger)
	authn := middleware.NewAuthenticator(tokenSvc, userRepo, logger)

	r := httpx.BuildRouter(authH, accountH, passwordH, externalH, adminH, authn, generic)

	cleanupSvc.Start()
	defer cleanupSvc.Stop()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// buildLimiters returns the per-IP guard plus the named per-email limiters.
// With bypass on (local development, integration tests) every limiter admits
// everything.
func buildLimiters(cfg *config.Config, logger *slog.Logger) (domain.RateLimiter, services.Limiters) {
	if cfg.BypassRateLimiting {
		logger.Warn("rate limiting bypassed")
		bypass := ratelimit.Bypass{}
		return bypass, services.Limiters{OTPIssue: bypass, ForgotPassword: bypass, OTPVerify: bypass}
	}

	generic := ratelimit.NewMemoryLimiter(ratelimit.Config{
		Points:   5,
		Duration: 15 * time.Minute,
	})
	return generic, services.Limiters{
		OTPIssue: ratelimit.NewMemoryLimiter(ratelimit.Config{
			Points:        3,
			Duration:      15 * time.Minute,
			BlockDuration: time.Hour,
		}),
		ForgotPassword: ratelimit.NewMemoryLimiter(ratelimit.Config{
			Points:        5,
			Duration:      time.Hour,
			BlockDuration: time.Hour,
		}),
		OTPVerify: ratelimit.NewMemoryLimiter(ratelimit.Config{
			Points:        5,
			Duration:      10 * time.Minute,
			BlockDuration: 30 * time.Minute,
		}),
	}
}

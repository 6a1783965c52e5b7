package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/you/blogauth/domain"
)

const identityKey = "identity"

// Authenticator guards routes behind bearer-token authentication. The token
// is stateless, so the subject is re-resolved against the user store on
// every request; a deleted or unverified account fails even with a
// syntactically valid token.
type Authenticator struct {
	tokenSvc domain.TokenService
	userRepo domain.UserRepository
	logger   *slog.Logger
}

// NewAuthenticator creates authentication middleware.
func NewAuthenticator(tokenSvc domain.TokenService, userRepo domain.UserRepository, logger *slog.Logger) *Authenticator {
	return &Authenticator{tokenSvc: tokenSvc, userRepo: userRepo, logger: logger}
}

// RequireAuth validates the Authorization header and attaches the resolved
// identity to the request context.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		tokenParts := strings.SplitN(authHeader, " ", 2)
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := a.tokenSvc.Validate(tokenParts[1])
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrTokenExpired):
				// Clients use the expired flag to trigger a re-login
				// instead of treating the token as tampered.
				c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired", "expired": true})
			case errors.Is(err, domain.ErrTokenNotYetValid):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "token not active yet"})
			default:
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			}
			c.Abort()
			return
		}

		user, err := a.userRepo.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "account no longer exists"})
			} else {
				a.logger.Error("failed to resolve token subject", "user_id", claims.UserID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
			c.Abort()
			return
		}
		if !user.IsEmailVerified {
			c.JSON(http.StatusForbidden, gin.H{"error": "email not verified"})
			c.Abort()
			return
		}

		c.Set(identityKey, &domain.Identity{
			ID:              user.ID,
			Email:           user.Email,
			Name:            user.Name,
			IsEmailVerified: user.IsEmailVerified,
		})
		c.Next()
	}
}

// IdentityFrom returns the authenticated identity attached by RequireAuth.
func IdentityFrom(c *gin.Context) (*domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*domain.Identity)
	return identity, ok
}

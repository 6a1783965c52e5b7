package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/you/blogauth/domain"
)

const stateCookie = "oauth_state"

// ExternalHandlers implements the browser redirect flow for external login.
// The state cookie binds the callback to the browser that started the flow.
type ExternalHandlers struct {
	authSvc   domain.AuthService
	resolver  domain.ExternalIdentityResolver
	clientURL string
	logger    *slog.Logger
}

// NewExternalHandlers creates new external login handlers. clientURL is the
// frontend address the callback redirects back to.
func NewExternalHandlers(authSvc domain.AuthService, resolver domain.ExternalIdentityResolver, clientURL string, logger *slog.Logger) *ExternalHandlers {
	return &ExternalHandlers{authSvc: authSvc, resolver: resolver, clientURL: clientURL, logger: logger}
}

// Start redirects the browser to the provider's consent screen.
func (h *ExternalHandlers) Start(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, 300, "/", "", false, true)
	c.Redirect(http.StatusTemporaryRedirect, h.resolver.AuthURL(state))
}

// Callback exchanges the provider code, resolves or creates the account and
// redirects back to the client with a token.
func (h *ExternalHandlers) Callback(c *gin.Context) {
	state, err := c.Cookie(stateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		h.logger.Warn("external callback with bad state", "ip", c.ClientIP())
		h.redirectWithError(c, "invalid_state")
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", false, true)

	code := c.Query("code")
	if code == "" {
		h.redirectWithError(c, "access_denied")
		return
	}

	profile, err := h.resolver.Resolve(c.Request.Context(), code)
	if err != nil {
		h.logger.Error("failed to resolve external identity", "error", err)
		h.redirectWithError(c, "provider_error")
		return
	}

	result, err := h.authSvc.ResolveExternal(c.Request.Context(), profile)
	if err != nil {
		h.logger.Error("external login failed", "error", err)
		h.redirectWithError(c, "login_failed")
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, h.clientURL+"/auth/callback?token="+url.QueryEscape(result.Token))
}

func (h *ExternalHandlers) redirectWithError(c *gin.Context, reason string) {
	c.Redirect(http.StatusTemporaryRedirect, h.clientURL+"/auth/callback?error="+url.QueryEscape(reason))
}

func randomState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

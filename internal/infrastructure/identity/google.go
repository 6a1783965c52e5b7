package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/you/blogauth/domain"
)

const userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleResolver implements domain.ExternalIdentityResolver against Google's
// OAuth2 endpoints. It resolves an authorization code into an external
// profile; the auth service decides how that maps onto a local account.
type GoogleResolver struct {
	oauth *oauth2.Config
}

// NewGoogleResolver creates a resolver for the given OAuth client.
func NewGoogleResolver(clientID, clientSecret, redirectURL string) *GoogleResolver {
	return &GoogleResolver{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL implements domain.ExternalIdentityResolver.
func (g *GoogleResolver) AuthURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Resolve implements domain.ExternalIdentityResolver.
func (g *GoogleResolver) Resolve(ctx context.Context, code string) (*domain.ExternalProfile, error) {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	resp, err := g.oauth.Client(ctx, token).Get(userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request returned status %d", resp.StatusCode)
	}

	var info struct {
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, domain.ErrExternalProfile
	}

	return &domain.ExternalProfile{
		Email:         info.Email,
		EmailVerified: info.VerifiedEmail,
		Name:          info.Name,
	}, nil
}

var _ domain.ExternalIdentityResolver = (*GoogleResolver)(nil)

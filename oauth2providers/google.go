package oauth2providers

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/panyam/linkauth"
)

var errInvalidGoogleAudience = errors.New("invalid google audience")

// Google performs the Google OAuth2 handshake. The access token's audience
// is validated against the client id before the profile is trusted.
type Google struct {
	baseOAuth2
}

// NewGoogle creates the Google handshake from app credentials.
func NewGoogle(cfg linkauth.ProviderConfig) *Google {
	return &Google{baseOAuth2{
		name: linkauth.ProviderGoogle,
		oauthConfig: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}}
}

// Complete exchanges the callback code, validates the token and fetches the
// userinfo profile.
func (g *Google) Complete(w http.ResponseWriter, r *http.Request) (*linkauth.ProviderProfile, error) {
	token, err := g.exchange(w, r)
	if err != nil {
		return nil, err
	}

	ctx := r.Context()
	svc, err := googleoauth2.NewService(ctx,
		option.WithTokenSource(g.oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("creating google oauth2 service: %w", err)
	}

	tokenInfo, err := svc.Tokeninfo().AccessToken(token.AccessToken).Do()
	if err != nil {
		return nil, fmt.Errorf("validating google token: %w", err)
	}
	if tokenInfo.Audience != g.oauthConfig.ClientID {
		return nil, errInvalidGoogleAudience
	}

	userInfo, err := svc.Userinfo.Get().Do()
	if err != nil {
		return nil, fmt.Errorf("fetching google userinfo: %w", err)
	}
	if userInfo.Id == "" {
		return nil, fmt.Errorf("google userinfo has no id")
	}

	return &linkauth.ProviderProfile{
		Provider:    linkauth.ProviderGoogle,
		ProviderID:  userInfo.Id,
		Token:       token.AccessToken,
		DisplayName: userInfo.Name,
		Email:       userInfo.Email,
	}, nil
}

package oauth2providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	"github.com/panyam/linkauth"
)

const facebookProfileURL = "https://graph.facebook.com/v19.0/me"

// Facebook performs the Facebook OAuth2 handshake and returns the graph
// profile (id, name, email).
type Facebook struct {
	baseOAuth2
}

// NewFacebook creates the Facebook handshake from app credentials.
func NewFacebook(cfg linkauth.ProviderConfig) *Facebook {
	return &Facebook{baseOAuth2{
		name: linkauth.ProviderFacebook,
		oauthConfig: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"email", "public_profile"},
			Endpoint:     facebook.Endpoint,
		},
	}}
}

// Complete exchanges the callback code and fetches the user's graph profile.
func (f *Facebook) Complete(w http.ResponseWriter, r *http.Request) (*linkauth.ProviderProfile, error) {
	token, err := f.exchange(w, r)
	if err != nil {
		return nil, err
	}

	query := url.Values{
		"fields":       {"id,name,email"},
		"access_token": {token.AccessToken},
	}
	resp, err := http.Get(facebookProfileURL + "?" + query.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetching facebook profile: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("facebook profile request returned %s", resp.Status)
	}

	var profile struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decoding facebook profile: %w", err)
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("facebook profile has no id")
	}

	return &linkauth.ProviderProfile{
		Provider:    linkauth.ProviderFacebook,
		ProviderID:  profile.ID,
		Token:       token.AccessToken,
		DisplayName: profile.Name,
		Email:       profile.Email,
	}, nil
}

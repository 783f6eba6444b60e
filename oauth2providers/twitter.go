package oauth2providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
	twitterauth "github.com/dghubble/oauth1/twitter"

	"github.com/panyam/linkauth"
)

const (
	twitterProfileURL       = "https://api.twitter.com/1.1/account/verify_credentials.json?include_email=true&skip_status=true"
	twitterSecretCookieName = "twitterRequestSecret"
)

// Twitter performs the Twitter OAuth1 handshake. The request-token secret is
// carried across the redirect in a short-lived cookie so no server-side
// handshake state is needed.
type Twitter struct {
	config oauth1.Config
}

// NewTwitter creates the Twitter handshake; ClientID/ClientSecret hold the
// consumer key and secret.
func NewTwitter(cfg linkauth.ProviderConfig) *Twitter {
	return &Twitter{config: oauth1.Config{
		ConsumerKey:    cfg.ClientID,
		ConsumerSecret: cfg.ClientSecret,
		CallbackURL:    cfg.CallbackURL,
		Endpoint:       twitterauth.AuthorizeEndpoint,
	}}
}

func (t *Twitter) Provider() string { return linkauth.ProviderTwitter }

// Begin obtains a request token and redirects to Twitter's authorize page.
func (t *Twitter) Begin(w http.ResponseWriter, r *http.Request) {
	requestToken, requestSecret, err := t.config.RequestToken()
	if err != nil {
		http.Error(w, "Login Failed", http.StatusServiceUnavailable)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     twitterSecretCookieName,
		Value:    requestSecret,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
	})
	authorizationURL, err := t.config.AuthorizationURL(requestToken)
	if err != nil {
		http.Error(w, "Login Failed", http.StatusServiceUnavailable)
		return
	}
	http.Redirect(w, r, authorizationURL.String(), http.StatusFound)
}

// Complete trades the callback verifier for an access token and fetches the
// verified credentials. Twitter only returns an email when the app is
// whitelisted for it; the profile's email may be empty.
func (t *Twitter) Complete(w http.ResponseWriter, r *http.Request) (*linkauth.ProviderProfile, error) {
	requestToken, verifier, err := oauth1.ParseAuthorizationCallback(r)
	if err != nil {
		return nil, fmt.Errorf("parsing twitter callback: %w", err)
	}
	secretCookie, _ := r.Cookie(twitterSecretCookieName)
	if secretCookie == nil {
		return nil, fmt.Errorf("missing twitter request secret cookie")
	}
	clearCookie(w, twitterSecretCookieName)

	accessToken, accessSecret, err := t.config.AccessToken(requestToken, secretCookie.Value, verifier)
	if err != nil {
		return nil, fmt.Errorf("twitter token exchange failed: %w", err)
	}

	client := t.config.Client(r.Context(), oauth1.NewToken(accessToken, accessSecret))
	resp, err := client.Get(twitterProfileURL)
	if err != nil {
		return nil, fmt.Errorf("fetching twitter profile: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitter profile request returned %s", resp.Status)
	}

	var profile struct {
		IDStr      string `json:"id_str"`
		Name       string `json:"name"`
		ScreenName string `json:"screen_name"`
		Email      string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decoding twitter profile: %w", err)
	}
	if profile.IDStr == "" {
		return nil, fmt.Errorf("twitter profile has no id")
	}

	displayName := profile.Name
	if displayName == "" {
		displayName = profile.ScreenName
	}
	return &linkauth.ProviderProfile{
		Provider:    linkauth.ProviderTwitter,
		ProviderID:  profile.IDStr,
		Token:       accessToken,
		DisplayName: displayName,
		Email:       profile.Email,
	}, nil
}

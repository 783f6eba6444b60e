// Package oauth2providers implements the provider handshakes consumed by the
// linkauth core: Facebook and Google over OAuth2, Twitter over OAuth1. Each
// handshake ends by handing the core a completed ProviderProfile; none of the
// account resolution logic lives here.
package oauth2providers

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const stateCookieName = "oauthstate"

// baseOAuth2 carries the pieces shared by the OAuth2 providers: the oauth2
// config and the CSRF state cookie dance.
type baseOAuth2 struct {
	name        string
	oauthConfig oauth2.Config
}

func (b *baseOAuth2) Provider() string { return b.name }

// Begin sets the state cookie and redirects into the provider's
// authorization flow.
func (b *baseOAuth2) Begin(w http.ResponseWriter, r *http.Request) {
	state := setStateCookie(w)
	http.Redirect(w, r, b.oauthConfig.AuthCodeURL(state), http.StatusFound)
}

// exchange validates the callback state and trades the authorization code
// for a token.
func (b *baseOAuth2) exchange(w http.ResponseWriter, r *http.Request) (*oauth2.Token, error) {
	stateCookie, _ := r.Cookie(stateCookieName)
	if stateCookie == nil {
		return nil, fmt.Errorf("missing oauth state cookie")
	}
	clearCookie(w, stateCookieName)
	if r.FormValue("state") != stateCookie.Value {
		return nil, fmt.Errorf("oauth state mismatch")
	}
	token, err := b.oauthConfig.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}
	return token, nil
}

func setStateCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
	})
	return state
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name: name, Path: "/", MaxAge: -1, Expires: time.Now(),
	})
}

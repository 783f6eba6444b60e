package linkauth

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

// ProviderHandshake is the external collaborator that performs a provider's
// challenge/redirect/token-exchange dance. The core only consumes the
// completed profile; it never participates in the handshake.
type ProviderHandshake interface {
	// Provider returns the provider name ("facebook", "twitter", "google").
	Provider() string

	// Begin redirects the browser into the provider's authorization flow.
	Begin(w http.ResponseWriter, r *http.Request)

	// Complete handles the provider's callback and returns the verified
	// profile.
	Complete(w http.ResponseWriter, r *http.Request) (*ProviderProfile, error)
}

// Auth is the HTTP front for the whole authentication surface: local
// signup/login, the provider handshakes, linking, unlinking and logout.
type Auth struct {
	Config   *Config
	Resolver *Resolver
	Sessions *SessionAuth
	Local    *LocalAuth

	providers map[string]ProviderHandshake
	router    *mux.Router
}

// New wires an Auth from its collaborators. Providers are added with
// AddProvider before calling Handler.
func New(cfg *Config, resolver *Resolver, store UserStore, sessions *scs.SessionManager) *Auth {
	a := &Auth{
		Config:    cfg,
		Resolver:  resolver,
		Sessions:  &SessionAuth{Session: sessions, Store: store},
		providers: map[string]ProviderHandshake{},
	}
	a.Local = &LocalAuth{Resolver: resolver, HandleUser: a.loginAndRedirect}
	return a
}

// AddProvider registers a provider handshake under its provider name.
func (a *Auth) AddProvider(h ProviderHandshake) *Auth {
	a.providers[h.Provider()] = h
	return a
}

// Handler returns the routed authentication surface, wrapped in the session
// manager's load/save middleware. Mount it under a prefix such as /auth.
func (a *Auth) Handler() http.Handler {
	if a.router == nil {
		r := mux.NewRouter()
		r.HandleFunc("/login", a.Local.HandleLogin).Methods(http.MethodPost)
		r.HandleFunc("/signup", a.Local.HandleSignup).Methods(http.MethodPost)
		r.HandleFunc("/logout", a.onLogout)
		r.HandleFunc("/unlink/{method}", a.onUnlink).Methods(http.MethodPost)
		r.HandleFunc("/{provider}", a.onProviderBegin)
		r.HandleFunc("/{provider}/callback", a.onProviderCallback)
		a.router = r
	}
	return a.Sessions.Session.LoadAndSave(a.router)
}

func (a *Auth) onProviderBegin(w http.ResponseWriter, r *http.Request) {
	h, ok := a.providers[mux.Vars(r)["provider"]]
	if !ok {
		http.NotFound(w, r)
		return
	}
	// Remember where to land after the dance.
	if callbackURL := r.URL.Query().Get("callbackURL"); callbackURL != "" {
		http.SetCookie(w, &http.Cookie{
			Name:   "authCallbackURL",
			Value:  callbackURL,
			Path:   "/",
			MaxAge: 120,
		})
	}
	h.Begin(w, r)
}

func (a *Auth) onProviderCallback(w http.ResponseWriter, r *http.Request) {
	h, ok := a.providers[mux.Vars(r)["provider"]]
	if !ok {
		http.NotFound(w, r)
		return
	}
	profile, err := h.Complete(w, r)
	if err != nil {
		slog.Warn("provider handshake failed", "provider", h.Provider(), "error", err)
		http.Error(w, "Login Failed", http.StatusUnauthorized)
		return
	}

	// A caller already holding a session means "link this to my account";
	// that takes precedence over any identity lookup.
	current, err := a.Sessions.CurrentUser(r.Context())
	if err != nil {
		http.Error(w, "Authentication unavailable", http.StatusServiceUnavailable)
		return
	}
	user, err := a.Resolver.ResolveProvider(r.Context(), *profile, current)
	if err != nil {
		slog.Error("provider resolution failed", "provider", profile.Provider, "error", err)
		http.Error(w, "Login Failed", http.StatusServiceUnavailable)
		return
	}
	a.loginAndRedirect(user, w, r)
}

func (a *Auth) onUnlink(w http.ResponseWriter, r *http.Request) {
	current, err := a.Sessions.CurrentUser(r.Context())
	if err != nil {
		http.Error(w, "Authentication unavailable", http.StatusServiceUnavailable)
		return
	}
	if current == nil {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}
	if _, err := a.Resolver.Unlink(r.Context(), current, mux.Vars(r)["method"]); err != nil {
		status := http.StatusBadRequest
		if err == ErrLastIdentity {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}
	a.redirectBack(w, r)
}

func (a *Auth) onLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.LogoutUser(r.Context()); err != nil {
		slog.Warn("error destroying session", "error", err)
	}
	if a.Config.JWTSecretKey != "" {
		http.SetCookie(w, &http.Cookie{
			Name: "authToken", Path: "/", MaxAge: -1, Expires: time.Now(),
		})
	}
	a.redirectBack(w, r)
}

// loginAndRedirect is the HandleUser for every successful authentication:
// record the principal in the session, issue the optional auth-token cookie
// and send the browser back where it came from.
func (a *Auth) loginAndRedirect(user *User, w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.LoginUser(r.Context(), user); err != nil {
		slog.Error("error saving session", "error", err)
		http.Error(w, "Login Failed", http.StatusInternalServerError)
		return
	}
	if a.Config.JWTSecretKey != "" {
		tokenString, err := a.issueAuthToken(user)
		if err != nil {
			slog.Warn("error signing auth token", "error", err)
		} else {
			http.SetCookie(w, &http.Cookie{
				Name:    "authToken",
				Value:   tokenString,
				Path:    "/",
				Expires: time.Now().Add(a.Config.SessionTimeout),
				MaxAge:  int(a.Config.SessionTimeout.Seconds()),
			})
		}
	}
	a.redirectBack(w, r)
}

func (a *Auth) issueAuthToken(user *User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"iss": a.Config.JWTIssuer,
		"iat": now.Unix(),
		"exp": now.Add(a.Config.SessionTimeout).Unix(),
	})
	return token.SignedString([]byte(a.Config.JWTSecretKey))
}

func (a *Auth) redirectBack(w http.ResponseWriter, r *http.Request) {
	callbackURL := "/"
	if cookie, _ := r.Cookie("authCallbackURL"); cookie != nil && cookie.Value != "" {
		callbackURL = cookie.Value
		// one-shot cookie
		http.SetCookie(w, &http.Cookie{
			Name: "authCallbackURL", Path: "/", MaxAge: -1, Expires: time.Now(),
		})
	}
	if u, err := url.Parse(callbackURL); err != nil || u.IsAbs() {
		// Only same-origin relative redirects; anything else goes home.
		callbackURL = "/"
	}
	http.Redirect(w, r, callbackURL, http.StatusFound)
}

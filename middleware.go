package linkauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type principalContextKey struct{}

// Middleware extracts the authenticated principal for downstream handlers.
// The session is consulted first; failing that, a JWT carried in the auth
// token cookie or Authorization header is verified.
type Middleware struct {
	Sessions *SessionAuth

	// JWTSecretKey enables the token fallback when non-empty.
	JWTSecretKey string

	// AuthTokenCookieName defaults to "authToken".
	AuthTokenCookieName string

	// LoginURL, when set, makes EnsureUser redirect instead of returning 401.
	// The original path is carried in the callbackURL query parameter.
	LoginURL string
}

func (m *Middleware) cookieName() string {
	if m.AuthTokenCookieName != "" {
		return m.AuthTokenCookieName
	}
	return "authToken"
}

// LoggedInUserID returns the principal attached to the request context by
// ExtractUser or EnsureUser, or "" for anonymous requests.
func LoggedInUserID(r *http.Request) string {
	if v, ok := r.Context().Value(principalContextKey{}).(string); ok {
		return v
	}
	return ""
}

// ExtractUser attaches the principal to the request context when one can be
// resolved. It never redirects; anonymous requests pass through unchanged.
func (m *Middleware) ExtractUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, m.withPrincipal(r))
	})
}

// EnsureUser requires an authenticated principal, redirecting to LoginURL or
// returning 401 otherwise.
func (m *Middleware) EnsureUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = m.withPrincipal(r)
		if LoggedInUserID(r) == "" {
			if m.LoginURL != "" {
				encoded := strings.ReplaceAll(url.QueryEscape(r.URL.Path), "+", "%20")
				http.Redirect(w, r, fmt.Sprintf("%s?callbackURL=%s", m.LoginURL, encoded), http.StatusFound)
			} else {
				http.Error(w, "Login Required", http.StatusUnauthorized)
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) withPrincipal(r *http.Request) *http.Request {
	principal := m.resolvePrincipal(r)
	if principal == "" {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), principalContextKey{}, principal))
}

func (m *Middleware) resolvePrincipal(r *http.Request) string {
	if m.Sessions != nil {
		user, err := m.Sessions.CurrentUser(r.Context())
		if err != nil {
			slog.Warn("error resolving session principal", "error", err)
		} else if user != nil {
			return user.ID
		}
	}

	if m.JWTSecretKey == "" {
		return ""
	}
	var tokens []string
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		tokens = append(tokens, strings.TrimPrefix(h, "Bearer "))
	}
	for _, cookie := range r.CookiesNamed(m.cookieName()) {
		if cookie.Value != "" {
			tokens = append(tokens, cookie.Value)
		}
	}
	for _, tokenString := range tokens {
		if sub, err := m.verifyToken(tokenString); err == nil && sub != "" {
			return sub
		} else if err != nil {
			slog.Warn("error verifying auth token", "error", err)
		}
	}
	return ""
}

func (m *Middleware) verifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.JWTSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("claims is not a map")
	}
	return claims.GetSubject()
}

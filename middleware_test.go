package linkauth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	oa "github.com/panyam/linkauth"
)

const testSecret = "test-secret"

func signTestToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return signed
}

func principalEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(oa.LoggedInUserID(r)))
	})
}

func TestEnsureUserRejectsAnonymous(t *testing.T) {
	m := &oa.Middleware{JWTSecretKey: testSecret}

	w := httptest.NewRecorder()
	m.EnsureUser(principalEcho()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous request got %d, want 401", w.Code)
	}
}

func TestEnsureUserRedirectsToLogin(t *testing.T) {
	m := &oa.Middleware{JWTSecretKey: testSecret, LoginURL: "/login.html"}

	w := httptest.NewRecorder()
	m.EnsureUser(principalEcho()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile", nil))
	if w.Code != http.StatusFound {
		t.Fatalf("got %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login.html?callbackURL=%2Fprofile" {
		t.Errorf("redirect location %q", loc)
	}
}

func TestEnsureUserAcceptsTokenCookie(t *testing.T) {
	m := &oa.Middleware{JWTSecretKey: testSecret}

	r := httptest.NewRequest(http.MethodGet, "/profile", nil)
	r.AddCookie(&http.Cookie{Name: "authToken", Value: signTestToken(t, testSecret, "user-42")})
	w := httptest.NewRecorder()
	m.EnsureUser(principalEcho()).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", w.Code)
	}
	if w.Body.String() != "user-42" {
		t.Errorf("principal %q, want user-42", w.Body.String())
	}
}

func TestEnsureUserAcceptsBearerHeader(t *testing.T) {
	m := &oa.Middleware{JWTSecretKey: testSecret}

	r := httptest.NewRequest(http.MethodGet, "/profile", nil)
	r.Header.Set("Authorization", "Bearer "+signTestToken(t, testSecret, "user-42"))
	w := httptest.NewRecorder()
	m.EnsureUser(principalEcho()).ServeHTTP(w, r)

	if w.Code != http.StatusOK || w.Body.String() != "user-42" {
		t.Errorf("got %d %q, want 200 user-42", w.Code, w.Body.String())
	}
}

func TestEnsureUserRejectsForgedToken(t *testing.T) {
	m := &oa.Middleware{JWTSecretKey: testSecret}

	r := httptest.NewRequest(http.MethodGet, "/profile", nil)
	r.AddCookie(&http.Cookie{Name: "authToken", Value: signTestToken(t, "other-secret", "user-42")})
	w := httptest.NewRecorder()
	m.EnsureUser(principalEcho()).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("forged token got %d, want 401", w.Code)
	}
}

func TestExtractUserPassesAnonymousThrough(t *testing.T) {
	m := &oa.Middleware{JWTSecretKey: testSecret}

	w := httptest.NewRecorder()
	m.ExtractUser(principalEcho()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", w.Code)
	}
	if w.Body.String() != "" {
		t.Errorf("anonymous request carried principal %q", w.Body.String())
	}
}

// Command linkauth-demo wires the full authentication surface against the
// JSON-file store: local signup/login plus whichever providers have
// credentials in the environment.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/alexedwards/scs/v2"

	"github.com/panyam/linkauth"
	"github.com/panyam/linkauth/oauth2providers"
	"github.com/panyam/linkauth/stores/fs"
)

func main() {
	cfg, err := linkauth.LoadConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	storagePath := os.Getenv("LINKAUTH_STORAGE_PATH")
	if storagePath == "" {
		storagePath = "./data"
	}
	store := fs.NewUserStore(storagePath)
	resolver := linkauth.NewResolver(store)

	sessions := scs.New()
	sessions.Lifetime = cfg.SessionTimeout

	auth := linkauth.New(cfg, resolver, store, sessions)
	if cfg.Facebook.Configured() {
		auth.AddProvider(oauth2providers.NewFacebook(cfg.Facebook))
	}
	if cfg.Twitter.Configured() {
		auth.AddProvider(oauth2providers.NewTwitter(cfg.Twitter))
	}
	if cfg.Google.Configured() {
		auth.AddProvider(oauth2providers.NewGoogle(cfg.Google))
	}

	middleware := &linkauth.Middleware{
		Sessions:     auth.Sessions,
		JWTSecretKey: cfg.JWTSecretKey,
		LoginURL:     "/login.html",
	}

	mux := http.NewServeMux()
	mux.Handle("/auth/", http.StripPrefix("/auth", auth.Handler()))
	mux.Handle("/profile", sessions.LoadAndSave(middleware.EnsureUser(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "Logged in as %s\n", linkauth.LoggedInUserID(r))
		}))))

	addr := os.Getenv("PORT")
	if addr == "" {
		addr = "4000"
	}
	slog.Info("listening", "port", addr)
	if err := http.ListenAndServe(":"+addr, mux); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

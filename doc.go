// Package linkauth implements account resolution and provider linking for web
// applications that support both local email/password credentials and
// third-party OAuth identities (Facebook, Twitter, Google).
//
// The package answers one question: given an authentication assertion (a
// signup form, a login form, or a completed OAuth handshake profile), which
// user account does it resolve to? A single Resolver holds all of that logic,
// parameterized by provider name rather than duplicated per provider.
//
// # Architecture
//
// User: the aggregate root. A user owns at most one local credential (email +
// password hash) and zero or more provider identities, keyed by provider name.
//
// UserStore: the persistence contract. Implementations must enforce two
// uniqueness invariants: one user per local email, and one user per
// (provider, provider id) pair. Backends are provided for JSON files
// (stores/fs), MongoDB (stores/mongo) and GORM (stores/gorm).
//
// Resolver: the decision logic. Local signup and login are straightforward
// lookups; provider assertions branch on whether the caller already holds an
// authenticated session. An anonymous assertion looks up or creates an
// account; an authenticated one links the provider identity onto the current
// account.
//
// SessionAuth: maps an authenticated user to the opaque principal stored in
// the cookie session (the user id) and back. Unknown principals decode to
// anonymous, never to an error.
//
// # Basic Usage
//
// Set up a store and the resolver:
//
//	store := fs.NewUserStore("/path/to/storage")
//	resolver := linkauth.NewResolver(store)
//
// Wire the HTTP surface:
//
//	cfg, _ := linkauth.LoadConfig()
//	sessions := scs.New()
//	auth := linkauth.New(cfg, resolver, store, sessions)
//	auth.AddProvider(oauth2providers.NewGoogle(cfg.Google, nil))
//	mux.Handle("/auth/", http.StripPrefix("/auth", auth.Handler()))
//
// # Security
//
// Passwords are hashed with bcrypt at default cost. OAuth handshakes are
// state-cookie protected. The session principal is the bare user id; an
// optional JWT cookie carries the same principal for header-based clients.
//
// # Testing
//
// Handlers can be tested without a running server using httptest. The fs
// store works against temporary directories for complete isolation.
package linkauth

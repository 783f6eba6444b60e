package linkauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ProviderProfile is the completed output of an external OAuth handshake:
// the provider's id for the user plus the token and profile fields we keep.
// The core never participates in the handshake itself; see oauth2providers.
type ProviderProfile struct {
	Provider    string
	ProviderID  string
	Token       string
	DisplayName string
	Email       string
}

// Resolver decides how an authentication assertion maps to a user record.
// The three assertion kinds are the three operations: Signup, Login and
// ResolveProvider. One resolver serves all providers; the provider name is
// carried as data in the profile.
type Resolver struct {
	store UserStore
}

// NewResolver creates a Resolver over the given store.
func NewResolver(store UserStore) *Resolver {
	return &Resolver{store: store}
}

// Signup registers a new local user. Fails with ErrEmailTaken if the email
// is already claimed.
func (r *Resolver) Signup(ctx context.Context, email, password string) (*User, error) {
	_, err := r.store.FindByLocalEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	digest, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	return r.store.Create(ctx, &User{
		ID:    uuid.NewString(),
		Local: &LocalCredential{Email: email, PasswordHash: digest},
	})
}

// Login authenticates a local user. Fails with ErrNoSuchUser for an unknown
// email and ErrBadPassword for a bad password; store failures pass through
// unmasked.
func (r *Resolver) Login(ctx context.Context, email, password string) (*User, error) {
	user, err := r.store.FindByLocalEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoSuchUser
		}
		return nil, err
	}
	if !VerifyPassword(password, user.Local.PasswordHash) {
		return nil, ErrBadPassword
	}
	return user, nil
}

// ResolveProvider resolves a completed provider handshake to a user record.
//
// When current is nil (anonymous flow) the profile's (provider, provider id)
// pair is looked up: a hit with a cleared token gets the token and profile
// backfilled, a hit with a token present is returned unchanged, and a miss
// creates a new account whose only identity is this provider. When current
// is non-nil (linking flow) the identity is installed on the current account
// unconditionally: a logged-in user clicking "connect with Facebook" means
// attach this to my account, not find me some other account. The linking
// path intentionally does not check whether another account already claims
// the pair; see the package tests for the documented behavior.
func (r *Resolver) ResolveProvider(ctx context.Context, profile ProviderProfile, current *User) (*User, error) {
	if !KnownProvider(profile.Provider) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, profile.Provider)
	}

	if current != nil {
		current.SetProvider(profile.Provider, &ProviderIdentity{
			ProviderID:  profile.ProviderID,
			Token:       profile.Token,
			DisplayName: profile.DisplayName,
			Email:       profile.Email,
		})
		return r.store.Save(ctx, current)
	}

	user, err := r.store.FindByProviderID(ctx, profile.Provider, profile.ProviderID)
	if err == nil {
		identity := user.Provider(profile.Provider)
		if identity.Token == "" {
			// Linked at one point and then unlinked: backfill the token and
			// profile, leave everything else alone.
			identity.Token = profile.Token
			identity.DisplayName = profile.DisplayName
			identity.Email = profile.Email
			return r.store.Save(ctx, user)
		}
		// Token already present: no refresh on login.
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	created, err := r.store.Create(ctx, &User{
		ID: uuid.NewString(),
		Providers: map[string]*ProviderIdentity{
			profile.Provider: {
				ProviderID:  profile.ProviderID,
				Token:       profile.Token,
				DisplayName: profile.DisplayName,
				Email:       profile.Email,
			},
		},
	})
	if errors.Is(err, ErrDuplicateIdentity) {
		// Lost a create race for the same pair: the winner's record is the
		// account. Retry as a fresh lookup, never as another create.
		return r.store.FindByProviderID(ctx, profile.Provider, profile.ProviderID)
	}
	return created, err
}

// Unlink removes an identity method from the user. For a provider, the
// sub-record keeps its claim on the (provider, provider id) pair but loses
// its token, so the next provider login backfills instead of creating a
// duplicate account. For "local" the credential is dropped entirely.
// Removing the user's last identity method fails with ErrLastIdentity.
func (r *Resolver) Unlink(ctx context.Context, user *User, method string) (*User, error) {
	switch {
	case method == "local":
		if user.Local == nil {
			return user, nil
		}
		if user.IdentityCount() <= 1 {
			return nil, ErrLastIdentity
		}
		user.Local = nil
	case KnownProvider(method):
		identity := user.Provider(method)
		if identity == nil {
			return user, nil
		}
		usable := user.IdentityCount()
		for _, p := range user.Providers {
			if p.Token == "" {
				usable--
			}
		}
		if identity.Token != "" && usable <= 1 {
			return nil, ErrLastIdentity
		}
		identity.Token = ""
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, method)
	}
	return r.store.Save(ctx, user)
}

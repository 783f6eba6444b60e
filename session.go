package linkauth

import (
	"context"
	"errors"

	"github.com/alexedwards/scs/v2"
)

// The session principal is deliberately minimal: just the user id. The full
// record is re-read from the store on every request so concurrent linking
// and unlinking are never served stale.

// EncodeSession maps an authenticated user to the opaque principal placed in
// the session.
func EncodeSession(u *User) string {
	return u.ID
}

// DecodeSession resolves a principal back to a full user. An unknown or
// empty principal is an anonymous session (nil, nil), not an error; store
// failures still surface.
func DecodeSession(ctx context.Context, store UserStore, principal string) (*User, error) {
	if principal == "" {
		return nil, nil
	}
	user, err := store.FindByID(ctx, principal)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// SessionAuth carries the authenticated principal across requests using an
// scs cookie session.
type SessionAuth struct {
	Session *scs.SessionManager
	Store   UserStore

	// Session key holding the principal. Defaults to "loggedInUserId".
	PrincipalKey string
}

func (s *SessionAuth) principalKey() string {
	if s.PrincipalKey != "" {
		return s.PrincipalKey
	}
	return "loggedInUserId"
}

// LoginUser records the user as the session principal. The session token is
// renewed first so a pre-login session id never survives authentication.
func (s *SessionAuth) LoginUser(ctx context.Context, user *User) error {
	if err := s.Session.RenewToken(ctx); err != nil {
		return err
	}
	s.Session.Put(ctx, s.principalKey(), EncodeSession(user))
	return nil
}

// LogoutUser clears the session.
func (s *SessionAuth) LogoutUser(ctx context.Context) error {
	return s.Session.Destroy(ctx)
}

// CurrentUser resolves the session principal, if any, to a full user record.
func (s *SessionAuth) CurrentUser(ctx context.Context) (*User, error) {
	return DecodeSession(ctx, s.Store, s.Session.GetString(ctx, s.principalKey()))
}

package linkauth

import "context"

// UserStore is the persistence contract for user records. Every operation is
// a potential suspension point: the backing store may be remote, so all
// methods take a context and implementations must not require callers to
// hold locks across them.
//
// Implementations must enforce two uniqueness invariants at create time:
// at most one user per local email, and at most one user per
// (provider, provider id) pair. A create that would violate either fails with
// ErrDuplicateIdentity; under a create/create race exactly one create
// succeeds and the loser observes ErrDuplicateIdentity. Backends with server
// side indexes may also reject a conflicting Save with ErrDuplicateIdentity;
// Save is otherwise a plain upsert.
//
// Lookup misses are ErrNotFound. Infrastructure failures wrap
// ErrStoreUnavailable and are never collapsed into ErrNotFound.
type UserStore interface {
	// FindByLocalEmail returns the user owning the given local email.
	FindByLocalEmail(ctx context.Context, email string) (*User, error)

	// FindByProviderID returns the user owning the given provider identity.
	FindByProviderID(ctx context.Context, provider, providerID string) (*User, error)

	// FindByID returns the user with the given id.
	FindByID(ctx context.Context, id string) (*User, error)

	// Create persists a new user. The caller assigns the id.
	Create(ctx context.Context, user *User) (*User, error)

	// Save upserts the full record for an existing id; ErrNotFound if the id
	// is unknown.
	Save(ctx context.Context, user *User) (*User, error)
}

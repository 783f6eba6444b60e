package linkauth

import "time"

// Supported provider names. The resolver treats the provider as data, so
// adding a provider means adding a constant here and a handshake for it, not
// new resolution code.
const (
	ProviderFacebook = "facebook"
	ProviderTwitter  = "twitter"
	ProviderGoogle   = "google"
)

// KnownProvider reports whether name is one of the supported providers.
func KnownProvider(name string) bool {
	switch name {
	case ProviderFacebook, ProviderTwitter, ProviderGoogle:
		return true
	}
	return false
}

// LocalCredential is the email/password identity of a user.
type LocalCredential struct {
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// ProviderIdentity is a third-party identity linked to a user. Token may be
// empty for an identity that was linked at one point and then unlinked; such
// a record keeps its claim on the (provider, provider id) pair and gets its
// token backfilled on the next provider login.
type ProviderIdentity struct {
	ProviderID  string `json:"provider_id"`
	Token       string `json:"token"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// User is the aggregate root: one account with at most one local credential
// and any number of linked provider identities keyed by provider name.
type User struct {
	ID        string                       `json:"id"`
	Local     *LocalCredential             `json:"local,omitempty"`
	Providers map[string]*ProviderIdentity `json:"providers,omitempty"`
	CreatedAt time.Time                    `json:"created_at"`
	UpdatedAt time.Time                    `json:"updated_at"`
}

// Provider returns the identity linked for the given provider, or nil.
func (u *User) Provider(name string) *ProviderIdentity {
	if u.Providers == nil {
		return nil
	}
	return u.Providers[name]
}

// SetProvider installs or overwrites the identity for the given provider.
func (u *User) SetProvider(name string, identity *ProviderIdentity) {
	if u.Providers == nil {
		u.Providers = map[string]*ProviderIdentity{}
	}
	u.Providers[name] = identity
}

// IdentityCount counts the identity methods attached to the user. Every user
// must keep at least one at all times after creation.
func (u *User) IdentityCount() int {
	n := len(u.Providers)
	if u.Local != nil {
		n++
	}
	return n
}

// Clone returns a deep copy of the user. Stores return clones so callers can
// mutate a user freely before handing it back to Save.
func (u *User) Clone() *User {
	out := *u
	if u.Local != nil {
		local := *u.Local
		out.Local = &local
	}
	if u.Providers != nil {
		out.Providers = make(map[string]*ProviderIdentity, len(u.Providers))
		for name, identity := range u.Providers {
			copied := *identity
			out.Providers[name] = &copied
		}
	}
	return &out
}

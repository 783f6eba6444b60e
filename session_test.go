package linkauth_test

import (
	"context"
	"errors"
	"testing"

	oa "github.com/panyam/linkauth"
)

func TestSessionPrincipalRoundTrip(t *testing.T) {
	resolver, store := setupResolver(t)
	ctx := context.Background()

	u, err := resolver.Signup(ctx, "a@x.com", "pw123456")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	principal := oa.EncodeSession(u)
	decoded, err := oa.DecodeSession(ctx, store, principal)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded == nil || decoded.ID != u.ID {
		t.Errorf("round trip resolved to %+v, want user %s", decoded, u.ID)
	}
}

func TestDecodeUnknownPrincipalIsAnonymous(t *testing.T) {
	_, store := setupResolver(t)
	ctx := context.Background()

	// A stale principal (deleted or never-existing user) is an anonymous
	// session, not an error.
	decoded, err := oa.DecodeSession(ctx, store, "no-such-id")
	if err != nil {
		t.Fatalf("stale principal treated as error: %v", err)
	}
	if decoded != nil {
		t.Errorf("stale principal resolved to %+v", decoded)
	}

	decoded, err = oa.DecodeSession(ctx, store, "")
	if err != nil || decoded != nil {
		t.Errorf("empty principal: got (%+v, %v), want (nil, nil)", decoded, err)
	}
}

func TestDecodeSurfacesStoreFailure(t *testing.T) {
	_, err := oa.DecodeSession(context.Background(), failingStore{}, "some-id")
	if !errors.Is(err, oa.ErrStoreUnavailable) {
		t.Errorf("store failure masked as %v", err)
	}
}

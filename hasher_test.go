package linkauth_test

import (
	"testing"

	oa "github.com/panyam/linkauth"
)

func TestHashAndVerifyPassword(t *testing.T) {
	digest, err := oa.HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if digest == "correct horse battery staple" {
		t.Fatal("digest equals the plaintext")
	}
	if !oa.VerifyPassword("correct horse battery staple", digest) {
		t.Error("correct password rejected")
	}
	if oa.VerifyPassword("wrong", digest) {
		t.Error("wrong password accepted")
	}
}

func TestHashIsSalted(t *testing.T) {
	d1, err := oa.HashPassword("pw123456")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	d2, err := oa.HashPassword("pw123456")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if d1 == d2 {
		t.Error("two hashes of the same password are identical")
	}
}

func TestVerifyMalformedDigest(t *testing.T) {
	if oa.VerifyPassword("pw123456", "not-a-bcrypt-digest") {
		t.Error("malformed digest verified as valid")
	}
	if oa.VerifyPassword("pw123456", "") {
		t.Error("empty digest verified as valid")
	}
}

package crypto

import (
	"strings"
	"testing"
)

func TestNewFieldCipher(t *testing.T) {
	t.Run("accepts a 32-byte hex key", func(t *testing.T) {
		key := strings.Repeat("ab", 32)
		if _, err := NewFieldCipher(key); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("rejects short keys", func(t *testing.T) {
		if _, err := NewFieldCipher("abcd"); err == nil {
			t.Error("expected error for short key")
		}
	})

	t.Run("rejects non-hex input", func(t *testing.T) {
		if _, err := NewFieldCipher(strings.Repeat("zz", 32)); err == nil {
			t.Error("expected error for non-hex key")
		}
	})
}

func TestSealOpen(t *testing.T) {
	cipher := NewDevFieldCipher("test-passphrase")

	t.Run("round trip", func(t *testing.T) {
		sealed, err := cipher.Seal("sensitive unlock reason")
		if err != nil {
			t.Fatalf("seal failed: %v", err)
		}
		if sealed == "sensitive unlock reason" {
			t.Fatal("sealed value must differ from plaintext")
		}

		opened, err := cipher.Open(sealed)
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		if opened != "sensitive unlock reason" {
			t.Errorf("round trip mismatch: %q", opened)
		}
	})

	t.Run("empty strings pass through", func(t *testing.T) {
		sealed, err := cipher.Seal("")
		if err != nil || sealed != "" {
			t.Errorf("empty seal should be a no-op, got %q, %v", sealed, err)
		}
		opened, err := cipher.Open("")
		if err != nil || opened != "" {
			t.Errorf("empty open should be a no-op, got %q, %v", opened, err)
		}
	})

	t.Run("nonces make ciphertexts unique", func(t *testing.T) {
		a, err := cipher.Seal("same plaintext")
		if err != nil {
			t.Fatal(err)
		}
		b, err := cipher.Seal("same plaintext")
		if err != nil {
			t.Fatal(err)
		}
		if a == b {
			t.Error("two seals of the same plaintext should differ")
		}
	})

	t.Run("wrong key fails to open", func(t *testing.T) {
		sealed, err := cipher.Seal("secret")
		if err != nil {
			t.Fatal(err)
		}
		other := NewDevFieldCipher("different-passphrase")
		if _, err := other.Open(sealed); err == nil {
			t.Error("opening with the wrong key should fail")
		}
	})

	t.Run("tampered ciphertext fails to open", func(t *testing.T) {
		if _, err := cipher.Open("bm90IGEgcmVhbCBib3ggYXQgYWxsIGp1c3QgYmFzZTY0IHRleHQgcGFkZGluZw=="); err == nil {
			t.Error("opening garbage should fail")
		}
	})
}

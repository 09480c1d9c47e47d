package backup

import (
	"bytes"
	"errors"
	"testing"
)

func TestDeriveKey(t *testing.T) {
	salt := []byte("1234567890abcdef")

	k1 := deriveKey("correct horse", salt)
	k2 := deriveKey("correct horse", salt)
	if !bytes.Equal(k1, k2) {
		t.Error("same passphrase and salt should produce the same key")
	}
	if len(k1) != keySize {
		t.Errorf("key length = %d, want %d", len(k1), keySize)
	}
	if bytes.Equal(k1, deriveKey("battery staple", salt)) {
		t.Error("different passphrases should produce different keys")
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	plaintext := []byte("SQLite format 3\x00 and some pages")

	sealed, err := Seal(plaintext, "s3cret")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if len(sealed) <= saltSize+nonceSize {
		t.Fatalf("sealed length = %d", len(sealed))
	}
	if bytes.Contains(sealed, plaintext) {
		t.Error("sealed output contains the plaintext")
	}

	got, err := Open(sealed, "s3cret")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("open = %q, want %q", got, plaintext)
	}
}

func TestSealUsesFreshSalt(t *testing.T) {
	a, _ := Seal([]byte("x"), "p")
	b, _ := Seal([]byte("x"), "p")
	if bytes.Equal(a[:saltSize], b[:saltSize]) {
		t.Error("two seals share a salt")
	}
}

func TestOpenWrongPassphrase(t *testing.T) {
	sealed, err := Seal([]byte("data"), "right")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Open(sealed, "wrong"); err == nil {
		t.Error("expected error for wrong passphrase")
	}
}

func TestOpenTampered(t *testing.T) {
	sealed, err := Seal([]byte("data"), "p")
	if err != nil {
		t.Fatal(err)
	}
	sealed[len(sealed)-1] ^= 0xff
	if _, err := Open(sealed, "p"); err == nil {
		t.Error("expected error for tampered ciphertext")
	}
}

func TestOpenTooShort(t *testing.T) {
	if _, err := Open([]byte("short"), "p"); !errors.Is(err, errShortCiphertext) {
		t.Errorf("err = %v, want errShortCiphertext", err)
	}
}

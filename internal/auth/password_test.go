package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cretpass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cretpass" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword(hash, "s3cretpass") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "wrongpass") {
		t.Error("expected mismatch for wrong password")
	}
}

func TestCheckPasswordEmptyHash(t *testing.T) {
	if CheckPassword("", "") {
		t.Error("empty hash must never match")
	}
}

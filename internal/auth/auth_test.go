package auth

import (
	"errors"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("hash must not equal the plaintext")
	}

	if err := CheckPassword(hash, "hunter22"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := CheckPassword(hash, "hunter23"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password must yield ErrInvalidCredentials, got %v", err)
	}
}

func TestCheckPasswordBadHash(t *testing.T) {
	if err := CheckPassword("not-a-bcrypt-hash", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("malformed hash must yield ErrInvalidCredentials, got %v", err)
	}
}

func TestValidUsername(t *testing.T) {
	valid := []string{"bob", "Alice99", "x1y2z3"}
	for _, u := range valid {
		if !ValidUsername(u) {
			t.Errorf("ValidUsername(%q) = false, want true", u)
		}
	}
	invalid := []string{"", "ab", "has space", "под", "semi;colon"}
	for _, u := range invalid {
		if ValidUsername(u) {
			t.Errorf("ValidUsername(%q) = true, want false", u)
		}
	}
}

func TestValidPassword(t *testing.T) {
	if ValidPassword("12345") {
		t.Error("five characters must be rejected")
	}
	if !ValidPassword("123456") {
		t.Error("six characters must be accepted")
	}
}

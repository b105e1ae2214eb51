package auth

import (
	"errors"
	"testing"
)

func TestVerify(t *testing.T) {
	hash, err := HashPassword("segredo123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	creds, err := NewStaticCredentials("ana", hash)
	if err != nil {
		t.Fatalf("NewStaticCredentials: %v", err)
	}

	if err := creds.Verify("ana", "segredo123"); err != nil {
		t.Errorf("Verify with correct pair: %v", err)
	}
	if err := creds.Verify("ana", "errada"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Verify with wrong password = %v, want ErrInvalidCredentials", err)
	}
	if err := creds.Verify("outro", "segredo123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Verify with wrong username = %v, want ErrInvalidCredentials", err)
	}
}

func TestNewStaticCredentialsRejectsBadHash(t *testing.T) {
	if _, err := NewStaticCredentials("ana", "not-a-bcrypt-hash"); err == nil {
		t.Error("expected error for malformed hash")
	}
	if _, err := NewStaticCredentials("", "$2a$10$abcdefghijklmnopqrstuv"); err == nil {
		t.Error("expected error for empty username")
	}
}

package services

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestLoginAndParseToken(t *testing.T) {
	svc, err := NewAuthService("test-signing-key", time.Hour, "coord-pass", "admin-pass")
	if err != nil {
		t.Fatal(err)
	}

	token, err := svc.Login(RoleCoordinator, "coord-pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	role, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if role != RoleCoordinator {
		t.Fatalf("expected coordinator role, got %q", role)
	}

	token, err = svc.Login(RoleAdmin, "admin-pass")
	if err != nil {
		t.Fatalf("admin login failed: %v", err)
	}
	if role, _ = svc.ParseToken(token); role != RoleAdmin {
		t.Fatalf("expected admin role, got %q", role)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := NewAuthService("test-signing-key", time.Hour, "coord-pass", "")

	if _, err := svc.Login(RoleCoordinator, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login("driver", "coord-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected rejection of unknown role, got %v", err)
	}
	// Roles with no configured secret can never log in.
	if _, err := svc.Login(RoleAdmin, ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected rejection when secret is unset, got %v", err)
	}
}

func TestLoginWithBcryptSecret(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	svc, _ := NewAuthService("test-signing-key", time.Hour, string(hash), "")

	if _, err := svc.Login(RoleCoordinator, "s3cret"); err != nil {
		t.Fatalf("login against bcrypt hash failed: %v", err)
	}
	if _, err := svc.Login(RoleCoordinator, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestParseTokenRejectsForgedAndExpired(t *testing.T) {
	svc, _ := NewAuthService("test-signing-key", time.Hour, "coord-pass", "")

	if _, err := svc.ParseToken("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}

	// Token signed with a different key.
	other, _ := NewAuthService("other-key", time.Hour, "coord-pass", "")
	forged, err := other.Login(RoleCoordinator, "coord-pass")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ParseToken(forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong key, got %v", err)
	}

	// Expired token.
	short, _ := NewAuthService("test-signing-key", time.Nanosecond, "coord-pass", "")
	expired, err := short.Login(RoleCoordinator, "coord-pass")
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := svc.ParseToken(expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

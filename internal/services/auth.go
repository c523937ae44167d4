package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Session roles
const (
	RoleCoordinator = "coordinator"
	RoleAdmin       = "admin"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService issues and validates role-scoped session tokens. Role secrets
// come from the environment, either as bcrypt hashes or (for development) as
// plain values.
type AuthService struct {
	signingKey []byte
	ttl        time.Duration
	secrets    map[string]string
}

// NewAuthService creates an auth service with the given signing key, token
// lifetime and per-role secrets.
func NewAuthService(signingKey string, ttl time.Duration, coordinatorSecret, adminSecret string) (*AuthService, error) {
	if signingKey == "" {
		return nil, errors.New("empty signing key")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthService{
		signingKey: []byte(signingKey),
		ttl:        ttl,
		secrets: map[string]string{
			RoleCoordinator: coordinatorSecret,
			RoleAdmin:       adminSecret,
		},
	}, nil
}

// Login checks the password for a role and returns a signed session token
func (a *AuthService) Login(role, password string) (string, error) {
	secret, ok := a.secrets[role]
	if !ok || secret == "" {
		return "", ErrInvalidCredentials
	}
	if !secretMatches(secret, password) {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   role,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	})
	return token.SignedString(a.signingKey)
}

// ParseToken validates a session token and returns the role it carries
func (a *AuthService) ParseToken(accessToken string) (string, error) {
	token, err := jwt.ParseWithClaims(accessToken, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.signingKey, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// secretMatches compares against a bcrypt hash when the secret looks like
// one, otherwise in constant time against the plain value.
func secretMatches(secret, password string) bool {
	if strings.HasPrefix(secret, "$2a$") || strings.HasPrefix(secret, "$2b$") || strings.HasPrefix(secret, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(secret), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(password)) == 1
}

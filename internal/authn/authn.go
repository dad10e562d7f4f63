// Package authn issues and validates bearer tokens gating script execution
// and reconstruction requests: a single admin credential bootstrapped from
// the environment, HS256 claims, bcrypt-hashed secret at rest.
package authn

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/arxos/crystalgeo/internal/config"
)

var (
	// ErrInvalidCredentials is returned by Authenticate on a wrong
	// username/password pair.
	ErrInvalidCredentials = errors.New("authn: invalid credentials")
	// ErrInvalidToken is returned by Verify for a malformed, expired, or
	// wrong-signature bearer token.
	ErrInvalidToken = errors.New("authn: invalid or expired token")
)

// Claims is the JWT payload crystalgeo issues: the caller's API key name
// plus the registered expiry/issuer claims.
type Claims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

// Manager issues and verifies bearer tokens for a single operator
// credential (this service has no multi-user account system — callers are
// API keys named by a single administrator).
type Manager struct {
	secret        []byte
	issuer        string
	expiry        time.Duration
	adminUsername string
	adminPassHash string
}

// NewManager builds a Manager from JWTConfig plus an admin username and
// plaintext password (hashed immediately, never retained in cleartext).
func NewManager(cfg config.JWTConfig, adminUsername, adminPassword string) (*Manager, error) {
	if adminUsername == "" || adminPassword == "" {
		return nil, errors.New("authn: admin username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("authn: failed to hash admin password: %w", err)
	}
	return &Manager{
		secret:        []byte(cfg.Secret),
		issuer:        cfg.Issuer,
		expiry:        cfg.Expiry,
		adminUsername: adminUsername,
		adminPassHash: string(hash),
	}, nil
}

// Authenticate checks a username/password pair and, on success, issues a
// signed bearer token.
func (m *Manager) Authenticate(username, password string) (string, time.Time, error) {
	if username != m.adminUsername {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.adminPassHash), []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}
	expiresAt := time.Now().Add(m.expiry)
	claims := &Claims{
		Subject: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    m.issuer,
			Subject:   username,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("authn: failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a bearer token string, returning its claims.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("authn: unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// FromRequest extracts the "Bearer <token>" header and verifies it.
func (m *Manager) FromRequest(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return nil, ErrInvalidToken
	}
	return m.Verify(strings.TrimPrefix(header, prefix))
}

// Middleware gates a chi handler chain behind a valid bearer token.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := m.FromRequest(r); err != nil {
			http.Error(w, ErrInvalidToken.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Package auth issues and validates the API's bearer tokens. Clients
// exchange a shared access key for a short-lived JWT; the token's subject
// becomes the scan requester id.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken     = errors.New("auth: invalid token")
	ErrTokenExpired     = errors.New("auth: token expired")
	ErrInvalidAccessKey = errors.New("auth: invalid access key")
)

// Claims are the JWT claims carried by an access token.
type Claims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// Manager signs and validates tokens against a shared HMAC secret.
type Manager struct {
	secret        []byte
	accessKeyHash []byte
	tokenDuration time.Duration
}

// NewManager creates a token manager. accessKeyHash is a bcrypt hash of the
// shared access key; empty disables Login.
func NewManager(secret, accessKeyHash string, tokenDuration time.Duration) *Manager {
	return &Manager{
		secret:        []byte(secret),
		accessKeyHash: []byte(accessKeyHash),
		tokenDuration: tokenDuration,
	}
}

// Login verifies the access key and issues a token with a fresh client id.
func (m *Manager) Login(accessKey string) (string, *Claims, error) {
	if len(m.accessKeyHash) == 0 {
		return "", nil, ErrInvalidAccessKey
	}
	if err := bcrypt.CompareHashAndPassword(m.accessKeyHash, []byte(accessKey)); err != nil {
		return "", nil, ErrInvalidAccessKey
	}
	return m.Issue(uuid.NewString())
}

// Issue signs a token for the given client id.
func (m *Manager) Issue(clientID string) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "crypto-signal-bot",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, claims, nil
}

// Validate parses a token and returns its claims.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashAccessKey produces the bcrypt hash to put in configuration.
func HashAccessKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash access key: %w", err)
	}
	return string(hash), nil
}

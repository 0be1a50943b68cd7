package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CredentialProvider supplies the bearer token sent with each catalog request.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

// Token returns the token unchanged.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// SignedToken mints short-lived HS256 tokens from a shared secret.
// A minted token is reused until it is within a tenth of its lifetime from expiry.
type SignedToken struct {
	secret  []byte
	subject string
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewSignedToken creates a SignedToken. ttl defaults to 15 minutes.
func NewSignedToken(secret, subject string, ttl time.Duration) (*SignedToken, error) {
	if len(secret) < 16 {
		return nil, errors.New("signing secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SignedToken{
		secret:  []byte(secret),
		subject: subject,
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// Token returns a valid signed token, minting a new one when needed.
func (s *SignedToken) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && now.Before(s.expires.Add(-s.ttl/10)) {
		return s.token, nil
	}

	expires := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   s.subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	s.token = signed
	s.expires = expires
	return signed, nil
}

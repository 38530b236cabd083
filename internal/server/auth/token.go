// Package auth holds the credential primitives of the server: password
// hashing and the signed, typed JWTs handed out as access and refresh tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/promptlazy/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType tags a token as access or refresh. The two are never
// interchangeable.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the JWT claims of every token: the registered claims (sub, exp,
// iat, jti) plus the token type.
type Claims struct {
	jwt.RegisteredClaims
	Type TokenType `json:"type"`
}

// Token is an issued, signed token.
type Token struct {
	Value     string
	Type      TokenType
	Subject   string
	ExpiresAt time.Time
}

// TokenCodec issues and verifies HS256 tokens. It holds only read-only
// configuration and is safe for concurrent use.
type TokenCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// Option customizes a TokenCodec.
type Option func(*TokenCodec)

// WithClock replaces time.Now as the source of the current time, both for
// computing expiry and for checking it.
func WithClock(now func() time.Time) Option {
	return func(c *TokenCodec) {
		c.now = now
	}
}

// NewTokenCodec builds a codec. An empty secret or a non-positive lifetime is
// an error.
func NewTokenCodec(secret []byte, accessTTL, refreshTTL time.Duration, opts ...Option) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token signing secret is empty")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive (access %s, refresh %s)", accessTTL, refreshTTL)
	}

	c := &TokenCodec{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// IssueAccess mints a short-lived access token for subject.
func (c *TokenCodec) IssueAccess(subject string) (*Token, error) {
	return c.issue(subject, TokenTypeAccess, c.accessTTL)
}

// IssueRefresh mints a long-lived refresh token for subject.
func (c *TokenCodec) IssueRefresh(subject string) (*Token, error) {
	return c.issue(subject, TokenTypeRefresh, c.refreshTTL)
}

func (c *TokenCodec) issue(subject string, typ TokenType, ttl time.Duration) (*Token, error) {
	now := c.now()
	expiresAt := jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: expiresAt,
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Type: typ,
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return nil, fmt.Errorf("sign %s token: %w", typ, err)
	}

	return &Token{Value: signed, Type: typ, Subject: subject, ExpiresAt: expiresAt.Time}, nil
}

// Verify checks the signature, expiry and type of tokenString and returns its
// subject. Every failure, whatever the cause, is common.ErrInvalidToken.
func (c *TokenCodec) Verify(tokenString string, expected TokenType) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return "", common.ErrInvalidToken
	}

	if claims.Type != expected || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}

// Package common contains shared constants and sentinel errors used across
// promptlazy components.
package common

// AuthorizationHeaderName carries the bearer access token on requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix must precede the token in the Authorization header,
// case-sensitive and with exactly one space.
const BearerPrefix = "Bearer "

// TokenTypeBearer is reported as token_type in token responses.
const TokenTypeBearer = "bearer"

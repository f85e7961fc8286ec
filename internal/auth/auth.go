// Package auth guards admin and bot routes. An Authenticator decides whether
// an Authorization header value grants access; Middleware applies it.
package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type Authenticator interface {
	Authenticate(header string) bool
}

// AuthenticatorFunc adapts a plain function.
type AuthenticatorFunc func(header string) bool

func (f AuthenticatorFunc) Authenticate(header string) bool { return f(header) }

// ParseBearer extracts the token from "Bearer <token>". The scheme is
// case-sensitive and an empty token is rejected.
func ParseBearer(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimPrefix(header, prefix)
	if token == "" {
		return "", false
	}
	return token, true
}

// StaticToken accepts exactly one shared secret.
type StaticToken struct {
	secret []byte
}

func NewStaticToken(secret string) *StaticToken {
	return &StaticToken{secret: []byte(secret)}
}

func (a *StaticToken) Authenticate(header string) bool {
	token, ok := ParseBearer(header)
	if !ok || len(a.secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), a.secret) == 1
}

// HashedToken accepts the secret whose bcrypt hash it was configured with.
type HashedToken struct {
	hash []byte
}

func NewHashedToken(hash string) *HashedToken {
	return &HashedToken{hash: []byte(hash)}
}

func (a *HashedToken) Authenticate(header string) bool {
	token, ok := ParseBearer(header)
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.hash, []byte(token)) == nil
}

// HashSecret returns the bcrypt hash to configure a HashedToken with.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// AnyOf passes when at least one authenticator accepts the header.
func AnyOf(authenticators ...Authenticator) Authenticator {
	return AuthenticatorFunc(func(header string) bool {
		for _, a := range authenticators {
			if a != nil && a.Authenticate(header) {
				return true
			}
		}
		return false
	})
}

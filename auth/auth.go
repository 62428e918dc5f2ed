// Package auth authenticates Flight calls by bearer token and carries the
// resulting identity in the request context.
package auth

import (
	"context"
	"errors"
)

var (
	// ErrInvalidAuthHeader is returned when the authorization header is malformed.
	ErrInvalidAuthHeader = errors.New("authorization header must use Bearer scheme")

	// ErrTokenIsEmpty is returned when the bearer token is missing.
	ErrTokenIsEmpty = errors.New("authorization token is empty")

	// ErrUnauthenticated is returned when authentication fails.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Authenticator maps a bearer token to an identity.
// Implementations MUST be goroutine-safe.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (identity string, err error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, token string) (string, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

// AnonymousIdentity is reported by NoAuth.
const AnonymousIdentity = "anonymous"

// NoAuth accepts every request as AnonymousIdentity. Development only.
func NoAuth() Authenticator {
	return AuthenticatorFunc(func(context.Context, string) (string, error) {
		return AnonymousIdentity, nil
	})
}

type identityKey struct{}

// WithIdentity stores the authenticated identity in ctx.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the authenticated identity, or "" for an
// unauthenticated request.
func IdentityFromContext(ctx context.Context) string {
	id, _ := ctx.Value(identityKey{}).(string)
	return id
}

package airport

import (
	"context"

	"github.com/hugr-lab/airport-a5/auth"
)

// Authenticator maps a bearer token to an identity.
type Authenticator = auth.Authenticator

// BearerAuth wraps a token check as an Authenticator. validate returns
// the caller identity, or ErrUnauthorized for a rejected token:
//
//	cfg := airport.ServerConfig{
//		Catalog: cat,
//		Auth: airport.BearerAuth(func(token string) (string, error) {
//			if token != secret {
//				return "", airport.ErrUnauthorized
//			}
//			return "duckdb", nil
//		}),
//	}
func BearerAuth(validate func(token string) (identity string, err error)) Authenticator {
	return auth.BearerAuth(validate)
}

// NoAuth accepts every request. Only for local use.
func NoAuth() Authenticator {
	return auth.NoAuth()
}

// StaticTokens accepts the keys of tokens and reports the mapped value as
// the identity.
func StaticTokens(tokens map[string]string) Authenticator {
	return auth.StaticTokens(tokens)
}

// IdentityFromContext returns the identity set by the auth interceptors,
// or "" for anonymous calls.
func IdentityFromContext(ctx context.Context) string {
	return auth.IdentityFromContext(ctx)
}

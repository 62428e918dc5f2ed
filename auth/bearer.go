package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
)

const bearerPrefix = "Bearer "

// TokenFromAuthorizationHeader extracts the token of a "Bearer <token>" header.
func TokenFromAuthorizationHeader(header string) (string, error) {
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		return "", ErrInvalidAuthHeader
	}
	if token == "" {
		return "", ErrTokenIsEmpty
	}
	return token, nil
}

// ValidateToken authenticates token and returns ctx carrying the identity.
// Any authenticator failure is reported as ErrUnauthenticated.
func ValidateToken(ctx context.Context, token string, authenticator Authenticator) (context.Context, error) {
	if token == "" {
		return ctx, ErrTokenIsEmpty
	}
	identity, err := authenticator.Authenticate(ctx, token)
	if err != nil {
		return ctx, ErrUnauthenticated
	}
	return WithIdentity(ctx, identity), nil
}

// BearerAuth creates an Authenticator from a validation function.
//
//	auth := BearerAuth(func(token string) (string, error) {
//	    return lookupClient(token)
//	})
func BearerAuth(validate func(token string) (identity string, err error)) Authenticator {
	return AuthenticatorFunc(func(_ context.Context, token string) (string, error) {
		return validate(token)
	})
}

var errUnknownToken = errors.New("unknown token")

// StaticTokens accepts a fixed set of tokens. Identities are the map
// values. Every configured token is compared in constant time.
func StaticTokens(tokens map[string]string) Authenticator {
	type entry struct {
		token    []byte
		identity string
	}
	entries := make([]entry, 0, len(tokens))
	for tok, id := range tokens {
		entries = append(entries, entry{token: []byte(tok), identity: id})
	}
	return BearerAuth(func(token string) (string, error) {
		given := []byte(token)
		identity, found := "", false
		for _, e := range entries {
			if subtle.ConstantTimeCompare(e.token, given) == 1 {
				identity, found = e.identity, true
			}
		}
		if !found {
			return "", errUnknownToken
		}
		return identity, nil
	})
}

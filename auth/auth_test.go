package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestNoAuth(t *testing.T) {
	for _, token := range []string{"", "anything"} {
		identity, err := NoAuth().Authenticate(context.Background(), token)
		if err != nil {
			t.Errorf("NoAuth(%q) error = %v", token, err)
		}
		if identity != AnonymousIdentity {
			t.Errorf("NoAuth(%q) identity = %q", token, identity)
		}
	}
}

func TestBearerAuth(t *testing.T) {
	errBackend := errors.New("backend down")
	auth := BearerAuth(func(token string) (string, error) {
		switch token {
		case "valid":
			return "user1", nil
		case "broken":
			return "", errBackend
		default:
			return "", errUnknownToken
		}
	})

	tests := []struct {
		token    string
		identity string
		err      error
	}{
		{"valid", "user1", nil},
		{"other", "", errUnknownToken},
		{"broken", "", errBackend},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			identity, err := auth.Authenticate(context.Background(), tt.token)
			if !errors.Is(err, tt.err) {
				t.Fatalf("error = %v, want %v", err, tt.err)
			}
			if identity != tt.identity {
				t.Errorf("identity = %q, want %q", identity, tt.identity)
			}
		})
	}
}

func TestStaticTokens(t *testing.T) {
	auth := StaticTokens(map[string]string{"t1": "alice", "t2": "bob"})
	ctx := context.Background()

	for token, want := range map[string]string{"t1": "alice", "t2": "bob"} {
		got, err := auth.Authenticate(ctx, token)
		if err != nil || got != want {
			t.Errorf("Authenticate(%q) = %q, %v; want %q", token, got, err, want)
		}
	}
	for _, token := range []string{"", "t", "t10", "T1"} {
		if _, err := auth.Authenticate(ctx, token); !errors.Is(err, errUnknownToken) {
			t.Errorf("Authenticate(%q) error = %v, want errUnknownToken", token, err)
		}
	}
}

func TestStaticTokensConcurrency(t *testing.T) {
	tokens := make(map[string]string)
	for i := 0; i < 16; i++ {
		tokens[fmt.Sprintf("token-%d", i)] = fmt.Sprintf("client-%d", i)
	}
	auth := StaticTokens(tokens)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n := i % 16
			got, err := auth.Authenticate(context.Background(), fmt.Sprintf("token-%d", n))
			if err != nil || got != fmt.Sprintf("client-%d", n) {
				errs <- fmt.Errorf("token-%d: got %q, %v", n, got, err)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestTokenFromAuthorizationHeader(t *testing.T) {
	tests := []struct {
		header string
		token  string
		err    error
	}{
		{"Bearer abc", "abc", nil},
		{"Bearer ", "", ErrTokenIsEmpty},
		{"Basic abc", "", ErrInvalidAuthHeader},
		{"bearer abc", "", ErrInvalidAuthHeader},
		{"", "", ErrInvalidAuthHeader},
	}
	for _, tt := range tests {
		token, err := TokenFromAuthorizationHeader(tt.header)
		if !errors.Is(err, tt.err) || token != tt.token {
			t.Errorf("TokenFromAuthorizationHeader(%q) = %q, %v; want %q, %v", tt.header, token, err, tt.token, tt.err)
		}
	}
}

func TestValidateToken(t *testing.T) {
	auth := StaticTokens(map[string]string{"good": "analyst"})
	ctx := context.Background()

	got, err := ValidateToken(ctx, "good", auth)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if id := IdentityFromContext(got); id != "analyst" {
		t.Errorf("identity = %q, want analyst", id)
	}

	if _, err := ValidateToken(ctx, "", auth); !errors.Is(err, ErrTokenIsEmpty) {
		t.Errorf("empty token error = %v", err)
	}
	if _, err := ValidateToken(ctx, "bad", auth); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("bad token error = %v", err)
	}
}

func TestIdentityFromContext(t *testing.T) {
	if id := IdentityFromContext(context.Background()); id != "" {
		t.Errorf("empty context identity = %q", id)
	}
	ctx := WithIdentity(context.Background(), "u")
	if id := IdentityFromContext(ctx); id != "u" {
		t.Errorf("identity = %q, want u", id)
	}
}

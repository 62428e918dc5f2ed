//go:build !cgo || !a5ffi

package ffi

import (
	"errors"
	"testing"

	"github.com/hugr-lab/airport-a5/a5"
)

func TestNewUnavailable(t *testing.T) {
	lib, err := New()
	if !errors.Is(err, a5.ErrUnavailable) {
		t.Fatalf("New() error = %v, want ErrUnavailable", err)
	}
	if lib != nil {
		t.Errorf("New() returned a library without the native build")
	}
}

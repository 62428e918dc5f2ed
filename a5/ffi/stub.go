//go:build !cgo || !a5ffi

package ffi

import "github.com/hugr-lab/airport-a5/a5"

// Library is unavailable in builds without cgo and the a5ffi tag.
type Library struct {
	a5.Library
}

// New reports that the native library is not linked in.
func New() (*Library, error) {
	return nil, a5.ErrUnavailable
}

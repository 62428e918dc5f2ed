package functions

import (
	"github.com/hugr-lab/airport-a5/a5"
)

const resolutionMessage = "Resolution must be between 0 and 30"

// ValidateResolution rejects resolutions outside [0, a5.MaxResolution].
// It must run before the value reaches the library.
func ValidateResolution(op string, res int64) error {
	if res < 0 || res > a5.MaxResolution {
		return invalidArgument(op, resolutionMessage)
	}
	return nil
}

// childResolution validates the optional children resolution. A negative
// value is the "immediate children" sentinel and passes through unchanged.
func childResolution(op string, res int64) (int32, error) {
	if res < 0 {
		return immediateChildren, nil
	}
	if err := ValidateResolution(op, res); err != nil {
		return 0, err
	}
	return int32(res), nil
}

const immediateChildren int32 = -1

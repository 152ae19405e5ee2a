package boostutils

import (
	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint | ~uint32 | ~uint64
}

// Clamp returns value limited to the closed range [low, high]. When low > high, high wins.
func Clamp[T Number](value, low, high T) T {
	if value < low {
		value = low
	}
	if value > high {
		value = high
	}
	return value
}

// CheckRange returns an error wrapping RangeError if value lies outside [low, high]
func CheckRange[T Number](value, low, high T, name string) error {
	if value < low || value > high {
		return cerrors.Wrapf(RangeError, "%s is %d, expected between %d and %d", name, value, low, high)
	}
	return nil
}

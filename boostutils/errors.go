package boostutils

import "github.com/cockroachdb/errors"

// RangeError is the error returned from CheckRange if the number being tested is out of bounds
var RangeError error = errors.New("number is out of range")

// ErrNotRegistered is returned when a boost domain has no policy sink bound to it. Kicks
// against such domains are silently dropped; only registration surfaces it.
var ErrNotRegistered error = errors.New("boost domain has no registered policy sink")

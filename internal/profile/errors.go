package profile

import "errors"

var (
	// ErrInvalidParameter is returned when generation parameters are out of
	// range. Callers surface it as a client error.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrLengthMismatch is returned when an ideal and a measured profile
	// are compared but differ in length.
	ErrLengthMismatch = errors.New("profile length mismatch")
)

package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing rows/resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid caller input.
	ErrInvalidArgument = errors.New("invalid argument")
)

package services

import "errors"

// Use-case validation errors. Domain errors (chat.ErrEmptyMessage,
// *chat.InvalidStateError) and repo sentinels (errs.ErrNotFound) propagate
// through services unwrapped in kind; these cover validation the use cases
// own themselves.
var (
	ErrInvalidSenderType = errors.New("invalid sender type")
	ErrUnsupportedStatus = errors.New("unsupported status")
	ErrEmptyContent      = errors.New("empty content")
)

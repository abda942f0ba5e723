package chat

import (
	"errors"
	"fmt"
)

// ErrEmptyMessage rejects messages whose content is empty after trimming.
var ErrEmptyMessage = errors.New("message content is empty")

// InvalidStateError rejects a state transition the conversation does not
// allow from its current status.
type InvalidStateError struct {
	Status    Status
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: cannot %s conversation in status %q", e.Operation, e.Status)
}

// IsInvalidState reports whether err is (or wraps) an InvalidStateError.
func IsInvalidState(err error) bool {
	var ise *InvalidStateError
	return errors.As(err, &ise)
}

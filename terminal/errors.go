package terminal

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalTransition is returned when an action is not allowed in the current state.
	ErrIllegalTransition = errors.New("illegal terminal transition")

	// ErrRemoteNotAllowed is returned when remote work is requested but the policy forbids it.
	ErrRemoteNotAllowed = errors.New("remote work is not allowed by the effective work policy")

	// ErrInvalidLocation is returned for a location other than office or remote.
	ErrInvalidLocation = errors.New("invalid work location")
)

// TransitionError names the rejected action and the state it was tried in.
type TransitionError struct {
	From   State
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a session that is %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}

// IsClientError returns true if the error is caused by the caller's request.
func IsClientError(err error) bool {
	return errors.Is(err, ErrIllegalTransition) ||
		errors.Is(err, ErrRemoteNotAllowed) ||
		errors.Is(err, ErrInvalidLocation)
}

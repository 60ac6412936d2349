package formflow

import (
	"errors"
	"fmt"
)

// ErrNoRequestContext is returned when an operation is invoked without an
// active request context to resolve identity from.
var ErrNoRequestContext = errors.New("no active request context available")

// ErrNoJourneyMetadata is returned when the current request's handler has no
// journey metadata attached but an operation requires one.
var ErrNoJourneyMetadata = errors.New("no journey metadata attached to the current request")

// UnknownJourneyError is the error returned when journey metadata names a
// journey that is not registered.
//
// A missing registry entry is a configuration bug, so it is always surfaced,
// never absorbed into a resolution miss.
type UnknownJourneyError struct {
	Name string
}

func (e UnknownJourneyError) Error() string {
	return fmt.Sprintf(
		"no journey named '%s' is registered",
		e.Name,
	)
}

// MissingDependentKeyError is the error returned when a new instance
// identifier is minted from request data that lacks one of the descriptor's
// dependent keys.
type MissingDependentKeyError struct {
	JourneyName string
	Key         string
}

func (e MissingDependentKeyError) Error() string {
	return fmt.Sprintf(
		"request data does not contain the '%s' key required by the '%s' journey",
		e.Key,
		e.JourneyName,
	)
}

// IncompatibleStateTypeError is the error returned when a caller's assumed
// state payload type disagrees with the type declared by the descriptor.
type IncompatibleStateTypeError struct {
	// Requested is the type the caller supplied or asked for.
	Requested string

	// Declared is the type declared by the journey's descriptor.
	Declared string
}

func (e IncompatibleStateTypeError) Error() string {
	return fmt.Sprintf(
		"state type '%s' is incompatible with the declared state type '%s'",
		e.Requested,
		e.Declared,
	)
}

// InvalidStateError is the error returned when a mutation is attempted on an
// instance that has already been completed or deleted.
type InvalidStateError struct {
	// Key is the instance's canonical identifier string.
	Key string

	// Deleted is true if the instance was deleted; otherwise it was completed.
	Deleted bool
}

func (e InvalidStateError) Error() string {
	s := "completed"
	if e.Deleted {
		s = "deleted"
	}

	return fmt.Sprintf(
		"journey instance '%s' has been %s and can no longer be modified",
		e.Key,
		s,
	)
}

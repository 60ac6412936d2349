package persistence

import (
	"fmt"
)

// AlreadyExistsError is the error returned when creating an instance entry
// under a key that is already in use.
type AlreadyExistsError struct {
	Key string
}

func (e AlreadyExistsError) Error() string {
	return fmt.Sprintf(
		"a journey instance with the ID '%s' already exists",
		e.Key,
	)
}

// NotFoundError is the error returned when a mutation is applied to an
// instance entry that does not exist.
type NotFoundError struct {
	Key string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf(
		"no journey instance with the ID '%s' exists",
		e.Key,
	)
}

package formflow

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/multierr"
)

// Descriptor describes a single journey type.
//
// Descriptors are built once, at route registration time, and are immutable
// thereafter. They are indexed by name in a Registry.
type Descriptor struct {
	// Name uniquely identifies the journey type.
	Name string

	// StateType is the type of the journey's state payload.
	StateType reflect.Type

	// DependentKeys is the ordered list of request data keys that the
	// journey's identity depends on. The order is significant; it determines
	// the canonical serialization of instance identifiers.
	DependentKeys []string

	// RequiresUniqueToken indicates whether each instance of the journey is
	// additionally identified by a randomly generated unique token.
	RequiresUniqueToken bool
}

// Validate returns an error describing every problem with the descriptor, or
// nil if the descriptor is valid.
func (d Descriptor) Validate() error {
	var err error

	if d.Name == "" {
		err = multierr.Append(
			err,
			errors.New("journey name must not be empty"),
		)
	}

	if d.StateType == nil {
		err = multierr.Append(
			err,
			errors.New("state type must not be nil"),
		)
	}

	seen := map[string]struct{}{}
	for _, k := range d.DependentKeys {
		if k == UniqueKeyName {
			err = multierr.Append(
				err,
				fmt.Errorf(
					"dependent key '%s' collides with the reserved unique token key",
					k,
				),
			)
		}

		if _, ok := seen[k]; ok {
			err = multierr.Append(
				err,
				fmt.Errorf("duplicate dependent key '%s'", k),
			)
		}

		seen[k] = struct{}{}
	}

	return err
}

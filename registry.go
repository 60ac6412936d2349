package formflow

import (
	"fmt"
	"sync"
)

// Registry is a process-wide index of journey descriptors, keyed by journey
// name.
//
// All descriptors must be registered before the first request referencing
// them arrives.
type Registry struct {
	m           sync.RWMutex
	descriptors map[string]Descriptor
}

// Register adds d to the registry.
//
// It returns an error if d is invalid, or if a descriptor with the same name
// has already been registered.
func (r *Registry) Register(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}

	r.m.Lock()
	defer r.m.Unlock()

	if _, ok := r.descriptors[d.Name]; ok {
		return fmt.Errorf(
			"a journey named '%s' is already registered",
			d.Name,
		)
	}

	if r.descriptors == nil {
		r.descriptors = map[string]Descriptor{}
	}

	// Copy the key slice so that later mutations by the caller can not change
	// the registered descriptor.
	keys := make([]string, len(d.DependentKeys))
	copy(keys, d.DependentKeys)
	d.DependentKeys = keys

	r.descriptors[d.Name] = d

	return nil
}

// Get returns the descriptor registered under the given name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.m.RLock()
	defer r.m.RUnlock()

	d, ok := r.descriptors[name]
	return d, ok
}

package formflow

import (
	"context"
	"reflect"
	"sync"

	"github.com/dogmatiq/marshalkit"
	"github.com/gunndabad/formflow-sub000/persistence"
)

// Instance is the lifecycle-aware wrapper around one journey instance's
// state.
//
// The completed and deleted flags are monotonic; once either is set it is
// never reset. The state payload may be read regardless of the flags, but may
// only be mutated while the instance is neither completed nor deleted.
//
// All mutations are persisted through the backing store before the in-memory
// representation is updated, so a successfully observed flag or payload never
// diverges from what has been persisted. If the store operation fails nothing
// changes in memory and the error is returned.
type Instance struct {
	journeyName string
	id          InstanceID
	stateType   reflect.Type
	properties  map[string]string

	store     persistence.Store
	marshaler marshalkit.ValueMarshaler

	m         sync.Mutex
	state     interface{}
	completed bool
	deleted   bool
}

// JourneyName returns the name of the journey the instance belongs to.
func (i *Instance) JourneyName() string {
	return i.journeyName
}

// InstanceID returns the instance's identifier.
func (i *Instance) InstanceID() InstanceID {
	return i.id
}

// StateType returns the type of the instance's state payload, as declared by
// the journey's descriptor.
func (i *Instance) StateType() reflect.Type {
	return i.stateType
}

// State returns the instance's current state payload.
//
// The payload remains readable after the instance has been completed or
// deleted.
func (i *Instance) State() interface{} {
	i.m.Lock()
	defer i.m.Unlock()

	return i.state
}

// Properties returns the properties associated with the instance when it was
// created.
//
// Properties are established at creation and never change; the returned map
// is a copy.
func (i *Instance) Properties() map[string]string {
	p := make(map[string]string, len(i.properties))
	for k, v := range i.properties {
		p[k] = v
	}

	return p
}

// Completed returns true if the instance has been completed.
func (i *Instance) Completed() bool {
	i.m.Lock()
	defer i.m.Unlock()

	return i.completed
}

// Deleted returns true if the instance has been deleted.
func (i *Instance) Deleted() bool {
	i.m.Lock()
	defer i.m.Unlock()

	return i.deleted
}

// UpdateState replaces the instance's state payload.
//
// It returns an InvalidStateError if the instance has been completed or
// deleted, or an IncompatibleStateTypeError if state is not of the type
// declared by the journey's descriptor.
func (i *Instance) UpdateState(ctx context.Context, state interface{}) error {
	if t := reflect.TypeOf(state); t != i.stateType {
		return IncompatibleStateTypeError{
			Requested: typeName(t),
			Declared:  typeName(i.stateType),
		}
	}

	i.m.Lock()
	defer i.m.Unlock()

	if i.completed || i.deleted {
		return InvalidStateError{
			Key:     i.id.String(),
			Deleted: i.deleted,
		}
	}

	packet, err := i.marshaler.Marshal(state)
	if err != nil {
		return err
	}

	if err := i.store.SaveState(ctx, i.id.String(), packet); err != nil {
		return err
	}

	i.state = state

	return nil
}

// Complete marks the instance as completed.
//
// Completing an already-completed instance is a no-op; the store is not
// consulted again. It returns an InvalidStateError if the instance has been
// deleted.
func (i *Instance) Complete(ctx context.Context) error {
	i.m.Lock()
	defer i.m.Unlock()

	if i.deleted {
		return InvalidStateError{
			Key:     i.id.String(),
			Deleted: true,
		}
	}

	if i.completed {
		return nil
	}

	if err := i.store.CompleteInstance(ctx, i.id.String()); err != nil {
		return err
	}

	i.completed = true

	return nil
}

// Delete removes the instance's persisted entry.
//
// Deleting an already-deleted instance is a no-op. A completed instance may
// still be deleted.
func (i *Instance) Delete(ctx context.Context) error {
	i.m.Lock()
	defer i.m.Unlock()

	if i.deleted {
		return nil
	}

	if err := i.store.DeleteInstance(ctx, i.id.String()); err != nil {
		return err
	}

	i.deleted = true

	return nil
}

// State returns the state payload of inst as T.
//
// It returns an IncompatibleStateTypeError if T is not the state type
// declared by the journey's descriptor.
func State[T any](inst *Instance) (T, error) {
	var zero T

	s := inst.State()

	v, ok := s.(T)
	if !ok {
		return zero, IncompatibleStateTypeError{
			Requested: typeName(reflect.TypeOf(zero)),
			Declared:  typeName(inst.stateType),
		}
	}

	return v, nil
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	return t.String()
}

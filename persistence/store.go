package persistence

import (
	"context"

	"github.com/dogmatiq/marshalkit"
)

// Entry is the persisted form of a journey instance.
//
// The existence of an entry is the sole source of truth for whether an
// instance exists; deleting an instance removes its entry entirely.
type Entry struct {
	// JourneyName is the name of the journey the instance belongs to.
	JourneyName string

	// Key is the canonical serialization of the instance's identifier. It is
	// the key under which the entry is persisted.
	Key string

	// StateType is the portable name of the state payload's type, as produced
	// by the marshaler. The store performs no type checking of its own; the
	// tag exists so the provider can validate and reconstruct the payload on
	// read.
	StateType string

	// State is the marshaled state payload. It is opaque to the store.
	State marshalkit.Packet

	// Properties is arbitrary data associated with the instance at creation.
	// It is never modified after the entry is created.
	Properties map[string]string

	// Completed indicates whether the instance has been completed.
	Completed bool
}

// Store is the persistence boundary for journey instance entries.
//
// A conforming implementation may be backed by server-side session state, a
// database or a distributed cache; entries are opaque to it beyond the fields
// of Entry itself.
type Store interface {
	// CreateInstance persists a new entry.
	//
	// It returns an AlreadyExistsError if an entry already exists under
	// e.Key.
	CreateInstance(ctx context.Context, e Entry) error

	// LoadInstance loads the entry persisted under the given key.
	//
	// ok is false if no such entry exists.
	LoadInstance(ctx context.Context, key string) (_ Entry, ok bool, _ error)

	// SaveState replaces the state payload of an existing entry.
	//
	// It returns a NotFoundError if no entry exists under the given key.
	SaveState(ctx context.Context, key string, state marshalkit.Packet) error

	// CompleteInstance marks an existing entry as completed.
	//
	// It returns a NotFoundError if no entry exists under the given key.
	CompleteInstance(ctx context.Context, key string) error

	// DeleteInstance removes an existing entry.
	//
	// It returns a NotFoundError if no entry exists under the given key.
	DeleteInstance(ctx context.Context, key string) error
}

// Package memorypersistence implements a journey instance store that keeps
// entries in memory.
//
// It is intended for tests and single-process use; entries do not survive a
// restart.
package memorypersistence

import (
	"context"
	"sync"

	"github.com/dogmatiq/marshalkit"
	"github.com/gunndabad/formflow-sub000/persistence"
)

// Store is an implementation of persistence.Store that keeps journey instance
// entries in memory.
//
// The zero value is ready for use.
type Store struct {
	m       sync.RWMutex
	entries map[string]persistence.Entry
}

// CreateInstance persists a new entry.
//
// It returns an AlreadyExistsError if an entry already exists under e.Key.
func (s *Store) CreateInstance(_ context.Context, e persistence.Entry) error {
	s.m.Lock()
	defer s.m.Unlock()

	if _, ok := s.entries[e.Key]; ok {
		return persistence.AlreadyExistsError{Key: e.Key}
	}

	if s.entries == nil {
		s.entries = map[string]persistence.Entry{}
	}

	s.entries[e.Key] = cloneEntry(e)

	return nil
}

// LoadInstance loads the entry persisted under the given key.
func (s *Store) LoadInstance(
	_ context.Context,
	key string,
) (persistence.Entry, bool, error) {
	s.m.RLock()
	defer s.m.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return persistence.Entry{}, false, nil
	}

	return cloneEntry(e), true, nil
}

// SaveState replaces the state payload of an existing entry.
func (s *Store) SaveState(
	_ context.Context,
	key string,
	state marshalkit.Packet,
) error {
	s.m.Lock()
	defer s.m.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return persistence.NotFoundError{Key: key}
	}

	e.State = state
	s.entries[key] = e

	return nil
}

// CompleteInstance marks an existing entry as completed.
func (s *Store) CompleteInstance(_ context.Context, key string) error {
	s.m.Lock()
	defer s.m.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return persistence.NotFoundError{Key: key}
	}

	e.Completed = true
	s.entries[key] = e

	return nil
}

// DeleteInstance removes an existing entry.
func (s *Store) DeleteInstance(_ context.Context, key string) error {
	s.m.Lock()
	defer s.m.Unlock()

	if _, ok := s.entries[key]; !ok {
		return persistence.NotFoundError{Key: key}
	}

	delete(s.entries, key)

	return nil
}

// cloneEntry copies e deeply enough that the caller and the store never share
// mutable data.
func cloneEntry(e persistence.Entry) persistence.Entry {
	props := make(map[string]string, len(e.Properties))
	for k, v := range e.Properties {
		props[k] = v
	}
	e.Properties = props

	data := make([]byte, len(e.State.Data))
	copy(data, e.State.Data)
	e.State.Data = data

	return e
}

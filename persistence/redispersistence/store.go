// Package redispersistence implements a journey instance store backed by
// Redis.
//
// Each entry is a JSON-encoded record stored under a single key, so the store
// can be shared by multiple processes serving the same site. Read-modify-write
// operations are not transactional; the store provides the same best-effort,
// last-writer-wins semantics as the rest of the persistence contract.
package redispersistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dogmatiq/marshalkit"
	"github.com/gunndabad/formflow-sub000/persistence"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix is the prefix prepended to canonical instance identifier
// strings to form Redis keys.
const DefaultKeyPrefix = "formflow:instance:"

// Store is an implementation of persistence.Store that persists journey
// instance entries in Redis.
type Store struct {
	// Client is the Redis client to use.
	Client redis.UniversalClient

	// KeyPrefix is prepended to canonical instance identifier strings to form
	// Redis keys. If it is empty, DefaultKeyPrefix is used.
	KeyPrefix string

	// TTL is the expiry applied to entries. If it is non-positive, entries
	// never expire.
	TTL time.Duration
}

// record is the JSON representation of a persisted entry.
type record struct {
	JourneyName string            `json:"journeyName"`
	StateType   string            `json:"stateType"`
	MediaType   string            `json:"mediaType"`
	Data        []byte            `json:"data,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
	Completed   bool              `json:"completed,omitempty"`
}

// CreateInstance persists a new entry.
//
// Creation uses SETNX, so racing creators of the same key cannot overwrite
// each other; exactly one wins and the rest receive an AlreadyExistsError.
func (s *Store) CreateInstance(ctx context.Context, e persistence.Entry) error {
	data, err := json.Marshal(
		record{
			JourneyName: e.JourneyName,
			StateType:   e.StateType,
			MediaType:   e.State.MediaType,
			Data:        e.State.Data,
			Properties:  e.Properties,
			Completed:   e.Completed,
		},
	)
	if err != nil {
		return err
	}

	ok, err := s.Client.SetNX(ctx, s.key(e.Key), data, s.ttl()).Result()
	if err != nil {
		return err
	}

	if !ok {
		return persistence.AlreadyExistsError{Key: e.Key}
	}

	return nil
}

// LoadInstance loads the entry persisted under the given key.
func (s *Store) LoadInstance(
	ctx context.Context,
	key string,
) (persistence.Entry, bool, error) {
	rec, ok, err := s.load(ctx, key)
	if !ok || err != nil {
		return persistence.Entry{}, false, err
	}

	if rec.Properties == nil {
		rec.Properties = map[string]string{}
	}

	return persistence.Entry{
		JourneyName: rec.JourneyName,
		Key:         key,
		StateType:   rec.StateType,
		State: marshalkit.Packet{
			MediaType: rec.MediaType,
			Data:      rec.Data,
		},
		Properties: rec.Properties,
		Completed:  rec.Completed,
	}, true, nil
}

// SaveState replaces the state payload of an existing entry.
func (s *Store) SaveState(
	ctx context.Context,
	key string,
	state marshalkit.Packet,
) error {
	return s.update(
		ctx,
		key,
		func(rec *record) {
			rec.MediaType = state.MediaType
			rec.Data = state.Data
		},
	)
}

// CompleteInstance marks an existing entry as completed.
func (s *Store) CompleteInstance(ctx context.Context, key string) error {
	return s.update(
		ctx,
		key,
		func(rec *record) {
			rec.Completed = true
		},
	)
}

// DeleteInstance removes an existing entry.
func (s *Store) DeleteInstance(ctx context.Context, key string) error {
	n, err := s.Client.Del(ctx, s.key(key)).Result()
	if err != nil {
		return err
	}

	if n == 0 {
		return persistence.NotFoundError{Key: key}
	}

	return nil
}

func (s *Store) load(ctx context.Context, key string) (record, bool, error) {
	data, err := s.Client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return record{}, false, nil
	}
	if err != nil {
		return record{}, false, err
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}, false, err
	}

	return rec, true, nil
}

func (s *Store) update(
	ctx context.Context,
	key string,
	fn func(*record),
) error {
	rec, ok, err := s.load(ctx, key)
	if err != nil {
		return err
	}

	if !ok {
		return persistence.NotFoundError{Key: key}
	}

	fn(&rec)

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return s.Client.Set(ctx, s.key(key), data, s.ttl()).Err()
}

func (s *Store) key(key string) string {
	p := s.KeyPrefix
	if p == "" {
		p = DefaultKeyPrefix
	}

	return p + key
}

func (s *Store) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}

	return 0
}

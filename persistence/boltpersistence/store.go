// Package boltpersistence implements a journey instance store backed by a
// BoltDB database.
package boltpersistence

import (
	"context"
	"os"

	"github.com/dogmatiq/marshalkit"
	"github.com/gunndabad/formflow-sub000/internal/x/bboltx"
	"github.com/gunndabad/formflow-sub000/persistence"
	"go.etcd.io/bbolt"
)

// instanceBucketKey is the key for the root bucket containing journey
// instance entries.
//
// Within the bucket, keys are canonical instance identifier strings and
// values are JSON-encoded records.
var instanceBucketKey = []byte("formflow.instance")

// Store is an implementation of persistence.Store that persists journey
// instance entries in a BoltDB database.
type Store struct {
	// DB is the BoltDB database to use.
	DB *bbolt.DB
}

// Open opens the BoltDB database file at the given path and returns a store
// backed by it.
//
// If mode is zero, 0600 is used. The caller is responsible for closing the
// database via Close().
func Open(
	ctx context.Context,
	path string,
	mode os.FileMode,
	opts *bbolt.Options,
) (*Store, error) {
	db, err := bboltx.Open(ctx, path, mode, opts)
	if err != nil {
		return nil, err
	}

	return &Store{DB: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// CreateInstance persists a new entry.
//
// The existence check and the write occur in the same BoltDB transaction, so
// creation is atomic.
func (s *Store) CreateInstance(_ context.Context, e persistence.Entry) (err error) {
	defer bboltx.Recover(&err)

	bboltx.Update(
		s.DB,
		func(tx *bbolt.Tx) {
			b := bboltx.CreateBucketIfNotExists(tx, instanceBucketKey)

			if b.Get([]byte(e.Key)) != nil {
				bboltx.Must(persistence.AlreadyExistsError{Key: e.Key})
			}

			saveRecord(b, e.Key, recordFromEntry(e))
		},
	)

	return nil
}

// LoadInstance loads the entry persisted under the given key.
func (s *Store) LoadInstance(
	_ context.Context,
	key string,
) (e persistence.Entry, ok bool, err error) {
	defer bboltx.Recover(&err)

	bboltx.View(
		s.DB,
		func(tx *bbolt.Tx) {
			b, exists := bboltx.TryBucket(tx, instanceBucketKey)
			if !exists {
				return
			}

			rec, exists := loadRecord(b, key)
			if !exists {
				return
			}

			e = rec.toEntry(key)
			ok = true
		},
	)

	return e, ok, nil
}

// SaveState replaces the state payload of an existing entry.
func (s *Store) SaveState(
	_ context.Context,
	key string,
	state marshalkit.Packet,
) (err error) {
	defer bboltx.Recover(&err)

	s.update(
		key,
		func(rec *record) {
			rec.MediaType = state.MediaType
			rec.Data = state.Data
		},
	)

	return nil
}

// CompleteInstance marks an existing entry as completed.
func (s *Store) CompleteInstance(_ context.Context, key string) (err error) {
	defer bboltx.Recover(&err)

	s.update(
		key,
		func(rec *record) {
			rec.Completed = true
		},
	)

	return nil
}

// DeleteInstance removes an existing entry.
func (s *Store) DeleteInstance(_ context.Context, key string) (err error) {
	defer bboltx.Recover(&err)

	bboltx.Update(
		s.DB,
		func(tx *bbolt.Tx) {
			b, ok := bboltx.TryBucket(tx, instanceBucketKey)
			if ok {
				if b.Get([]byte(key)) != nil {
					bboltx.Delete(b, []byte(key))
					return
				}
			}

			bboltx.Must(persistence.NotFoundError{Key: key})
		},
	)

	return nil
}

// update loads the record under key, applies fn, and writes it back, all in
// one transaction.
func (s *Store) update(key string, fn func(*record)) {
	bboltx.Update(
		s.DB,
		func(tx *bbolt.Tx) {
			b, ok := bboltx.TryBucket(tx, instanceBucketKey)
			if ok {
				if rec, exists := loadRecord(b, key); exists {
					fn(&rec)
					saveRecord(b, key, rec)
					return
				}
			}

			bboltx.Must(persistence.NotFoundError{Key: key})
		},
	)
}

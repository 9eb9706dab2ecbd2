// Package store wraps the embedded Badger database holding the reference
// records (users, cards, merchants, states) and the binary codec for their
// fixed-layout values. Tables are implemented as key prefixes within one
// keyspace. Readers work against snapshot-isolated transactions; the query
// engine never writes.
package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound reports a key absent from a table.
var ErrNotFound = errors.New("store: key not found")

// Store is a handle to the reference database.
type Store struct {
	db *badger.DB
}

// Open opens the Badger database at dir. The server opens the store
// read-only; cmd/datagen opens it writable to populate it.
func Open(dir string, readOnly bool) (*Store, error) {
	opts := badger.DefaultOptions(dir).
		WithReadOnly(readOnly).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Snapshot starts a read-only snapshot of the store. Callers must Close it.
func (s *Store) Snapshot() *Snapshot {
	return &Snapshot{txn: s.db.NewTransaction(false)}
}

// Put writes one record. Write path for the offline loader only.
func (s *Store) Put(table string, key, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(tableKey(table, key), value)
	})
	if err != nil {
		return fmt.Errorf("put %s record: %w", table, err)
	}
	return nil
}

// Snapshot is a point-in-time read view of the store.
type Snapshot struct {
	txn *badger.Txn
}

// Close discards the snapshot.
func (sn *Snapshot) Close() {
	sn.txn.Discard()
}

// Get performs an exact-key lookup in table. The second return reports
// whether the key was present.
func (sn *Snapshot) Get(table string, key []byte) ([]byte, bool, error) {
	item, err := sn.txn.Get(tableKey(table, key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s record: %w", table, err)
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, fmt.Errorf("read %s value: %w", table, err)
	}
	return value, true, nil
}

// Scan iterates over every record of table in key order. The key passed to
// fn has the table prefix stripped. Iteration stops on the first error.
func (sn *Snapshot) Scan(table string, fn func(key, value []byte) error) error {
	prefix := tablePrefix(table)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := sn.txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		key := item.KeyCopy(nil)[len(prefix):]
		value, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("scan %s value: %w", table, err)
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return nil
}

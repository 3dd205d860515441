// Copyright (C) 2025, GreenADX Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package storage provides the generic key/value capability the campaign
// ledger synchronizes against. In production the keys live in a contract's
// key/value store reached over RPC; here the same contract surface is served
// by luxfi/database backends.
package storage

import (
	"github.com/luxfi/database"
	"github.com/luxfi/database/badgerdb"
	"github.com/luxfi/database/memdb"
)

// Store is the external capability the ledger depends on. Get returns a nil
// slice for a missing key; an error from Get or Set means the store itself is
// unreachable, never "not found". IsAvailable is an informational liveness
// probe, not a gate.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	IsAvailable() bool
}

// KVStore wraps luxfi's database interface
type KVStore struct {
	db database.Database
}

// NewKVStore creates a new store instance using luxfi/database
func NewKVStore(dbType string, path string) (*KVStore, error) {
	var db database.Database
	var err error

	switch dbType {
	case "memory":
		db = memdb.New()
	case "badger":
		db, err = badgerdb.New(path, nil, "", nil)
		if err != nil {
			return nil, err
		}
	default:
		// Default to badger
		db, err = badgerdb.New(path, nil, "", nil)
		if err != nil {
			return nil, err
		}
	}

	return &KVStore{db: db}, nil
}

// NewMemStore creates an in-memory store, used by tests and local dev.
func NewMemStore() *KVStore {
	return &KVStore{db: memdb.New()}
}

// Get retrieves a value by key. Missing keys yield (nil, nil).
func (s *KVStore) Get(key string) ([]byte, error) {
	ok, err := s.db.Has([]byte(key))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return s.db.Get([]byte(key))
}

// Set stores a key-value pair, last write wins
func (s *KVStore) Set(key string, value []byte) error {
	return s.db.Put([]byte(key), value)
}

// Has checks if a key exists
func (s *KVStore) Has(key string) (bool, error) {
	return s.db.Has([]byte(key))
}

// IsAvailable probes the backing database
func (s *KVStore) IsAvailable() bool {
	_, err := s.db.Has([]byte("__liveness__"))
	return err == nil
}

// NewIteratorWithPrefix creates an iterator over keys with the given prefix
func (s *KVStore) NewIteratorWithPrefix(prefix string) database.Iterator {
	return s.db.NewIteratorWithPrefix([]byte(prefix))
}

// Close closes the database
func (s *KVStore) Close() error {
	return s.db.Close()
}

// Package kvstore adapts github.com/cometbft/cometbft-db's in-memory
// MemDB to the minimal KV interface dxcore's Fact Store is built on.
//
// Grounded on the teacher's pkg/kvdb.KVAdapter, which wraps a dbm.DB the
// same way; dxcore always constructs the memdb backend, never a
// disk-backed one, since the Fact Store is explicitly in-memory-only
// (spec.md Non-goals).
package kvstore

import (
	dbm "github.com/cometbft/cometbft-db"
)

// KV is the minimal key-value contract the Fact Store depends on.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Has(key []byte) (bool, error)
}

// Adapter wraps a cometbft-db database as a KV.
type Adapter struct {
	db dbm.DB
}

// NewMemAdapter constructs an Adapter backed by a fresh in-process MemDB.
func NewMemAdapter() *Adapter {
	return &Adapter{db: dbm.NewMemDB()}
}

func (a *Adapter) Get(key []byte) ([]byte, error) {
	return a.db.Get(key)
}

// Set writes synchronously, mirroring the teacher's KVAdapter.Set, which
// uses SetSync for durability; a MemDB backend makes that a no-op beyond
// ordinary memory writes, but keeping the call preserves the contract for
// any future non-memory backend.
func (a *Adapter) Set(key, value []byte) error {
	return a.db.SetSync(key, value)
}

func (a *Adapter) Has(key []byte) (bool, error) {
	return a.db.Has(key)
}

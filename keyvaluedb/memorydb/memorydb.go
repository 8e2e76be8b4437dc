package memorydb

import (
	"bytes"
	"errors"
	"slices"
	"sync"

	"github.com/alphabill-org/starregistry/keyvaluedb"
)

// ErrDBFull is returned by Put of the limited DB when the entry limit is reached.
var ErrDBFull = errors.New("write failed, disk is full")

type entry struct {
	key   []byte
	value []byte
}

// MemoryDB keeps entries sorted by key in memory.
type MemoryDB struct {
	mu      sync.RWMutex
	entries []entry
	limit   int
}

func New() *MemoryDB {
	return &MemoryDB{}
}

// NewWithLimiter returns DB which accepts at most "limit" entries, for
// testing disk full scenarios.
func NewWithLimiter(limit int) *MemoryDB {
	return &MemoryDB{limit: limit}
}

func (db *MemoryDB) Put(key, value []byte) error {
	if err := keyvaluedb.CheckEntry(key, value); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	idx, found := db.search(key)
	if found {
		db.entries[idx].value = bytes.Clone(value)
		return nil
	}
	if db.limit > 0 && len(db.entries) >= db.limit {
		return ErrDBFull
	}
	db.entries = slices.Insert(db.entries, idx, entry{key: bytes.Clone(key), value: bytes.Clone(value)})
	return nil
}

// First returns iterator over the snapshot of the DB content.
func (db *MemoryDB) First() keyvaluedb.Iterator {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return &iterator{entries: slices.Clone(db.entries)}
}

// Len returns number of entries in the DB.
func (db *MemoryDB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.entries)
}

func (db *MemoryDB) Close() error {
	return nil
}

func (db *MemoryDB) search(key []byte) (int, bool) {
	return slices.BinarySearchFunc(db.entries, key, func(e entry, k []byte) int {
		return bytes.Compare(e.key, k)
	})
}

package keyvaluedb

import "errors"

var (
	ErrInvalidKey = errors.New("key must not be empty")
	ErrNilValue   = errors.New("value must not be nil")
)

/*
KeyValueDB is byte storage ordered by key. Keys are compared bytewise so
fixed width big endian integer keys iterate in numeric order.
*/
type KeyValueDB interface {
	// Put stores the value under the key, existing value is overwritten.
	Put(key, value []byte) error
	// First returns iterator positioned at the smallest key, iterator is
	// not valid when the DB is empty.
	// NB! the iterator must be closed, it may hold a read transaction.
	First() Iterator
	Close() error
}

type Iterator interface {
	Valid() bool
	Next()
	// Key and Value return nil when the iterator is not valid.
	Key() []byte
	Value() []byte
	Close() error
}

// CheckEntry validates the arguments of KeyValueDB.Put.
func CheckEntry(key, value []byte) error {
	switch {
	case len(key) == 0:
		return ErrInvalidKey
	case value == nil:
		return ErrNilValue
	}
	return nil
}

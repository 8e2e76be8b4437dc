package boltdb

import (
	bolt "go.etcd.io/bbolt"
)

/*
iterator holds read-only Bolt transaction open until Close is called. Key and
Value are valid only while the transaction is open.
*/
type iterator struct {
	tx     *bolt.Tx
	cursor *bolt.Cursor
	key    []byte
	value  []byte
}

func newIterator(db *bolt.DB, bucket []byte) *iterator {
	tx, err := db.Begin(false)
	if err != nil {
		// closed DB, iterator is not valid
		return &iterator{}
	}
	it := &iterator{tx: tx}
	if b := tx.Bucket(bucket); b != nil {
		it.cursor = b.Cursor()
	}
	return it
}

func (it *iterator) first() {
	if it.cursor != nil {
		it.key, it.value = it.cursor.First()
	}
}

func (it *iterator) Valid() bool {
	return it.key != nil
}

func (it *iterator) Next() {
	if it.Valid() {
		it.key, it.value = it.cursor.Next()
	}
}

func (it *iterator) Key() []byte {
	return it.key
}

func (it *iterator) Value() []byte {
	return it.value
}

func (it *iterator) Close() error {
	if it.tx == nil {
		return nil
	}
	tx := it.tx
	it.tx, it.cursor, it.key, it.value = nil, nil, nil, nil
	return tx.Rollback()
}

package boltdb

import (
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/alphabill-org/starregistry/keyvaluedb"
)

const defaultBucket = "starregistry"

// BoltDB stores entries in single bucket of the Bolt database file.
type BoltDB struct {
	db     *bolt.DB
	bucket []byte
}

// New opens (creates when missing) Bolt DB file.
func New(dbFile string) (*BoltDB, error) {
	db, err := bolt.Open(dbFile, 0600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db %q: %w", dbFile, err)
	}
	s := &BoltDB{db: db, bucket: []byte(defaultBucket)}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	}); err != nil {
		return nil, errors.Join(fmt.Errorf("creating bucket: %w", err), db.Close())
	}
	return s, nil
}

func (db *BoltDB) Path() string {
	return db.db.Path()
}

// Put stores the entry and syncs the file before returning.
func (db *BoltDB) Put(key, value []byte) error {
	if err := keyvaluedb.CheckEntry(key, value); err != nil {
		return err
	}
	if err := db.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(db.bucket).Put(key, value)
	}); err != nil {
		return fmt.Errorf("bolt db write failed: %w", err)
	}
	return nil
}

func (db *BoltDB) First() keyvaluedb.Iterator {
	it := newIterator(db.db, db.bucket)
	it.first()
	return it
}

func (db *BoltDB) Close() error {
	return db.db.Close()
}

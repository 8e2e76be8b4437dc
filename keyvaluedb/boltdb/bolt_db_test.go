package boltdb

import (
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/starregistry/keyvaluedb"
)

func initBoltDB(t *testing.T) *BoltDB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NotNil(t, db)
	t.Cleanup(func() { require.NoError(t, db.Close()) })
	return db
}

func TestBoltDB_InvalidPath(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "missing", "test.db"))
	require.ErrorContains(t, err, "opening bolt db")
	require.Nil(t, db)
}

func TestBoltDB_Put(t *testing.T) {
	db := initBoltDB(t)
	it := db.First()
	require.False(t, it.Valid())
	require.Nil(t, it.Key())
	require.NoError(t, it.Close())

	require.NoError(t, db.Put([]byte("k"), []byte("v1")))
	require.NoError(t, db.Put([]byte("k"), []byte("v2")))

	it = db.First()
	require.True(t, it.Valid())
	require.Equal(t, []byte("k"), it.Key())
	require.Equal(t, []byte("v2"), it.Value())
	it.Next()
	require.False(t, it.Valid())
	require.NoError(t, it.Close())
	// closing twice is allowed
	require.NoError(t, it.Close())
}

func TestBoltDB_PutInvalidArguments(t *testing.T) {
	db := initBoltDB(t)
	require.ErrorIs(t, db.Put(nil, []byte("v")), keyvaluedb.ErrInvalidKey)
	require.ErrorIs(t, db.Put([]byte("k"), nil), keyvaluedb.ErrNilValue)
}

func TestBoltDB_IteratorOrder(t *testing.T) {
	db := initBoltDB(t)
	for _, h := range []uint64{256, 1, 0, 65536, 2} {
		require.NoError(t, db.Put(binary.BigEndian.AppendUint64(nil, h), []byte{byte(h)}))
	}

	var heights []uint64
	it := db.First()
	for ; it.Valid(); it.Next() {
		heights = append(heights, binary.BigEndian.Uint64(it.Key()))
	}
	require.NoError(t, it.Close())
	require.Equal(t, []uint64{0, 1, 2, 256, 65536}, heights)
}

func TestBoltDB_Reopen(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := New(dbFile)
	require.NoError(t, err)
	require.Equal(t, dbFile, db.Path())
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	// iterator of closed db is not valid
	it := db.First()
	require.False(t, it.Valid())
	require.NoError(t, it.Close())

	db, err = New(dbFile)
	require.NoError(t, err)
	defer db.Close()
	it = db.First()
	defer it.Close()
	require.True(t, it.Valid())
	require.Equal(t, []byte("v"), it.Value())
}

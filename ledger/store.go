package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/alphabill-org/starregistry/keyvaluedb"
	"github.com/alphabill-org/starregistry/types"
)

/*
BlockStore persists committed blocks in key-value database, key is the
block height as 8 byte big endian integer so the iteration order of the
database is the height order. Blocks are stored CBOR encoded.
*/
type BlockStore struct {
	db keyvaluedb.KeyValueDB
}

func NewBlockStore(db keyvaluedb.KeyValueDB) (*BlockStore, error) {
	if db == nil {
		return nil, errors.New("block store database is nil")
	}
	return &BlockStore{db: db}, nil
}

func (s *BlockStore) Write(b *types.Block) error {
	data, err := cbor.Marshal(b)
	if err != nil {
		return fmt.Errorf("encoding block %d: %w", b.Height, err)
	}
	if err := s.db.Put(heightKey(b.Height), data); err != nil {
		return fmt.Errorf("writing block %d: %w", b.Height, err)
	}
	return nil
}

// Load returns all stored blocks in height order.
func (s *BlockStore) Load() (blocks []*types.Block, rErr error) {
	it := s.db.First()
	defer func() { rErr = errors.Join(rErr, it.Close()) }()

	for ; it.Valid(); it.Next() {
		key := it.Key()
		if len(key) != 8 {
			return nil, fmt.Errorf("%w: invalid block key %x", ErrChainIntegrity, key)
		}
		if h := binary.BigEndian.Uint64(key); h != uint64(len(blocks)) {
			return nil, fmt.Errorf("%w: expected block %d, found block %d", ErrInvalidHeight, len(blocks), h)
		}
		b := &types.Block{}
		if err := cbor.Unmarshal(it.Value(), b); err != nil {
			return nil, fmt.Errorf("reading block %d: %w", len(blocks), err)
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func (s *BlockStore) Close() error {
	return s.db.Close()
}

func heightKey(height uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, height)
}

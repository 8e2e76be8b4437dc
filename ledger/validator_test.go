package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/starregistry/types"
)

// newChain builds valid chain of n blocks
func newChain(t *testing.T, n int) []*types.Block {
	t.Helper()
	var blocks []*types.Block
	for i := 0; i < n; i++ {
		var payload any = types.GenesisMarker
		if i > 0 {
			payload = &types.StarRecord{Owner: "addr", Star: []byte(`{}`)}
		}
		b, err := types.NewBlock(payload)
		require.NoError(t, err)
		b.Height = uint64(i)
		b.Time = testTime + uint64(i)
		if i > 0 {
			b.PreviousHash = blocks[i-1].Hash
		}
		b.Hash, err = b.Digest()
		require.NoError(t, err)
		blocks = append(blocks, b)
	}
	return blocks
}

func rehash(t *testing.T, b *types.Block) {
	t.Helper()
	var err error
	b.Hash, err = b.Digest()
	require.NoError(t, err)
}

func TestValidateChain(t *testing.T) {
	t.Run("empty and single block sequences are valid", func(t *testing.T) {
		require.Empty(t, ValidateChain(nil))
		require.Empty(t, ValidateChain([]*types.Block{}))
		require.Empty(t, ValidateChain([]*types.Block{{Height: 5, Hash: "garbage"}}))
	})

	t.Run("valid chain", func(t *testing.T) {
		require.Empty(t, ValidateChain(newChain(t, 5)))
	})

	t.Run("input is not modified", func(t *testing.T) {
		blocks := newChain(t, 3)
		copies := []*types.Block{blocks[0].Copy(), blocks[1].Copy(), blocks[2].Copy()}
		blocks[1].Time++
		_ = ValidateChain(blocks)
		require.Equal(t, copies[0], blocks[0])
		require.Equal(t, copies[2], blocks[2])
		require.Equal(t, copies[1].Time+1, blocks[1].Time)
	})

	t.Run("tampered body", func(t *testing.T) {
		blocks := newChain(t, 4)
		blocks[2].Body = []byte(`{"owner":"thief","star":{}}`)
		errs := ValidateChain(blocks)
		require.Len(t, errs, 1)
		require.ErrorIs(t, errs[0], ErrInvalidHash)
		require.EqualError(t, errs[0], "block 2: chain integrity violation: block hash does not match block content")
	})

	t.Run("rehashed tampered block breaks the link", func(t *testing.T) {
		blocks := newChain(t, 4)
		blocks[2].Body = []byte(`{"owner":"thief","star":{}}`)
		rehash(t, blocks[2])
		errs := ValidateChain(blocks)
		require.Len(t, errs, 1)
		require.ErrorIs(t, errs[0], ErrBrokenLink)
		require.ErrorContains(t, errs[0], "block 3")
	})

	t.Run("every violation is reported", func(t *testing.T) {
		blocks := newChain(t, 5)
		blocks[1].Time++
		blocks[3].PreviousHash = "00"
		rehash(t, blocks[3])
		errs := ValidateChain(blocks)
		require.Len(t, errs, 3)
		require.ErrorIs(t, errs[0], ErrInvalidHash)
		require.ErrorIs(t, errs[1], ErrBrokenLink)
		// block 4 links to the old hash of block 3
		require.ErrorIs(t, errs[2], ErrBrokenLink)
	})

	t.Run("height gap", func(t *testing.T) {
		blocks := newChain(t, 3)
		blocks[2].Height = 5
		rehash(t, blocks[2])
		errs := ValidateChain(blocks)
		require.Len(t, errs, 1)
		require.ErrorIs(t, errs[0], ErrInvalidHeight)
		require.ErrorContains(t, errs[0], "expected 2, got 5")
	})

	t.Run("genesis with previous hash", func(t *testing.T) {
		blocks := newChain(t, 2)
		blocks[0].PreviousHash = "ab"
		rehash(t, blocks[0])
		errs := ValidateChain(blocks)
		require.Len(t, errs, 2)
		require.ErrorIs(t, errs[0], ErrInvalidGenesis)
		require.ErrorIs(t, errs[1], ErrBrokenLink)
	})

	t.Run("nil block", func(t *testing.T) {
		blocks := newChain(t, 3)
		blocks[1] = nil
		errs := ValidateChain(blocks)
		require.Len(t, errs, 1)
		require.ErrorIs(t, errs[0], ErrInvalidHash)
		require.ErrorContains(t, errs[0], "block at index 1")
	})

	t.Run("sub sequence", func(t *testing.T) {
		blocks := newChain(t, 5)
		require.Empty(t, ValidateChain(blocks[2:]))
	})
}

func Test_validateGenesis(t *testing.T) {
	blocks := newChain(t, 2)
	require.NoError(t, validateGenesis(blocks[0]))
	require.ErrorIs(t, validateGenesis(blocks[1]), ErrInvalidGenesis)
	require.ErrorIs(t, validateGenesis(nil), ErrInvalidGenesis)

	blocks[0].Time++
	require.ErrorIs(t, validateGenesis(blocks[0]), ErrInvalidHash)
}

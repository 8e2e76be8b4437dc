package ledger

import (
	"fmt"

	"github.com/alphabill-org/starregistry/types"
)

/*
ValidateChain checks the structural integrity of the sequence of blocks and
returns every violation found, empty result means the sequence is valid.
Sequence of zero or one blocks is always valid.

For every block the stored hash must match the block content and the height
must follow the height of the previous block. Every block must be linked to
the previous one by its PreviousHash. Sequence which starts at height zero
must start with a genesis block.

The input is not modified.
*/
func ValidateChain(blocks []*types.Block) []error {
	if len(blocks) <= 1 {
		return nil
	}

	var errs []error
	if first := blocks[0]; first != nil && first.Height == 0 && !first.IsGenesis() {
		errs = append(errs, fmt.Errorf("block 0: %w: previous hash is %q", ErrInvalidGenesis, first.PreviousHash))
	}

	for i, b := range blocks {
		if b == nil {
			errs = append(errs, fmt.Errorf("block at index %d: %w: block is nil", i, ErrInvalidHash))
			continue
		}
		if !b.HasValidHash() {
			errs = append(errs, fmt.Errorf("block %d: %w", b.Height, ErrInvalidHash))
		}
		if i == 0 {
			continue
		}
		prev := blocks[i-1]
		if prev == nil {
			continue
		}
		if b.Height != prev.Height+1 {
			errs = append(errs, fmt.Errorf("block at index %d: %w: expected %d, got %d", i, ErrInvalidHeight, prev.Height+1, b.Height))
		}
		if b.PreviousHash != prev.Hash {
			errs = append(errs, fmt.Errorf("block %d: %w", b.Height, ErrBrokenLink))
		}
	}
	return errs
}

// validateGenesis checks the block which is going to be the only block of the chain.
func validateGenesis(b *types.Block) error {
	if b == nil || !b.IsGenesis() {
		return fmt.Errorf("block 0: %w", ErrInvalidGenesis)
	}
	if !b.HasValidHash() {
		return fmt.Errorf("block 0: %w", ErrInvalidHash)
	}
	return nil
}

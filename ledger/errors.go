package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrChainIntegrity = errors.New("chain integrity violation")

	ErrInvalidHash    = fmt.Errorf("%w: block hash does not match block content", ErrChainIntegrity)
	ErrBrokenLink     = fmt.Errorf("%w: previous hash does not match hash of the previous block", ErrChainIntegrity)
	ErrInvalidHeight  = fmt.Errorf("%w: unexpected block height", ErrChainIntegrity)
	ErrInvalidGenesis = fmt.Errorf("%w: invalid genesis block", ErrChainIntegrity)
)

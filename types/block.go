package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fxamacker/cbor/v2"
)

// NoPreviousHash is the previous hash of the genesis block.
const NoPreviousHash = ""

// GenesisMarker is the payload of the genesis block.
const GenesisMarker = "First block in the chain - Genesis block"

var ErrDecode = errors.New("block body decode failed")

/*
Block is a single ledger record. Height, Time, PreviousHash and Hash are assigned
by the ledger when the block is appended, Body holds the hex encoded JSON payload.
*/
type Block struct {
	_            struct{}      `cbor:",toarray"`
	Height       uint64        `json:"height"`
	Time         uint64        `json:"time"`
	PreviousHash string        `json:"previousBlockHash"`
	Hash         string        `json:"hash"`
	Body         hexutil.Bytes `json:"body"`
}

// digestInput is the canonical form of the block used as input for the digest.
// Field order is fixed by the toarray encoding, Hash is not part of it.
type digestInput struct {
	_            struct{} `cbor:",toarray"`
	Height       uint64
	Time         uint64
	PreviousHash string
	Body         []byte
}

var canonicalEnc cbor.EncMode

func init() {
	var err error
	if canonicalEnc, err = cbor.CanonicalEncOptions().EncMode(); err != nil {
		panic(fmt.Errorf("creating canonical CBOR encoder: %w", err))
	}
}

// NewBlock creates unlinked block with payload encoded as its body.
func NewBlock(payload any) (*Block, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding block payload: %w", err)
	}
	return &Block{Body: body}, nil
}

// Decode decodes the block body into v.
func (b *Block) Decode(v any) error {
	if b == nil {
		return fmt.Errorf("%w: block is nil", ErrDecode)
	}
	if !json.Valid(b.Body) {
		return fmt.Errorf("%w: block %d body is not valid JSON", ErrDecode, b.Height)
	}
	if err := json.Unmarshal(b.Body, v); err != nil {
		return fmt.Errorf("%w: block %d: %w", ErrDecode, b.Height, err)
	}
	return nil
}

/*
Digest returns hex encoded SHA-256 of the canonical CBOR encoding of the array
[Height, Time, PreviousHash, Body].
*/
func (b *Block) Digest() (string, error) {
	data, err := canonicalEnc.Marshal(&digestInput{
		Height:       b.Height,
		Time:         b.Time,
		PreviousHash: b.PreviousHash,
		Body:         b.Body,
	})
	if err != nil {
		return "", fmt.Errorf("block serialization error: %w", err)
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:]), nil
}

// HasValidHash recomputes the digest of the block and compares it to the stored hash.
func (b *Block) HasValidHash() bool {
	if b == nil {
		return false
	}
	h, err := b.Digest()
	if err != nil {
		return false
	}
	return h == b.Hash
}

func (b *Block) IsGenesis() bool {
	return b.Height == 0 && b.PreviousHash == NoPreviousHash
}

func (b *Block) Copy() *Block {
	if b == nil {
		return nil
	}
	return &Block{
		Height:       b.Height,
		Time:         b.Time,
		PreviousHash: b.PreviousHash,
		Hash:         b.Hash,
		Body:         bytes.Clone(b.Body),
	}
}

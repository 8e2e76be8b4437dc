package types

import (
	"bytes"
	"encoding/json"
	"errors"
)

// StarRecord is the payload of every non-genesis block.
type StarRecord struct {
	Owner string          `json:"owner"`
	Star  json.RawMessage `json:"star"`
}

var ErrInvalidStar = errors.New("star data is missing or not valid JSON")

// NewStarRecord creates payload registering star to owner.
func NewStarRecord(owner string, star json.RawMessage) (*StarRecord, error) {
	if len(star) == 0 || bytes.Equal(star, []byte("null")) || !json.Valid(star) {
		return nil, ErrInvalidStar
	}
	return &StarRecord{Owner: owner, Star: star}, nil
}

// DecodeStar decodes the block body as StarRecord.
func (b *Block) DecodeStar() (*StarRecord, error) {
	sr := &StarRecord{}
	if err := b.Decode(sr); err != nil {
		return nil, err
	}
	return sr, nil
}

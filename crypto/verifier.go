package crypto

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrAddressMismatch    = errors.New("signature was not made by the address owner")
	ErrUnsupportedAddress = errors.New("unsupported address")
)

type (
	// MessageVerifier verifies that "signature" over "message" was made by the owner of the wallet "address".
	MessageVerifier interface {
		VerifyMessage(message, address, signature string) error
	}

	// MessageSigner signs messages in the format MessageVerifier understands.
	MessageSigner interface {
		// Address of the wallet the signer holds key for.
		Address() string
		SignMessage(message string) (string, error)
	}
)

/*
MultiVerifier dispatches verification to Ethereum verifier when the address
is "0x" prefixed 20 byte hex string and to Bitcoin verifier otherwise.
*/
type MultiVerifier struct {
	btc MessageVerifier
	eth MessageVerifier
}

func NewMultiVerifier(btc, eth MessageVerifier) *MultiVerifier {
	return &MultiVerifier{btc: btc, eth: eth}
}

func (v *MultiVerifier) VerifyMessage(message, address, signature string) error {
	if IsEthereumAddress(address) {
		if v.eth == nil {
			return ErrUnsupportedAddress
		}
		return v.eth.VerifyMessage(message, address, signature)
	}
	if v.btc == nil {
		return ErrUnsupportedAddress
	}
	return v.btc.VerifyMessage(message, address, signature)
}

func IsEthereumAddress(address string) bool {
	return (strings.HasPrefix(address, "0x") || strings.HasPrefix(address, "0X")) && common.IsHexAddress(address)
}

package crypto

import (
	"bytes"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// EthereumVerifier verifies EIP-191 "personal_sign" signatures.
type EthereumVerifier struct{}

func NewEthereumVerifier() *EthereumVerifier {
	return &EthereumVerifier{}
}

func (v *EthereumVerifier) VerifyMessage(message, address, signature string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("%w: %q is not an ethereum address", ErrUnsupportedAddress, address)
	}
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return fmt.Errorf("%w: decoding hex: %w", ErrInvalidSignature, err)
	}
	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, crypto.SignatureLength, len(sig))
	}
	sig = bytes.Clone(sig)
	// wallets use 27/28 for the recovery id
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	if crypto.PubkeyToAddress(*pub) != common.HexToAddress(address) {
		return ErrAddressMismatch
	}
	return nil
}

type EthereumSigner struct {
	key *ecdsa.PrivateKey
}

func NewEthereumSigner(privKey []byte) (*EthereumSigner, error) {
	key, err := crypto.ToECDSA(privKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &EthereumSigner{key: key}, nil
}

// Address returns EIP-55 checksummed address.
func (s *EthereumSigner) Address() string {
	return crypto.PubkeyToAddress(s.key.PublicKey).Hex()
}

func (s *EthereumSigner) SignMessage(message string) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), s.key)
	if err != nil {
		return "", fmt.Errorf("signing message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

package crypto

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

const bitcoinMessageMagic = "Bitcoin Signed Message:\n"

// compact signature header ranges, see BIP-137
const (
	headerMin        = 27
	headerCompressed = 31
	headerP2SHP2WPKH = 35
	headerP2WPKH     = 39
	headerMax        = 42
)

// BitcoinAddressKind selects the address type of the BitcoinSigner.
type BitcoinAddressKind int

const (
	P2PKH BitcoinAddressKind = iota
	P2SHP2WPKH
	P2WPKH
)

// BitcoinVerifier verifies "Bitcoin Signed Message" signatures (BIP-137).
type BitcoinVerifier struct {
	params *chaincfg.Params
}

func NewBitcoinVerifier(params *chaincfg.Params) *BitcoinVerifier {
	if params == nil {
		params = &chaincfg.MainNetParams
	}
	return &BitcoinVerifier{params: params}
}

// BitcoinParams returns chain parameters by network name.
func BitcoinParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "", "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet3", "testnet":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "simnet":
		return &chaincfg.SimNetParams, nil
	default:
		return nil, fmt.Errorf("unknown bitcoin network %q", network)
	}
}

func (v *BitcoinVerifier) VerifyMessage(message, address, signature string) error {
	addr, err := btcutil.DecodeAddress(address, v.params)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedAddress, err)
	}
	if !addr.IsForNet(v.params) {
		return fmt.Errorf("%w: address is not for network %s", ErrUnsupportedAddress, v.params.Name)
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: decoding base64: %w", ErrInvalidSignature, err)
	}
	if len(sig) != 65 {
		return fmt.Errorf("%w: expected 65 bytes, got %d", ErrInvalidSignature, len(sig))
	}
	if sig[0] < headerMin || sig[0] > headerMax {
		return fmt.Errorf("%w: invalid header byte %d", ErrInvalidSignature, sig[0])
	}
	// segwit headers are normalized to "compressed key" headers, the
	// address type is decided by the address itself
	sig = bytes.Clone(sig)
	switch {
	case sig[0] >= headerP2WPKH:
		sig[0] -= headerP2WPKH - headerCompressed
	case sig[0] >= headerP2SHP2WPKH:
		sig[0] -= headerP2SHP2WPKH - headerCompressed
	}

	hash, err := bitcoinMessageHash(message)
	if err != nil {
		return err
	}
	pub, compressed, err := ecdsa.RecoverCompact(sig, hash)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	recovered, err := bitcoinAddress(pub, compressed, addressKind(addr), v.params)
	if err != nil {
		return err
	}
	if recovered.EncodeAddress() != addr.EncodeAddress() {
		return ErrAddressMismatch
	}
	return nil
}

func addressKind(addr btcutil.Address) BitcoinAddressKind {
	switch addr.(type) {
	case *btcutil.AddressScriptHash:
		return P2SHP2WPKH
	case *btcutil.AddressWitnessPubKeyHash:
		return P2WPKH
	case *btcutil.AddressPubKeyHash:
		return P2PKH
	default:
		return -1
	}
}

func bitcoinAddress(pub *btcec.PublicKey, compressed bool, kind BitcoinAddressKind, params *chaincfg.Params) (btcutil.Address, error) {
	switch kind {
	case P2PKH:
		key := pub.SerializeUncompressed()
		if compressed {
			key = pub.SerializeCompressed()
		}
		return btcutil.NewAddressPubKeyHash(btcutil.Hash160(key), params)
	case P2WPKH:
		if !compressed {
			return nil, fmt.Errorf("%w: segwit address requires compressed key", ErrInvalidSignature)
		}
		return btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), params)
	case P2SHP2WPKH:
		if !compressed {
			return nil, fmt.Errorf("%w: segwit address requires compressed key", ErrInvalidSignature)
		}
		// OP_0 <20 byte key hash>
		redeemScript := append([]byte{0x00, 0x14}, btcutil.Hash160(pub.SerializeCompressed())...)
		return btcutil.NewAddressScriptHash(redeemScript, params)
	default:
		return nil, ErrUnsupportedAddress
	}
}

func bitcoinMessageHash(message string) ([]byte, error) {
	var buf bytes.Buffer
	if err := wire.WriteVarString(&buf, 0, bitcoinMessageMagic); err != nil {
		return nil, fmt.Errorf("serializing message magic: %w", err)
	}
	if err := wire.WriteVarString(&buf, 0, message); err != nil {
		return nil, fmt.Errorf("serializing message: %w", err)
	}
	return chainhash.DoubleHashB(buf.Bytes()), nil
}

// BitcoinSigner signs messages with compressed secp256k1 key.
type BitcoinSigner struct {
	key    *btcec.PrivateKey
	kind   BitcoinAddressKind
	params *chaincfg.Params
}

func NewBitcoinSigner(privKey []byte, kind BitcoinAddressKind, params *chaincfg.Params) (*BitcoinSigner, error) {
	if len(privKey) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("invalid private key length %d", len(privKey))
	}
	if params == nil {
		params = &chaincfg.MainNetParams
	}
	key, _ := btcec.PrivKeyFromBytes(privKey)
	if _, err := bitcoinAddress(key.PubKey(), true, kind, params); err != nil {
		return nil, err
	}
	return &BitcoinSigner{key: key, kind: kind, params: params}, nil
}

func (s *BitcoinSigner) Address() string {
	addr, err := bitcoinAddress(s.key.PubKey(), true, s.kind, s.params)
	if err != nil {
		// kind was checked in the constructor
		panic(err)
	}
	return addr.EncodeAddress()
}

func (s *BitcoinSigner) SignMessage(message string) (string, error) {
	hash, err := bitcoinMessageHash(message)
	if err != nil {
		return "", err
	}
	sig, err := ecdsa.SignCompact(s.key, hash, true)
	if err != nil {
		return "", fmt.Errorf("signing message: %w", err)
	}
	switch s.kind {
	case P2SHP2WPKH:
		sig[0] += headerP2SHP2WPKH - headerCompressed
	case P2WPKH:
		sig[0] += headerP2WPKH - headerCompressed
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

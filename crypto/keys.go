package crypto

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/tyler-smith/go-bip39"
)

const mnemonicEntropyBitSize = 128

// NewMnemonic generates new BIP-39 mnemonic of 12 words.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBitSize)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// BitcoinDerivationPath returns BIP-44 derivation path of the first receive address of the account.
func BitcoinDerivationPath(account uint32) string {
	// m / purpose' / coin_type' / account' / change / address_index
	return fmt.Sprintf("m/44'/0'/%d'/0/0", account)
}

func EthereumDerivationPath(account uint32) string {
	return fmt.Sprintf("m/44'/60'/%d'/0/0", account)
}

/*
DeriveKey derives secp256k1 private key (32 bytes) from the mnemonic
(with empty passphrase) and BIP-32 derivation path.
*/
func DeriveKey(mnemonic, derivationPath string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("invalid mnemonic")
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, err
	}
	path, err := accounts.ParseDerivationPath(derivationPath)
	if err != nil {
		return nil, err
	}

	// only HDPrivateKeyID is used from chaincfg.MainNetParams,
	// it is the version flag of the extended key and doesn't affect derived keys.
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	for _, n := range path {
		if key, err = key.Derive(n); err != nil {
			return nil, fmt.Errorf("deriving key %s: %w", derivationPath, err)
		}
	}
	privKey, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return privKey.Serialize(), nil
}

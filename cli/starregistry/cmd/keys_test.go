package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"

	"github.com/alphabill-org/starregistry/crypto"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestKeys_FromMnemonic(t *testing.T) {
	homeDir := t.TempDir()

	out, err := execute(context.Background(), "keys", "--home="+homeDir, "--mnemonic="+testMnemonic)
	require.NoError(t, err)
	require.Equal(t, "bitcoin: 1LqBGSKuX5yYUonjxT5qGfpUsXKYYWeabA (m/44'/0'/0'/0/0)\n"+
		"ethereum: 0x9858EfFD232B4033E47d90003D41EC34EcaEda94 (m/44'/60'/0'/0/0)\n", out)

	out, err = execute(context.Background(), "keys", "--home="+homeDir, "--mnemonic="+testMnemonic, "--account=1", "--kind=p2wpkh")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "bitcoin: bc1q"), lines[0])
	require.True(t, strings.HasSuffix(lines[0], "(m/44'/0'/1'/0/0)"), lines[0])
	require.True(t, strings.HasSuffix(lines[1], "(m/44'/60'/1'/0/0)"), lines[1])

	out, err = execute(context.Background(), "keys", "--home="+homeDir, "--mnemonic="+testMnemonic, "--kind=p2sh-p2wpkh", "--network=testnet3")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "bitcoin: 2"), out)
}

func TestKeys_NewMnemonic(t *testing.T) {
	out, err := execute(context.Background(), "keys", "--home="+t.TempDir())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)

	mnemonic, found := strings.CutPrefix(lines[0], "mnemonic: ")
	require.True(t, found, lines[0])
	require.True(t, bip39.IsMnemonicValid(mnemonic))
	require.Len(t, strings.Fields(mnemonic), 12)

	// the printed addresses belong to the generated mnemonic
	signer, path, err := newSigner(mnemonic, chainEthereum, 0, "", "")
	require.NoError(t, err)
	require.Equal(t, "ethereum: "+signer.Address()+" ("+path+")", lines[2])
}

func TestKeys_InvalidInput(t *testing.T) {
	homeDir := t.TempDir()

	_, err := execute(context.Background(), "keys", "--home="+homeDir, "--mnemonic=not a valid mnemonic")
	require.ErrorContains(t, err, "invalid mnemonic")

	_, err = execute(context.Background(), "keys", "--home="+homeDir, "--mnemonic="+testMnemonic, "--kind=p2tr")
	require.ErrorContains(t, err, "unsupported bitcoin address type p2tr")

	_, err = execute(context.Background(), "keys", "--home="+homeDir, "--mnemonic="+testMnemonic, "--network=litecoin")
	require.ErrorContains(t, err, `unknown bitcoin network "litecoin"`)

	_, err = execute(context.Background(), "keys", "--home="+homeDir, "--mnemonic="+testMnemonic, "--prompt")
	require.ErrorContains(t, err, `flags "mnemonic" and "prompt" are mutually exclusive`)
}

func Test_newSigner(t *testing.T) {
	signer, path, err := newSigner(testMnemonic, chainBitcoin, 0, "P2PKH", "mainnet")
	require.NoError(t, err)
	require.Equal(t, crypto.BitcoinDerivationPath(0), path)
	require.IsType(t, &crypto.BitcoinSigner{}, signer)

	signer, path, err = newSigner(testMnemonic, chainEthereum, 2, "ignored", "ignored")
	require.NoError(t, err)
	require.Equal(t, crypto.EthereumDerivationPath(2), path)
	require.IsType(t, &crypto.EthereumSigner{}, signer)

	signer, _, err = newSigner(testMnemonic, "solana", 0, "", "")
	require.EqualError(t, err, `unsupported chain "solana", expected bitcoin or ethereum`)
	require.Nil(t, signer)
}

func Test_parseAddressKind(t *testing.T) {
	var cases = []struct {
		in   string
		kind crypto.BitcoinAddressKind
	}{
		{"", crypto.P2PKH},
		{"p2pkh", crypto.P2PKH},
		{"P2SH-P2WPKH", crypto.P2SHP2WPKH},
		{"p2wpkh", crypto.P2WPKH},
	}
	for _, tc := range cases {
		kind, err := parseAddressKind(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.kind, kind, tc.in)
	}
	_, err := parseAddressKind("p2wsh")
	require.Error(t, err)
}

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alphabill-org/starregistry/crypto"
)

const (
	keyMnemonic = "mnemonic"
	keyPrompt   = "prompt"
	keyAccount  = "account"
	keyKind     = "kind"

	chainBitcoin  = "bitcoin"
	chainEthereum = "ethereum"
)

type keysConfiguration struct {
	Base *baseConfiguration

	Mnemonic string
	Prompt   bool
	Account  uint32
	Kind     string
	Network  string
}

func newKeysCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &keysConfiguration{Base: baseConfig}
	var cmd = &cobra.Command{
		Use:   "keys",
		Short: "Derives the Bitcoin and Ethereum addresses of a mnemonic, generates new mnemonic when none is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			return keysRunFun(cmd, config)
		},
	}
	addKeyFlags(cmd, &config.Mnemonic, &config.Prompt, &config.Account, &config.Kind, &config.Network)
	return cmd
}

func addKeyFlags(cmd *cobra.Command, mnemonic *string, prompt *bool, account *uint32, kind, network *string) {
	cmd.Flags().StringVar(mnemonic, keyMnemonic, "", "BIP-39 mnemonic of the wallet")
	cmd.Flags().BoolVar(prompt, keyPrompt, false, "read the mnemonic from the terminal")
	cmd.Flags().Uint32Var(account, keyAccount, 0, "account index of the derivation path")
	cmd.Flags().StringVar(kind, keyKind, "p2pkh", "bitcoin address type, one of: p2pkh, p2sh-p2wpkh, p2wpkh")
	cmd.Flags().StringVar(network, keyNetwork, "mainnet", "bitcoin network, one of: mainnet, testnet3, regtest, simnet")
}

func keysRunFun(cmd *cobra.Command, config *keysConfiguration) error {
	mnemonic, err := readMnemonic(cmd, config.Mnemonic, config.Prompt)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if mnemonic == "" {
		if mnemonic, err = crypto.NewMnemonic(); err != nil {
			return fmt.Errorf("generating mnemonic: %w", err)
		}
		fmt.Fprintf(out, "mnemonic: %s\n", mnemonic)
	}

	for _, chain := range []string{chainBitcoin, chainEthereum} {
		signer, path, err := newSigner(mnemonic, chain, config.Account, config.Kind, config.Network)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s (%s)\n", chain, signer.Address(), path)
	}
	return nil
}

/*
readMnemonic returns the mnemonic given by flag or, when prompt is set, reads
it from the terminal without echoing it.
*/
func readMnemonic(cmd *cobra.Command, mnemonic string, prompt bool) (string, error) {
	if !prompt {
		return mnemonic, nil
	}
	if mnemonic != "" {
		return "", fmt.Errorf("flags %q and %q are mutually exclusive", keyMnemonic, keyPrompt)
	}
	fmt.Fprint(cmd.OutOrStdout(), "Enter mnemonic: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("reading mnemonic: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return strings.Join(strings.Fields(string(b)), " "), nil
}

// newSigner derives the key of the account and returns signer for the chain and its derivation path.
func newSigner(mnemonic, chain string, account uint32, kind, network string) (crypto.MessageSigner, string, error) {
	switch chain {
	case chainBitcoin:
		k, err := parseAddressKind(kind)
		if err != nil {
			return nil, "", err
		}
		params, err := crypto.BitcoinParams(network)
		if err != nil {
			return nil, "", err
		}
		path := crypto.BitcoinDerivationPath(account)
		key, err := crypto.DeriveKey(mnemonic, path)
		if err != nil {
			return nil, "", fmt.Errorf("deriving bitcoin key: %w", err)
		}
		signer, err := crypto.NewBitcoinSigner(key, k, params)
		if err != nil {
			return nil, "", err
		}
		return signer, path, nil
	case chainEthereum:
		path := crypto.EthereumDerivationPath(account)
		key, err := crypto.DeriveKey(mnemonic, path)
		if err != nil {
			return nil, "", fmt.Errorf("deriving ethereum key: %w", err)
		}
		signer, err := crypto.NewEthereumSigner(key)
		if err != nil {
			return nil, "", err
		}
		return signer, path, nil
	default:
		return nil, "", fmt.Errorf("unsupported chain %q, expected %s or %s", chain, chainBitcoin, chainEthereum)
	}
}

func parseAddressKind(kind string) (crypto.BitcoinAddressKind, error) {
	switch strings.ToLower(kind) {
	case "", "p2pkh":
		return crypto.P2PKH, nil
	case "p2sh-p2wpkh":
		return crypto.P2SHP2WPKH, nil
	case "p2wpkh":
		return crypto.P2WPKH, nil
	default:
		return 0, errors.New("unsupported bitcoin address type " + kind)
	}
}

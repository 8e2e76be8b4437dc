package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	keyChain   = "chain"
	keyMessage = "message"
)

type signConfiguration struct {
	keysConfiguration

	Chain   string
	Message string
}

func newSignCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &signConfiguration{keysConfiguration: keysConfiguration{Base: baseConfig}}
	var cmd = &cobra.Command{
		Use:   "sign",
		Short: "Signs the ownership verification message with the key derived from mnemonic",
		RunE: func(cmd *cobra.Command, args []string) error {
			return signRunFun(cmd, config)
		},
	}
	addKeyFlags(cmd, &config.Mnemonic, &config.Prompt, &config.Account, &config.Kind, &config.Network)
	cmd.Flags().StringVar(&config.Chain, keyChain, chainBitcoin, "chain of the signing key, one of: bitcoin, ethereum")
	cmd.Flags().StringVar(&config.Message, keyMessage, "", "message to sign")
	if err := cmd.MarkFlagRequired(keyMessage); err != nil {
		panic(err)
	}
	return cmd
}

func signRunFun(cmd *cobra.Command, config *signConfiguration) error {
	mnemonic, err := readMnemonic(cmd, config.Mnemonic, config.Prompt)
	if err != nil {
		return err
	}
	if mnemonic == "" {
		return fmt.Errorf("mnemonic is required, use either --%s or --%s flag", keyMnemonic, keyPrompt)
	}
	signer, _, err := newSigner(mnemonic, config.Chain, config.Account, config.Kind, config.Network)
	if err != nil {
		return err
	}
	sig, err := signer.SignMessage(config.Message)
	if err != nil {
		return fmt.Errorf("signing message: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "address: %s\n", signer.Address())
	fmt.Fprintf(out, "signature: %s\n", sig)
	return nil
}

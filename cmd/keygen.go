package cmd

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/confseal/internal/ui"
	"github.com/PolarWolf314/confseal/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	keygenBits       int
	keygenForce      bool
	keygenPrivateKey string
	keygenPublicKey  string
)

func init() {
	keygenCmd.Flags().IntVar(&keygenBits, "bits", 0, "RSA modulus size (default protection.rsa_bits from the config)")
	keygenCmd.Flags().BoolVarP(&keygenForce, "force", "f", false, "overwrite an existing key pair")
	keygenCmd.Flags().StringVar(&keygenPrivateKey, "private-key", "", "where to write the private key (default keys.private_key)")
	keygenCmd.Flags().StringVar(&keygenPublicKey, "public-key", "", "where to write the public key (default keys.public_key)")
}

func resetKeygenCommandState() {
	keygenBits = 0
	keygenForce = false
	keygenPrivateKey = ""
	keygenPublicKey = ""
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an RSA key pair for protecting sections",
	Long: `Generates an RSA key pair. The public key protects sections and can be
shared; the private key unprotects them and is written with 0600 permissions.

Key locations default to keys.public_key and keys.private_key in the config.

Examples:
  confseal keygen
  confseal keygen --bits 4096
  confseal keygen --private-key ./deploy.pem --public-key ./deploy.pub --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keygen command")

		cfg, err := loadToolConfig()
		if err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}

		opts := workflows.KeygenOptions{
			PrivateKeyPath: cfg.Keys.PrivateKey,
			PublicKeyPath:  cfg.Keys.PublicKey,
			Bits:           cfg.Protection.RSABits,
			Force:          keygenForce,
			Audit:          newRecorder(cfg),
		}
		if keygenPrivateKey != "" {
			opts.PrivateKeyPath = keygenPrivateKey
		}
		if keygenPublicKey != "" {
			opts.PublicKeyPath = keygenPublicKey
		}
		if keygenBits != 0 {
			opts.Bits = keygenBits
		}
		Logger.Debugf("Generating %d-bit key pair: %s, %s", opts.Bits, opts.PrivateKeyPath, opts.PublicKeyPath)

		spinner, cleanup := startSpinner("Generating RSA key pair...", verbose)
		defer cleanup()

		result, err := workflows.Keygen(context.Background(), opts)
		if err != nil {
			spinner.FinalMSG = formatError(err)
			return reported(err)
		}

		msg := ui.Success.Sprint("✓") + fmt.Sprintf(" Generated a %d-bit RSA key pair\n", result.Bits)
		if result.Overwritten {
			msg += ui.Warning.Sprint("⚠") + " Replaced the existing key pair; sections protected with the old key need the old private key\n"
		}
		msg += ui.Info.Sprint("→") + " Private key: " + ui.Path.Sprint(result.PrivateKeyPath) + " " + ui.Muted.Sprint("keep secret") + "\n"
		msg += ui.Info.Sprint("→") + " Public key:  " + ui.Path.Sprint(result.PublicKeyPath)
		spinner.FinalMSG = msg
		return nil
	},
}

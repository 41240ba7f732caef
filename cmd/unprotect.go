package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/PolarWolf314/confseal/internal/keys"
	"github.com/PolarWolf314/confseal/internal/utils"
	"github.com/PolarWolf314/confseal/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	unprotectSections        []string
	unprotectPrivateKey      string
	unprotectPrivateKeyStdin bool
	unprotectDryRun          bool
)

func init() {
	unprotectCmd.Flags().StringSliceVarP(&unprotectSections, "section", "s", nil, "section to unprotect, repeatable (default every protected section)")
	unprotectCmd.Flags().StringVar(&unprotectPrivateKey, "private-key", "", "private key to unprotect with (default keys.private_key)")
	unprotectCmd.Flags().BoolVar(&unprotectPrivateKeyStdin, "private-key-stdin", false, "read the private key from stdin")
	unprotectCmd.Flags().BoolVar(&unprotectDryRun, "dry-run", false, "check that sections decrypt without writing files")
	unprotectCmd.MarkFlagsMutuallyExclusive("private-key", "private-key-stdin")
}

func resetUnprotectCommandState() {
	unprotectSections = nil
	unprotectPrivateKey = ""
	unprotectPrivateKeyStdin = false
	unprotectDryRun = false
}

var unprotectCmd = &cobra.Command{
	Use:   "unprotect <file|dir|glob>...",
	Short: "Decrypt protected configuration sections in place",
	Long: `Replaces each protected section with its decrypted content.

Without --section, every protected section is decrypted. Encrypted OpenSSH
keys prompt for a passphrase on the terminal. In CI, pipe the key in with
--private-key-stdin.

Examples:
  confseal unprotect web.config
  confseal unprotect . --section connectionStrings
  cat deploy.pem | confseal unprotect web.config --private-key-stdin
  confseal unprotect '**/*.config' --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting unprotect command")

		cfg, err := loadToolConfig()
		if err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}

		baseDir, err := os.Getwd()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to get working directory: %w", err)
		}

		opts := workflows.UnprotectOptions{
			FilePatterns: args,
			BaseDir:      baseDir,
			Sections:     unprotectSections,
			Indent:       cfg.Output.Indent,
			DryRun:       unprotectDryRun,
			Audit:        newRecorder(cfg),
		}

		if unprotectPrivateKeyStdin {
			Logger.Debugf("Reading private key from stdin")
			data, err := utils.ReadStdin()
			if err != nil {
				return Logger.ErrorfAndReturn("failed to read private key from stdin: %w", err)
			}
			opts.PrivateKeyData = []byte(data)
			opts.Passphrase = passphrasePrompt("private key from stdin")
		} else {
			opts.PrivateKeyPath = cfg.Keys.PrivateKey
			if unprotectPrivateKey != "" {
				opts.PrivateKeyPath = unprotectPrivateKey
			}
			opts.Passphrase = passphrasePrompt(opts.PrivateKeyPath)
			if mode, ok := keys.CheckPrivateKeyPermissions(opts.PrivateKeyPath); !ok {
				Logger.WarnfAlways("Private key %s is readable by other users (%04o)", opts.PrivateKeyPath, mode)
			}
		}

		spinner, cleanup := startSpinner("Unprotecting sections...", verbose)
		defer cleanup()

		result, err := workflows.Unprotect(context.Background(), opts)
		if err != nil {
			spinner.FinalMSG = formatError(err)
			return reported(err)
		}
		Logger.Infof("Processed files:%s", utils.FormatPaths(resultPaths(result.Files), baseDir))

		spinner.FinalMSG = formatFileResults(result.Files, baseDir, result.DryRun, "unprotected", "already plaintext")
		return nil
	},
}

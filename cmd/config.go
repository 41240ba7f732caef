package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/PolarWolf314/confseal/internal/configs"
	kerrors "github.com/PolarWolf314/confseal/internal/errors"
	"github.com/PolarWolf314/confseal/internal/ui"
	"github.com/spf13/cobra"
)

var (
	configInitForce      bool
	configInitPublicKey  string
	configInitPrivateKey string
	configInitAlgorithm  string
	configInitBits       int
	configInitIndent     int
	configInitAuditLog   string
	configInitNoAudit    bool
	configShowJSON       bool
)

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing config file")
	configInitCmd.Flags().StringVar(&configInitPublicKey, "public-key", "", "default public key path")
	configInitCmd.Flags().StringVar(&configInitPrivateKey, "private-key", "", "default private key path")
	configInitCmd.Flags().StringVarP(&configInitAlgorithm, "algorithm", "a", "", "default payload cipher, e.g. aes256")
	configInitCmd.Flags().IntVar(&configInitBits, "rsa-bits", 0, "RSA modulus size for keygen")
	configInitCmd.Flags().IntVar(&configInitIndent, "indent", -1, "spaces per level when rewriting config files (0 disables indentation)")
	configInitCmd.Flags().StringVar(&configInitAuditLog, "audit-log", "", "audit log path")
	configInitCmd.Flags().BoolVar(&configInitNoAudit, "no-audit", false, "disable the audit log")
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func resetConfigCommandState() {
	configInitForce = false
	configInitPublicKey = ""
	configInitPrivateKey = ""
	configInitAlgorithm = ""
	configInitBits = 0
	configInitIndent = -1
	configInitAuditLog = ""
	configInitNoAudit = false
	configShowJSON = false
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage confseal configuration",
	Long: `Provides commands for managing confseal's own settings: default key paths,
payload cipher, output indentation and the audit log.

The config file is TOML, located at $` + configs.EnvConfigPath + ` or in the user config
directory, and can be overridden with --config.

Examples:
  confseal config init
  confseal config init --algorithm aes256 --rsa-bits 3072 --force
  confseal config show --json`,
}

// resolvedConfigPath returns --config or the default location.
func resolvedConfigPath() (string, error) {
	if configPath != "" {
		return configs.ExpandHome(configPath), nil
	}
	return configs.Path()
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config init command")

		path, err := resolvedConfigPath()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to locate config: %w", err)
		}
		Logger.Debugf("Config path: %s", path)

		if _, err := os.Stat(path); err == nil && !configInitForce {
			fmt.Println(ui.Error.Sprint("✗") + " Config file already exists at " + ui.Path.Sprint(path))
			fmt.Println(ui.Info.Sprint("→") + " Pass " + ui.Flag.Sprint("--force") + " to overwrite it")
			return reported(fmt.Errorf("config file already exists: %s", path))
		}

		cfg := configs.Default()
		if configInitPublicKey != "" {
			cfg.Keys.PublicKey = configInitPublicKey
		}
		if configInitPrivateKey != "" {
			cfg.Keys.PrivateKey = configInitPrivateKey
		}
		if configInitAlgorithm != "" {
			id, err := resolveAlgorithm(configInitAlgorithm)
			if err != nil {
				fmt.Println(formatError(err))
				return reported(err)
			}
			cfg.Protection.PayloadAlgorithm = id
		}
		if configInitBits != 0 {
			cfg.Protection.RSABits = configInitBits
		}
		if configInitIndent >= 0 {
			cfg.Output.Indent = configInitIndent
		}
		if configInitAuditLog != "" {
			cfg.Audit.LogPath = configInitAuditLog
		}
		cfg.Audit.Disabled = configInitNoAudit

		if err := cfg.Validate(); err != nil {
			err = fmt.Errorf("%w: %v", kerrors.ErrInvalidToolConfig, err)
			fmt.Println(ui.Error.Sprint("✗") + " " + err.Error())
			return reported(err)
		}

		if err := configs.Save(path, cfg); err != nil {
			return Logger.ErrorfAndReturn("failed to write config: %w", err)
		}

		fmt.Println(ui.Success.Sprint("✓") + " Wrote " + ui.Path.Sprint(path))
		fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("confseal keygen") + " to create the key pair it points at")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config show command")

		cfg, err := loadToolConfig()
		if err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}

		if configShowJSON {
			return outputJSON(cfg)
		}

		path, err := resolvedConfigPath()
		if err == nil {
			if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
				fmt.Println("# no config file at " + path + ", showing defaults")
			} else {
				fmt.Println("# " + path)
			}
		}
		if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
			return Logger.ErrorfAndReturn("failed to encode config: %w", err)
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolvedConfigPath()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to locate config: %w", err)
		}
		fmt.Println(path)
		return nil
	},
}

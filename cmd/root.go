package cmd

import (
	"fmt"

	"github.com/PolarWolf314/confseal/internal/configs"
	logger "github.com/PolarWolf314/confseal/internal/logging"
	"github.com/PolarWolf314/confseal/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose    bool
	debug      bool
	configPath string
	Logger     logger.Logger

	// RootCmd is the confseal entry point.
	RootCmd = &cobra.Command{
		Use:   "confseal",
		Short: "Confseal - protect sections of .NET app.config and web.config files.",
		Long: `Confseal encrypts configuration sections in place using the RSA protected
configuration envelope understood by the .NET configuration system.

Usage:
  confseal <command> [flags]

Common workflow:
  confseal keygen                      # create an RSA key pair
  confseal protect web.config          # encrypt appSettings and connectionStrings
  confseal status                      # show which sections are protected
  confseal unprotect web.config        # decrypt them again

Run 'confseal help <command>' for more details on a specific command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing %s with verbose=%t, debug=%t, config=%q", cmd.CommandPath(), verbose, debug, configPath)
		},
		Run: func(cmd *cobra.Command, args []string) {
			ui.PrintBanner(cmd.OutOrStdout(), "confseal")
			fmt.Fprintln(cmd.OutOrStdout(), "Run "+ui.Code.Sprint("confseal --help")+" to see available commands.")
		},
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the confseal config file (default $"+configs.EnvConfigPath+" or the user config dir)")

	RootCmd.AddCommand(keygenCmd)
	RootCmd.AddCommand(protectCmd)
	RootCmd.AddCommand(unprotectCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(settingsCmd)
	RootCmd.AddCommand(connectionsCmd)
	RootCmd.AddCommand(algorithmsCmd)
	RootCmd.AddCommand(logCmd)
	RootCmd.AddCommand(doctorCmd)
	RootCmd.AddCommand(configCmd)
}

// GetRootCmd returns the RootCmd for testing.
func GetRootCmd() *cobra.Command {
	return RootCmd
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	configPath = ""
	Logger = logger.Logger{}
	resetKeygenCommandState()
	resetProtectCommandState()
	resetUnprotectCommandState()
	resetStatusCommandState()
	resetSettingsCommandState()
	resetConnectionsCommandState()
	resetAlgorithmsCommandState()
	resetLogCommandState()
	resetDoctorCommandState()
	resetConfigCommandState()
	resetCobraFlagState(RootCmd)
}

// resetCobraFlagState clears the Changed marker on every flag to prevent test pollution.
func resetCobraFlagState(cmd *cobra.Command) {
	reset := func(flag *pflag.Flag) {
		flag.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetCobraFlagState(sub)
	}
}

// SetVerbose sets the verbose flag for testing.
func SetVerbose(v bool) {
	verbose = v
}

// SetDebug sets the debug flag for testing.
func SetDebug(d bool) {
	debug = d
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}

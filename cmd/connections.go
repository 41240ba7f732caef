package cmd

import (
	"fmt"

	"github.com/PolarWolf314/confseal/internal/appconfig"
	"github.com/PolarWolf314/confseal/internal/ui"
	"github.com/PolarWolf314/confseal/internal/utils"
	"github.com/spf13/cobra"
)

var (
	connectionsProvider string
	connectionsComment  string
	connectionsStdin    bool
	connectionsJSON     bool
)

func init() {
	connectionsSetCmd.Flags().StringVar(&connectionsProvider, "provider", "", "providerName attribute, e.g. System.Data.SqlClient")
	connectionsSetCmd.Flags().StringVar(&connectionsComment, "comment", "", "comment to place above the entry")
	connectionsSetCmd.Flags().BoolVar(&connectionsStdin, "stdin", false, "read the connection string from stdin")
	connectionsListCmd.Flags().BoolVar(&connectionsJSON, "json", false, "output in JSON format")

	connectionsCmd.AddCommand(connectionsGetCmd)
	connectionsCmd.AddCommand(connectionsSetCmd)
	connectionsCmd.AddCommand(connectionsRemoveCmd)
	connectionsCmd.AddCommand(connectionsListCmd)
}

func resetConnectionsCommandState() {
	connectionsProvider = ""
	connectionsComment = ""
	connectionsStdin = false
	connectionsJSON = false
}

var connectionsCmd = &cobra.Command{
	Use:     "connections",
	Aliases: []string{"conn"},
	Short:   "Read and edit <connectionStrings> entries",
	Long: `Reads and edits the named entries of a config file's connectionStrings section.

The section must be unprotected. Run 'confseal unprotect' first if needed.`,
}

var connectionsGetCmd = &cobra.Command{
	Use:   "get <file> <name>",
	Short: "Print a connection string",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, name := args[0], args[1]
		Logger.Infof("Reading connection string %q from %s", name, path)

		doc, err := loadDocumentForEdit(path)
		if err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}
		cs, err := doc.ConnectionStrings().Get(name)
		if err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}
		Logger.Debugf("Provider: %q", cs.ProviderName)

		fmt.Println(cs.ConnectionString)
		return nil
	},
}

var connectionsSetCmd = &cobra.Command{
	Use:   "set <file> <name> [connection-string]",
	Short: "Add or update a connection string",
	Long: `Adds or updates a named connection string, creating the section if needed.

Pass --stdin to read the connection string from a pipe so passwords never
appear in shell history.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, name := args[0], args[1]
		Logger.Infof("Setting connection string %q in %s", name, path)

		var value string
		switch {
		case connectionsStdin && len(args) == 3:
			return Logger.ErrorfAndReturn("pass the connection string as an argument or with --stdin, not both")
		case connectionsStdin:
			v, err := utils.ReadStdin()
			if err != nil {
				return Logger.ErrorfAndReturn("failed to read connection string: %w", err)
			}
			value = v
		case len(args) == 3:
			value = args[2]
		default:
			return Logger.ErrorfAndReturn("missing connection string for %q (pass it as an argument or with --stdin)", name)
		}

		doc, err := loadDocumentForEdit(path)
		if err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}
		conns := doc.ConnectionStrings()

		entry := appconfig.ConnectionString{Name: name, ConnectionString: value, ProviderName: connectionsProvider}
		if !cmd.Flags().Changed("provider") {
			// Keep the provider of an existing entry.
			if existing, err := conns.Get(name); err == nil {
				entry.ProviderName = existing.ProviderName
			}
		}
		if err := conns.Set(entry); err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}
		if cmd.Flags().Changed("comment") {
			if err := conns.SetComment(name, connectionsComment); err != nil {
				fmt.Println(formatError(err))
				return reported(err)
			}
		}
		if err := doc.Save(path); err != nil {
			return Logger.ErrorfAndReturn("failed to save %s: %w", path, err)
		}

		fmt.Println(ui.Success.Sprint("✓") + " Set connection string " + ui.Highlight.Sprint(name) + " in " + ui.Path.Sprint(path))
		return nil
	},
}

var connectionsRemoveCmd = &cobra.Command{
	Use:   "remove <file> <name>",
	Short: "Remove a connection string",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, name := args[0], args[1]
		Logger.Infof("Removing connection string %q from %s", name, path)

		doc, err := loadDocumentForEdit(path)
		if err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}
		if err := doc.ConnectionStrings().Remove(name); err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}
		if err := doc.Save(path); err != nil {
			return Logger.ErrorfAndReturn("failed to save %s: %w", path, err)
		}

		fmt.Println(ui.Success.Sprint("✓") + " Removed connection string " + ui.Highlight.Sprint(name) + " from " + ui.Path.Sprint(path))
		return nil
	},
}

// ConnectionInfo is the JSON form of one connection string.
type ConnectionInfo struct {
	Name             string `json:"name"`
	ConnectionString string `json:"connection_string"`
	ProviderName     string `json:"provider_name,omitempty"`
	Comment          string `json:"comment,omitempty"`
}

var connectionsListCmd = &cobra.Command{
	Use:   "list <file>",
	Short: "List connection strings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		Logger.Infof("Listing connection strings in %s", path)

		doc, err := loadDocumentForEdit(path)
		if err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}
		conns := doc.ConnectionStrings()
		names, err := conns.Names()
		if err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}

		entries := make([]ConnectionInfo, 0, len(names))
		for _, name := range names {
			cs, _ := conns.Get(name)
			comment, _ := conns.Comment(name)
			entries = append(entries, ConnectionInfo{
				Name:             name,
				ConnectionString: cs.ConnectionString,
				ProviderName:     cs.ProviderName,
				Comment:          comment,
			})
		}

		if connectionsJSON {
			return outputJSON(entries)
		}
		if len(entries) == 0 {
			fmt.Println("No connection strings found.")
			return nil
		}
		for _, e := range entries {
			if e.Comment != "" {
				fmt.Println(ui.Muted.Sprint("# " + e.Comment))
			}
			line := e.Name + " = " + e.ConnectionString
			if e.ProviderName != "" {
				line += " " + ui.Muted.Sprint(e.ProviderName)
			}
			fmt.Println(line)
		}
		return nil
	},
}

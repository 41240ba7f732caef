package cmd

import (
	"fmt"
	"strings"

	"github.com/PolarWolf314/confseal/internal/appconfig"
	"github.com/PolarWolf314/confseal/internal/ui"
	"github.com/PolarWolf314/confseal/internal/utils"
	"github.com/spf13/cobra"
)

var (
	settingsAs      string
	settingsComment string
	settingsStdin   bool
	settingsJSON    bool
)

func init() {
	settingsGetCmd.Flags().StringVar(&settingsAs, "as", "", "check the value converts to int, bool, float or duration")
	settingsSetCmd.Flags().StringVar(&settingsComment, "comment", "", "comment to place above the entry")
	settingsSetCmd.Flags().BoolVar(&settingsStdin, "stdin", false, "read the value from stdin")
	settingsListCmd.Flags().BoolVar(&settingsJSON, "json", false, "output in JSON format")

	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsRemoveCmd)
	settingsCmd.AddCommand(settingsListCmd)
}

func resetSettingsCommandState() {
	settingsAs = ""
	settingsComment = ""
	settingsStdin = false
	settingsJSON = false
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and edit <appSettings> entries",
	Long: `Reads and edits the key/value entries of a config file's appSettings section.

The section must be unprotected. Run 'confseal unprotect' first if needed.`,
}

// loadDocumentForEdit loads path with the configured output indent.
func loadDocumentForEdit(path string) (*appconfig.Document, error) {
	cfg, err := loadToolConfig()
	if err != nil {
		return nil, err
	}
	doc, err := appconfig.Load(path)
	if err != nil {
		return nil, err
	}
	doc.Indent = cfg.Output.Indent
	return doc, nil
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <file> <key>",
	Short: "Print the value of an appSettings entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, key := args[0], args[1]
		Logger.Infof("Reading appSettings key %q from %s", key, path)

		doc, err := loadDocumentForEdit(path)
		if err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}
		settings := doc.AppSettings()

		var value any
		switch strings.ToLower(settingsAs) {
		case "":
			value, err = settings.Get(key)
		case "int":
			value, err = settings.Int(key)
		case "bool":
			value, err = settings.Bool(key)
		case "float":
			value, err = settings.Float64(key)
		case "duration":
			value, err = settings.Duration(key)
		default:
			return Logger.ErrorfAndReturn("unknown --as type %q (want int, bool, float or duration)", settingsAs)
		}
		if err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}

		fmt.Println(value)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <file> <key> [value]",
	Short: "Add or update an appSettings entry",
	Long: `Adds or updates an appSettings entry, creating the section if needed.

Pass --stdin to read the value from a pipe so it never appears in shell history.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, key := args[0], args[1]
		Logger.Infof("Setting appSettings key %q in %s", key, path)

		var value string
		switch {
		case settingsStdin && len(args) == 3:
			return Logger.ErrorfAndReturn("pass the value as an argument or with --stdin, not both")
		case settingsStdin:
			v, err := utils.ReadStdin()
			if err != nil {
				return Logger.ErrorfAndReturn("failed to read value: %w", err)
			}
			value = v
		case len(args) == 3:
			value = args[2]
		default:
			return Logger.ErrorfAndReturn("missing value for %q (pass it as an argument or with --stdin)", key)
		}

		doc, err := loadDocumentForEdit(path)
		if err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}
		settings := doc.AppSettings()
		if err := settings.Set(key, value); err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}
		if cmd.Flags().Changed("comment") {
			if err := settings.SetComment(key, settingsComment); err != nil {
				fmt.Println(formatError(err))
				return reported(err)
			}
		}
		if err := doc.Save(path); err != nil {
			return Logger.ErrorfAndReturn("failed to save %s: %w", path, err)
		}

		fmt.Println(ui.Success.Sprint("✓") + " Set " + ui.Highlight.Sprint(key) + " in " + ui.Path.Sprint(path))
		return nil
	},
}

var settingsRemoveCmd = &cobra.Command{
	Use:   "remove <file> <key>",
	Short: "Remove an appSettings entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, key := args[0], args[1]
		Logger.Infof("Removing appSettings key %q from %s", key, path)

		doc, err := loadDocumentForEdit(path)
		if err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}
		if err := doc.AppSettings().Remove(key); err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}
		if err := doc.Save(path); err != nil {
			return Logger.ErrorfAndReturn("failed to save %s: %w", path, err)
		}

		fmt.Println(ui.Success.Sprint("✓") + " Removed " + ui.Highlight.Sprint(key) + " from " + ui.Path.Sprint(path))
		return nil
	},
}

// SettingInfo is the JSON form of one appSettings entry.
type SettingInfo struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Comment string `json:"comment,omitempty"`
}

var settingsListCmd = &cobra.Command{
	Use:   "list <file>",
	Short: "List appSettings entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		Logger.Infof("Listing appSettings in %s", path)

		doc, err := loadDocumentForEdit(path)
		if err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}
		settings := doc.AppSettings()
		keys, err := settings.Keys()
		if err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}

		entries := make([]SettingInfo, 0, len(keys))
		for _, key := range keys {
			value, _ := settings.Get(key)
			comment, _ := settings.Comment(key)
			entries = append(entries, SettingInfo{Key: key, Value: value, Comment: comment})
		}

		if settingsJSON {
			return outputJSON(entries)
		}
		if len(entries) == 0 {
			fmt.Println("No appSettings entries found.")
			return nil
		}
		for _, e := range entries {
			if e.Comment != "" {
				fmt.Println(ui.Muted.Sprint("# " + e.Comment))
			}
			fmt.Printf("%s = %s\n", e.Key, e.Value)
		}
		return nil
	},
}

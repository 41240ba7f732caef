package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/PolarWolf314/confseal/internal/ui"
	"github.com/PolarWolf314/confseal/internal/utils"
	"github.com/PolarWolf314/confseal/internal/workflows"
	"github.com/spf13/cobra"
)

var statusJSONOutput bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSONOutput, "json", false, "output in JSON format")
}

func resetStatusCommandState() {
	statusJSONOutput = false
}

// SectionStatusInfo is the JSON form of one section.
type SectionStatusInfo struct {
	Name      string `json:"name"`
	Protected bool   `json:"protected"`
	KeyWrap   string `json:"key_wrap,omitempty"`
	Payload   string `json:"payload,omitempty"`
}

// FileStatusInfo is the JSON form of one config file.
type FileStatusInfo struct {
	Path     string              `json:"path"`
	Sections []SectionStatusInfo `json:"sections"`
	Error    string              `json:"error,omitempty"`
}

// StatusSummary holds section counts by state.
type StatusSummary struct {
	Protected  int `json:"protected"`
	Plaintext  int `json:"plaintext"`
	Unreadable int `json:"unreadable"`
}

// StatusOutput is the JSON document printed by status --json.
type StatusOutput struct {
	Files   []FileStatusInfo `json:"files"`
	Summary StatusSummary    `json:"summary"`
}

var statusCmd = &cobra.Command{
	Use:   "status [file|dir|glob]...",
	Short: "Show which configuration sections are protected",
	Long: `Lists every top-level section of each config file and whether it is
protected. Nested protected sections are listed with their group path.
Without arguments, every *.config file below the current directory is shown.

Use --json for machine-readable output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting status command")

		baseDir, err := os.Getwd()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to get working directory: %w", err)
		}

		result, err := workflows.Status(context.Background(), workflows.StatusOptions{
			FilePatterns: args,
			BaseDir:      baseDir,
		})
		if err != nil {
			if statusJSONOutput {
				_ = outputJSON(map[string]string{"error": err.Error()})
				return reported(err)
			}
			fmt.Println(formatError(err))
			return reported(err)
		}
		Logger.Debugf("Found %d config files", len(result.Files))

		output := buildStatusOutput(result)
		if statusJSONOutput {
			return outputJSON(output)
		}

		printStatusTable(output)
		return nil
	},
}

func buildStatusOutput(result *workflows.StatusResult) StatusOutput {
	output := StatusOutput{
		Files: make([]FileStatusInfo, 0, len(result.Files)),
		Summary: StatusSummary{
			Protected:  result.Summary.Protected,
			Plaintext:  result.Summary.Plaintext,
			Unreadable: result.Summary.Unreadable,
		},
	}
	for _, file := range result.Files {
		info := FileStatusInfo{
			Path:     utils.RelativePath(file.Path, result.BaseDir),
			Sections: make([]SectionStatusInfo, 0, len(file.Sections)),
		}
		if file.Err != nil {
			info.Error = file.Err.Error()
		}
		for _, s := range file.Sections {
			info.Sections = append(info.Sections, SectionStatusInfo{
				Name:      s.Name,
				Protected: s.Protected,
				KeyWrap:   s.KeyWrap,
				Payload:   s.Payload,
			})
		}
		output.Files = append(output.Files, info)
	}
	return output
}

func printStatusTable(output StatusOutput) {
	width := len("SECTION")
	for _, file := range output.Files {
		for _, s := range file.Sections {
			if len(s.Name) > width {
				width = len(s.Name)
			}
		}
	}

	for i, file := range output.Files {
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(ui.Path.Sprint(file.Path))
		if file.Error != "" {
			fmt.Println("  " + ui.Error.Sprint("✗") + " " + file.Error)
			continue
		}
		if len(file.Sections) == 0 {
			fmt.Println("  " + ui.Muted.Sprint("no sections"))
			continue
		}
		for _, s := range file.Sections {
			line := fmt.Sprintf("  %-*s  %s", width, s.Name, ui.SectionState(s.Protected))
			if s.Protected {
				line += "  " + ui.Muted.Sprint(algorithmName(s.Payload))
			}
			fmt.Println(line)
		}
	}

	fmt.Println()
	fmt.Printf("Summary: %d protected, %d plaintext", output.Summary.Protected, output.Summary.Plaintext)
	if output.Summary.Unreadable > 0 {
		fmt.Printf(", %d unreadable file(s)", output.Summary.Unreadable)
	}
	fmt.Println()

	if output.Summary.Plaintext > 0 {
		fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("confseal protect <file>") + " to protect sensitive sections")
	}
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PolarWolf314/confseal/internal/ui"
	"github.com/PolarWolf314/confseal/internal/utils"
	"github.com/PolarWolf314/confseal/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	protectSections  []string
	protectAlgorithm string
	protectPublicKey string
	protectDryRun    bool
)

func init() {
	protectCmd.Flags().StringSliceVarP(&protectSections, "section", "s", nil, "section to protect, repeatable; nested sections use group/name (default appSettings and connectionStrings)")
	protectCmd.Flags().StringVarP(&protectAlgorithm, "algorithm", "a", "", "payload cipher, e.g. aes256 or tripledes (default protection.payload_algorithm)")
	protectCmd.Flags().StringVar(&protectPublicKey, "public-key", "", "public key to protect with (default keys.public_key)")
	protectCmd.Flags().BoolVar(&protectDryRun, "dry-run", false, "show what would be protected without writing files")
}

func resetProtectCommandState() {
	protectSections = nil
	protectAlgorithm = ""
	protectPublicKey = ""
	protectDryRun = false
}

var protectCmd = &cobra.Command{
	Use:   "protect <file|dir|glob>...",
	Short: "Encrypt configuration sections in place",
	Long: `Replaces each selected section with an RSA protected configuration envelope.

Without --section, appSettings and connectionStrings are protected wherever
they exist. Sections that are already protected are skipped. Files are only
written once every section in every file has been encrypted.

Examples:
  confseal protect web.config
  confseal protect . --section appSettings --section system.net/mailSettings
  confseal protect '**/*.config' --algorithm aes256
  confseal protect web.config --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting protect command")

		cfg, err := loadToolConfig()
		if err != nil {
			fmt.Println(formatError(err))
			return reported(err)
		}

		algorithm := cfg.Protection.PayloadAlgorithm
		if protectAlgorithm != "" {
			algorithm, err = resolveAlgorithm(protectAlgorithm)
			if err != nil {
				fmt.Println(formatError(err))
				return reported(err)
			}
		}
		publicKey := cfg.Keys.PublicKey
		if protectPublicKey != "" {
			publicKey = protectPublicKey
		}

		baseDir, err := os.Getwd()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to get working directory: %w", err)
		}

		opts := workflows.ProtectOptions{
			FilePatterns:     args,
			BaseDir:          baseDir,
			Sections:         protectSections,
			PublicKeyPath:    publicKey,
			PayloadAlgorithm: algorithm,
			Indent:           cfg.Output.Indent,
			DryRun:           protectDryRun,
			Audit:            newRecorder(cfg),
		}
		Logger.Debugf("Protect options: patterns=%v sections=%v algorithm=%s key=%s", args, protectSections, algorithm, publicKey)

		spinner, cleanup := startSpinner("Protecting sections...", verbose)
		defer cleanup()

		result, err := workflows.Protect(context.Background(), opts)
		if err != nil {
			spinner.FinalMSG = formatError(err)
			return reported(err)
		}
		Logger.Infof("Processed files:%s", utils.FormatPaths(resultPaths(result.Files), baseDir))

		spinner.FinalMSG = formatFileResults(result.Files, baseDir, result.DryRun, "protected", "already protected") +
			ui.Info.Sprint("→") + " Cipher: " + ui.Highlight.Sprint(algorithmName(result.Algorithm))
		return nil
	},
}

// formatFileResults renders one line per file for protect and unprotect.
func formatFileResults(files []workflows.FileResult, baseDir string, dryRun bool, done, skipped string) string {
	var b strings.Builder
	if dryRun {
		b.WriteString(ui.Warning.Sprint("[dry-run]") + " No files were modified\n")
	}

	changed := 0
	for _, file := range files {
		rel := utils.RelativePath(file.Path, baseDir)
		if len(file.Sections) == 0 {
			line := ui.Muted.Sprint("-") + " " + ui.Path.Sprint(rel) + ": nothing to do"
			if len(file.Skipped) > 0 {
				line += " " + ui.Muted.Sprint(skipped+": "+strings.Join(file.Skipped, ", "))
			}
			b.WriteString(line + "\n")
			continue
		}
		changed++
		line := ui.Success.Sprint("✓") + " " + ui.Path.Sprint(rel) + ": " + formatSectionList(file.Sections)
		if len(file.Skipped) > 0 {
			line += " " + ui.Muted.Sprint(skipped+": "+strings.Join(file.Skipped, ", "))
		}
		b.WriteString(line + "\n")
	}

	verb := done
	if dryRun {
		verb = "would be " + done
	}
	b.WriteString(fmt.Sprintf("%s %d of %d file(s) %s\n", ui.Info.Sprint("→"), changed, len(files), verb))
	return b.String()
}

func resultPaths(files []workflows.FileResult) []string {
	paths := make([]string, len(files))
	for i, file := range files {
		paths[i] = file.Path
	}
	return paths
}

func formatSectionList(names []string) string {
	formatted := make([]string, len(names))
	for i, name := range names {
		formatted[i] = ui.Section.Sprint(name)
	}
	return strings.Join(formatted, ", ")
}

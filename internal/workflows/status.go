package workflows

import (
	"context"
	"os"

	"github.com/PolarWolf314/confseal/internal/appconfig"
	"github.com/PolarWolf314/confseal/internal/utils"
)

// SectionStatus describes one top level section of a file.
type SectionStatus struct {
	Name      string
	Protected bool

	// KeyWrap and Payload are the algorithm identifiers recorded in a
	// protected section's envelope.
	KeyWrap string
	Payload string
}

// FileStatus holds the sections of one configuration file.
type FileStatus struct {
	Path     string
	Sections []SectionStatus

	// Err is set when the file could not be read as a configuration
	// document. Other files are still reported.
	Err error
}

// StatusSummary holds counts across all files.
type StatusSummary struct {
	Protected  int
	Plaintext  int
	Unreadable int
}

// StatusOptions configures the status workflow.
type StatusOptions struct {
	// FilePatterns are paths, directories or globs. If empty, the base
	// directory is scanned.
	FilePatterns []string

	// BaseDir resolves relative patterns. Defaults to the working directory.
	BaseDir string
}

// StatusResult contains the outcome of a status operation.
type StatusResult struct {
	BaseDir string
	Files   []FileStatus
	Summary StatusSummary
}

// Status reports the protection state of every section in the matched
// files. Nested protected sections are listed by their "group/name" path.
func Status(ctx context.Context, opts StatusOptions) (*StatusResult, error) {
	baseDir := opts.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		baseDir = wd
	}

	patterns := opts.FilePatterns
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	paths, err := utils.ResolveConfigFiles(patterns, baseDir)
	if err != nil {
		return nil, err
	}

	result := &StatusResult{BaseDir: baseDir}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fs := FileStatus{Path: path}
		doc, err := appconfig.Load(path)
		if err != nil {
			fs.Err = err
			result.Summary.Unreadable++
			result.Files = append(result.Files, fs)
			continue
		}

		protected := make(map[string]bool)
		for _, name := range doc.ProtectedSections() {
			protected[name] = true
			st := SectionStatus{Name: name, Protected: true}
			st.KeyWrap, st.Payload, _ = doc.EnvelopeAlgorithms(name)
			fs.Sections = append(fs.Sections, st)
			result.Summary.Protected++
		}
		for _, name := range doc.SectionNames() {
			if protected[name] {
				continue
			}
			fs.Sections = append(fs.Sections, SectionStatus{Name: name})
			result.Summary.Plaintext++
		}

		result.Files = append(result.Files, fs)
	}

	return result, nil
}

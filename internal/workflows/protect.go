package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/confseal/internal/appconfig"
	"github.com/PolarWolf314/confseal/internal/audit"
	kerrors "github.com/PolarWolf314/confseal/internal/errors"
	"github.com/PolarWolf314/confseal/internal/keys"
	"github.com/PolarWolf314/confseal/internal/protection"
)

// DefaultSections are protected when no sections are named.
var DefaultSections = []string{appconfig.AppSettingsSection, appconfig.ConnectionStringsSection}

// ProtectOptions configures the protect workflow.
type ProtectOptions struct {
	// FilePatterns are paths, directories or globs of configuration files.
	FilePatterns []string

	// BaseDir resolves relative patterns. Defaults to the working directory.
	BaseDir string

	// Sections to protect. If empty, DefaultSections present in each file
	// are protected.
	Sections []string

	// PublicKeyPath is the RSA public key (or private key file) to wrap with.
	PublicKeyPath string

	// PayloadAlgorithm is the xmlenc identifier of the payload cipher. If
	// empty, protection.DefaultPayloadAlgorithm is used.
	PayloadAlgorithm string

	// Indent is the number of spaces per level when files are rewritten.
	Indent int

	// DryRun reports what would change without writing files.
	DryRun bool

	// Audit receives one entry per changed file. May be nil.
	Audit *audit.Recorder
}

// ProtectResult contains the outcome of a protect operation.
type ProtectResult struct {
	Files     []FileResult
	Algorithm string
	DryRun    bool
}

// Protect encrypts sections of configuration files with a public key.
//
// Sections that are already protected are skipped. A named section missing
// from a file fails the whole run with ErrSectionNotFound and nothing is
// written.
func Protect(ctx context.Context, opts ProtectOptions) (*ProtectResult, error) {
	algorithm := opts.PayloadAlgorithm
	if algorithm == "" {
		algorithm = protection.DefaultPayloadAlgorithm
	}
	if _, err := protection.LookupPayloadCipher(algorithm); err != nil {
		return nil, err
	}

	if opts.PublicKeyPath == "" {
		return nil, fmt.Errorf("%w: no public key configured", kerrors.ErrKeyNotFound)
	}
	pub, err := keys.LoadPublicKey(opts.PublicKeyPath)
	if err != nil {
		return nil, err
	}
	key := protection.NewRSAPublicKey(pub)

	results, err := transformFiles(ctx, opts.FilePatterns, opts.BaseDir, opts.Indent, opts.DryRun, func(doc *appconfig.Document) (FileResult, error) {
		var res FileResult
		for _, name := range sectionsToProtect(doc, opts.Sections) {
			if doc.IsProtected(name) {
				res.Skipped = append(res.Skipped, name)
				continue
			}
			if err := doc.Protect(name, key, algorithm); err != nil {
				return FileResult{}, err
			}
			res.Sections = append(res.Sections, name)
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}

	if !opts.DryRun {
		recordFiles(opts.Audit, "protect", algorithm, results)
	}

	return &ProtectResult{Files: results, Algorithm: algorithm, DryRun: opts.DryRun}, nil
}

func sectionsToProtect(doc *appconfig.Document, requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	var present []string
	for _, name := range DefaultSections {
		if _, err := doc.Section(name); err == nil {
			present = append(present, name)
		}
	}
	return present
}

package workflows

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/PolarWolf314/confseal/internal/appconfig"
	"github.com/PolarWolf314/confseal/internal/audit"
	kerrors "github.com/PolarWolf314/confseal/internal/errors"
	"github.com/PolarWolf314/confseal/internal/keys"
	"github.com/PolarWolf314/confseal/internal/protection"
)

// UnprotectOptions configures the unprotect workflow.
type UnprotectOptions struct {
	// FilePatterns are paths, directories or globs of configuration files.
	FilePatterns []string

	// BaseDir resolves relative patterns. Defaults to the working directory.
	BaseDir string

	// Sections to unprotect. If empty, every protected section is.
	Sections []string

	// PrivateKeyPath is the RSA private key used to unwrap.
	PrivateKeyPath string

	// PrivateKeyData holds the private key when read from stdin. If set,
	// PrivateKeyPath is ignored.
	PrivateKeyData []byte

	// Passphrase is asked for when the private key is encrypted. May be nil.
	Passphrase keys.PassphraseFunc

	// Indent is the number of spaces per level when files are rewritten.
	Indent int

	// DryRun decrypts in memory, proving the key works, without writing.
	DryRun bool

	// Audit receives one entry per changed file. May be nil.
	Audit *audit.Recorder
}

// UnprotectResult contains the outcome of an unprotect operation.
type UnprotectResult struct {
	Files  []FileResult
	DryRun bool
}

// Unprotect decrypts protected sections of configuration files.
//
// Named sections that are already plaintext are skipped. Any decryption
// failure fails the whole run and nothing is written.
func Unprotect(ctx context.Context, opts UnprotectOptions) (*UnprotectResult, error) {
	priv, err := loadPrivateKey(opts)
	if err != nil {
		return nil, err
	}
	key := protection.NewRSAPrivateKey(priv)

	results, err := transformFiles(ctx, opts.FilePatterns, opts.BaseDir, opts.Indent, opts.DryRun, func(doc *appconfig.Document) (FileResult, error) {
		var res FileResult
		names := opts.Sections
		if len(names) == 0 {
			names = doc.ProtectedSections()
		}
		for _, name := range names {
			if _, err := doc.Section(name); err != nil {
				return FileResult{}, err
			}
			if !doc.IsProtected(name) {
				res.Skipped = append(res.Skipped, name)
				continue
			}
			if err := doc.Unprotect(name, key); err != nil {
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
		recordFiles(opts.Audit, "unprotect", "", results)
	}

	return &UnprotectResult{Files: results, DryRun: opts.DryRun}, nil
}

func loadPrivateKey(opts UnprotectOptions) (*rsa.PrivateKey, error) {
	if len(opts.PrivateKeyData) > 0 {
		key, err := keys.ParsePrivateKey(opts.PrivateKeyData, nil)
		if err != nil && opts.Passphrase != nil && errors.Is(err, kerrors.ErrPassphraseRequired) {
			passphrase, perr := opts.Passphrase()
			if perr != nil {
				return nil, perr
			}
			return keys.ParsePrivateKey(opts.PrivateKeyData, passphrase)
		}
		return key, err
	}

	if opts.PrivateKeyPath == "" {
		return nil, fmt.Errorf("%w: no private key configured", kerrors.ErrKeyNotFound)
	}
	return keys.LoadPrivateKey(opts.PrivateKeyPath, opts.Passphrase)
}

package workflows

import (
	"context"
	"fmt"
	"os"

	"github.com/PolarWolf314/confseal/internal/audit"
	kerrors "github.com/PolarWolf314/confseal/internal/errors"
	"github.com/PolarWolf314/confseal/internal/keys"
)

// KeygenOptions configures the keygen workflow.
type KeygenOptions struct {
	PrivateKeyPath string
	PublicKeyPath  string

	// Bits is the RSA modulus size. Defaults to keys.DefaultBits.
	Bits int

	// Force overwrites existing key files.
	Force bool

	// Audit receives one entry on success. May be nil.
	Audit *audit.Recorder
}

// KeygenResult contains the outcome of a keygen operation.
type KeygenResult struct {
	PrivateKeyPath string
	PublicKeyPath  string
	Bits           int
	Overwritten    bool
}

// Keygen creates an RSA key pair for protecting configuration sections.
//
// Returns ErrKeyExists if either file exists and Force is not set.
func Keygen(ctx context.Context, opts KeygenOptions) (*KeygenResult, error) {
	if opts.PrivateKeyPath == "" || opts.PublicKeyPath == "" {
		return nil, fmt.Errorf("%w: both key paths are required", kerrors.ErrKeyNotFound)
	}
	bits := opts.Bits
	if bits == 0 {
		bits = keys.DefaultBits
	}

	existing := false
	for _, path := range []string{opts.PrivateKeyPath, opts.PublicKeyPath} {
		if _, err := os.Stat(path); err == nil {
			existing = true
			if !opts.Force {
				return nil, fmt.Errorf("%w: %s (use --force to overwrite)", kerrors.ErrKeyExists, path)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := keys.GenerateRSAKeyPair(opts.PrivateKeyPath, opts.PublicKeyPath, bits); err != nil {
		return nil, err
	}

	opts.Audit.Log(audit.Entry{
		Operation: "keygen",
		KeyPath:   opts.PublicKeyPath,
		KeyBits:   bits,
	})

	return &KeygenResult{
		PrivateKeyPath: opts.PrivateKeyPath,
		PublicKeyPath:  opts.PublicKeyPath,
		Bits:           bits,
		Overwritten:    existing,
	}, nil
}

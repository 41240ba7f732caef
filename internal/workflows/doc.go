// Package workflows provides the orchestration behind confseal commands.
//
// Each workflow implements one command's behavior independent of CLI
// concerns like flag parsing, spinners and output formatting. The cmd
// package parses flags, calls a workflow and formats its result.
//
// # Available Workflows
//
//   - Protect: encrypts sections of configuration files
//   - Unprotect: decrypts protected sections
//   - Status: reports which sections are protected, and with what
//   - Keygen: creates an RSA key pair
//
// # Files
//
// Protect and Unprotect accept paths, directories and ** globs. Every
// requested section of a file must transform before that file is written,
// and no file is written until all files have transformed. With DryRun set
// nothing is written.
//
// # Error Handling
//
// Workflows return errors wrapping the sentinels in internal/errors, so the
// CLI can pick a message with errors.Is:
//
//	result, err := workflows.Unprotect(ctx, opts)
//	if errors.Is(err, kerrors.ErrPaddingOrKeyMismatch) {
//	    // wrong private key for this file
//	}
//
// All workflow functions accept a context.Context as their first parameter
// and stop between files once it is cancelled.
package workflows

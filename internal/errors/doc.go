// Package errors provides typed error values for confseal.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching. Every failure
// of the protection envelope surfaces as exactly one of the crypto or envelope
// errors below, wrapped with context.
//
// # Error Categories
//
// Errors are grouped by category:
//
//   - Crypto errors: algorithm and key failures (ErrUnsupportedAlgorithm,
//     ErrMissingPrivateKey, ErrKeyTooSmall, ErrPaddingOrKeyMismatch)
//   - Envelope errors: structural problems (ErrMalformedEnvelope, ErrMalformedInnerXML)
//   - Document errors: configuration file issues (ErrInvalidDocument, ErrSectionNotFound)
//   - Key errors: key material loading (ErrInvalidPrivateKey, ErrPassphraseRequired)
//   - Tool config errors: confseal's own settings (ErrInvalidToolConfig)
//
// # Usage
//
// Return errors from internal packages:
//
//	if !key.HasPrivateKey() {
//	    return nil, errors.ErrMissingPrivateKey
//	}
//
// Handle errors in the CLI layer:
//
//	result, err := workflows.Unprotect(ctx, opts)
//	if errors.Is(err, kerrors.ErrMissingPrivateKey) {
//	    // Show user-friendly message
//	}
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("%w: %q", errors.ErrUnsupportedAlgorithm, id)
package errors

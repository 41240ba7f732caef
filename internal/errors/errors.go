package errors

import "errors"

// Cryptographic errors indicate failures while wrapping keys or running the payload cipher.
var (
	// ErrUnsupportedAlgorithm indicates an algorithm identifier that is unknown,
	// used in the wrong role, or recognized but not implemented.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrMissingPrivateKey indicates a decryption was attempted with a public-only key.
	ErrMissingPrivateKey = errors.New("key has no private component")

	// ErrKeyTooSmall indicates the asymmetric key cannot hold the pre-master secret.
	ErrKeyTooSmall = errors.New("key is too small to wrap the pre-master secret")

	// ErrPaddingOrKeyMismatch indicates the wrong key was used or the ciphertext is corrupt.
	ErrPaddingOrKeyMismatch = errors.New("invalid padding or key mismatch")
)

// Envelope errors indicate structural problems with a protected section.
var (
	// ErrMalformedEnvelope indicates missing children, attributes, or invalid base64.
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// ErrMalformedInnerXML indicates the decrypted payload did not parse as XML.
	ErrMalformedInnerXML = errors.New("decrypted payload is not well-formed XML")
)

// Document errors indicate issues with a configuration document.
var (
	// ErrInvalidDocument indicates the file is not a configuration document.
	ErrInvalidDocument = errors.New("invalid configuration document")

	// ErrSectionNotFound indicates the named section does not exist.
	ErrSectionNotFound = errors.New("section not found")

	// ErrSectionExists indicates a section with that name already exists.
	ErrSectionExists = errors.New("section already exists")

	// ErrSectionProtected indicates the section is encrypted and cannot be read or protected again.
	ErrSectionProtected = errors.New("section is protected")

	// ErrSectionNotProtected indicates an unprotect on a plaintext section.
	ErrSectionNotProtected = errors.New("section is not protected")

	// ErrEntryNotFound indicates a missing appSettings key or connection string.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrInvalidSettings indicates a nested settings element has an unknown shape.
	ErrInvalidSettings = errors.New("invalid settings element")
)

// Key errors indicate issues loading or generating key material.
var (
	// ErrInvalidPrivateKey indicates the private key is malformed or unsupported.
	ErrInvalidPrivateKey = errors.New("invalid or unsupported private key format")

	// ErrInvalidPublicKey indicates the public key is malformed or unsupported.
	ErrInvalidPublicKey = errors.New("invalid or unsupported public key format")

	// ErrPassphraseRequired indicates an encrypted private key was supplied without a passphrase.
	ErrPassphraseRequired = errors.New("passphrase required for encrypted private key")

	// ErrKeyNotFound indicates no key path was supplied or configured.
	ErrKeyNotFound = errors.New("key not found")

	// ErrKeyExists indicates keygen would overwrite an existing key file.
	ErrKeyExists = errors.New("key file already exists")
)

// File errors indicate issues with file discovery or access.
var (
	// ErrNoFilesFound indicates no files matched the provided patterns.
	ErrNoFilesFound = errors.New("no matching files found")

	// ErrFileNotFound indicates a specific file could not be located.
	ErrFileNotFound = errors.New("file not found")
)

// Tool configuration errors.
var (
	// ErrInvalidToolConfig indicates confseal's own configuration failed validation.
	ErrInvalidToolConfig = errors.New("invalid confseal configuration")
)

// Audit log errors.
var (
	// ErrInvalidDateFormat indicates a --since or --until value is not YYYY-MM-DD.
	ErrInvalidDateFormat = errors.New("invalid date format")
)

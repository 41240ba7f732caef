// Package protection implements the encryption envelope used to protect
// configuration sections at rest.
//
// A protected section is encrypted with a hybrid scheme:
//
//  1. A fresh pre-master secret (symmetric key followed by IV) is generated
//     for every call.
//  2. The serialized section is encrypted with a CBC block cipher (AES-128 by
//     default) using that key and IV.
//  3. The pre-master secret is wrapped with the caller's RSA key using
//     PKCS#1 v1.5 padding.
//
// The result is written as an element carrying the original tag name, a
// protected="true" marker, an EncryptedKey child and an EncryptedData child.
// Both children name their algorithm by XML Encryption URI identifier and
// carry base64 CipherData.
//
// # Wire Contract
//
// The pre-master secret layout is positional, not derived: the first
// KeyBytes() bytes are the key and the next IVBytes bytes are the IV for the
// payload cipher named in EncryptedData. Existing files depend on this.
//
// # Security Considerations
//
// There is no integrity protection. CBC with PKCS#7 padding catches most
// corruption and most wrong-key decryptions through the padding check, but a
// tampered envelope can occasionally decrypt to garbage that still pads
// correctly. Changing to an authenticated mode would break existing files.
//
// The OAEP key-wrap identifier is recognized but not implemented; envelopes
// that use it fail with ErrUnsupportedAlgorithm.
package protection

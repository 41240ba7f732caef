// Package keys loads and generates the RSA key material used to protect
// configuration sections.
//
// Public keys are accepted as PKIX ("PUBLIC KEY"), PKCS#1 ("RSA PUBLIC KEY"),
// or OpenSSH authorized_keys lines. Private keys are accepted as PKCS#1
// ("RSA PRIVATE KEY"), PKCS#8 ("PRIVATE KEY"), or OpenSSH format, optionally
// passphrase protected. A private key file can stand in for a public key.
//
// Key material is never cached; every command loads what it needs.
package keys

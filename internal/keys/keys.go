package keys

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"

	kerrors "github.com/PolarWolf314/confseal/internal/errors"
)

const (
	// MinGenerateBits is the smallest key GenerateRSAKeyPair will create.
	MinGenerateBits = 2048

	// DefaultBits is used when no size is configured.
	DefaultBits = 2048
)

// PassphraseFunc supplies a passphrase for an encrypted private key.
type PassphraseFunc func() ([]byte, error)

// LoadPrivateKey reads an RSA private key from disk. If the key is passphrase
// protected and prompt is non-nil, prompt is called once for the passphrase.
func LoadPrivateKey(path string, prompt PassphraseFunc) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrKeyNotFound, path)
		}
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}

	key, err := ParsePrivateKey(data, nil)
	if errors.Is(err, kerrors.ErrPassphraseRequired) && prompt != nil {
		passphrase, perr := prompt()
		if perr != nil {
			return nil, perr
		}
		return ParsePrivateKey(data, passphrase)
	}
	return key, err
}

// ParsePrivateKey parses PKCS#1, PKCS#8, or OpenSSH private key bytes.
func ParsePrivateKey(data []byte, passphrase []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: failed to decode PEM block", kerrors.ErrInvalidPrivateKey)
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPrivateKey, err)
		}
		return key, nil

	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPrivateKey, err)
		}
		return asRSAPrivateKey(parsed)

	case "OPENSSH PRIVATE KEY":
		return parseOpenSSHPrivateKey(data, passphrase)

	default:
		return nil, fmt.Errorf("%w: unsupported PEM block type %s", kerrors.ErrInvalidPrivateKey, block.Type)
	}
}

func parseOpenSSHPrivateKey(data []byte, passphrase []byte) (*rsa.PrivateKey, error) {
	var (
		parsed interface{}
		err    error
	)
	if len(passphrase) > 0 {
		parsed, err = ssh.ParseRawPrivateKeyWithPassphrase(data, passphrase)
	} else {
		parsed, err = ssh.ParseRawPrivateKey(data)
	}
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, kerrors.ErrPassphraseRequired
		}
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPrivateKey, err)
	}
	return asRSAPrivateKey(parsed)
}

func asRSAPrivateKey(parsed interface{}) (*rsa.PrivateKey, error) {
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: key is not an RSA private key, got %T", kerrors.ErrInvalidPrivateKey, parsed)
	}
	return key, nil
}

// LoadPublicKey reads an RSA public key from disk. A private key file is
// accepted and only its public half is returned.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrKeyNotFound, path)
		}
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}
	return ParsePublicKey(data)
}

// ParsePublicKey parses PKIX or PKCS#1 PEM, an OpenSSH authorized_keys line,
// or a private key's public half.
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("ssh-")) {
		return parseAuthorizedKey(data)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: failed to decode PEM block", kerrors.ErrInvalidPublicKey)
	}

	switch block.Type {
	case "PUBLIC KEY":
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse PKIX public key: %v", kerrors.ErrInvalidPublicKey, err)
		}
		rsaKey, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: key is not an RSA public key, got %T", kerrors.ErrInvalidPublicKey, pub)
		}
		return rsaKey, nil

	case "RSA PUBLIC KEY":
		rsaKey, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse PKCS1 RSA public key: %v", kerrors.ErrInvalidPublicKey, err)
		}
		return rsaKey, nil

	case "RSA PRIVATE KEY", "PRIVATE KEY", "OPENSSH PRIVATE KEY":
		priv, err := ParsePrivateKey(data, nil)
		if err != nil {
			return nil, err
		}
		return &priv.PublicKey, nil

	default:
		return nil, fmt.Errorf("%w: unsupported PEM block type %s (expected PUBLIC KEY or RSA PUBLIC KEY)", kerrors.ErrInvalidPublicKey, block.Type)
	}
}

func parseAuthorizedKey(data []byte) (*rsa.PublicKey, error) {
	sshKey, _, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPublicKey, err)
	}
	cryptoKey, ok := sshKey.(ssh.CryptoPublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported SSH key type %s", kerrors.ErrInvalidPublicKey, sshKey.Type())
	}
	rsaKey, ok := cryptoKey.CryptoPublicKey().(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: key is not an RSA public key, got %s", kerrors.ErrInvalidPublicKey, sshKey.Type())
	}
	return rsaKey, nil
}

// GenerateRSAKeyPair creates a new RSA key pair and saves it to disk as a
// PKCS#1 private key and a PKIX public key.
func GenerateRSAKeyPair(privatePath, publicPath string, bits int) error {
	if bits < MinGenerateBits {
		return fmt.Errorf("RSA key size must be at least %d bits, got %d bits", MinGenerateBits, bits)
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return fmt.Errorf("failed to generate RSA key pair: %w", err)
	}

	for _, dir := range []string{filepath.Dir(privatePath), filepath.Dir(publicPath)} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	privPem := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})
	if err := os.WriteFile(privatePath, privPem, 0600); err != nil {
		return fmt.Errorf("failed to write private key file at %s: %w", privatePath, err)
	}

	pubASN1, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to marshal public key: %w", err)
	}
	pubPem := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubASN1,
	})
	// #nosec G306 -- public keys are meant to be shared.
	if err := os.WriteFile(publicPath, pubPem, 0644); err != nil {
		return fmt.Errorf("failed to write public key file at %s: %w", publicPath, err)
	}

	return nil
}

// CheckPrivateKeyPermissions reports the file mode when it is broader than 0600.
func CheckPrivateKeyPermissions(path string) (os.FileMode, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, true
	}
	perm := info.Mode().Perm()
	return perm, perm&0077 == 0
}

package protection

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"

	kerrors "github.com/PolarWolf314/confseal/internal/errors"
)

// pkcs1v15Overhead is the minimum padding PKCS#1 v1.5 adds to a message.
const pkcs1v15Overhead = 11

// Padding selects the asymmetric padding scheme.
type Padding int

const (
	PaddingPKCS1v15 Padding = iota + 1
	PaddingOAEP
)

// AsymmetricKey is the capability the envelope needs from a key pair.
// Encryption only ever uses the public half.
type AsymmetricKey interface {
	Encrypt(plaintext []byte, padding Padding) ([]byte, error)
	Decrypt(ciphertext []byte, padding Padding) ([]byte, error)
	HasPrivateKey() bool
	// Size is the modulus length in bytes.
	Size() int
}

// RSAKey adapts crypto/rsa keys to AsymmetricKey.
type RSAKey struct {
	public  *rsa.PublicKey
	private *rsa.PrivateKey
}

// Compile-time check that RSAKey implements AsymmetricKey.
var _ AsymmetricKey = (*RSAKey)(nil)

// NewRSAPublicKey wraps a public key. The result can encrypt but not decrypt.
func NewRSAPublicKey(pub *rsa.PublicKey) *RSAKey {
	return &RSAKey{public: pub}
}

// NewRSAPrivateKey wraps a private key. The result can encrypt and decrypt.
func NewRSAPrivateKey(priv *rsa.PrivateKey) *RSAKey {
	return &RSAKey{public: &priv.PublicKey, private: priv}
}

func (k *RSAKey) HasPrivateKey() bool {
	return k.private != nil
}

func (k *RSAKey) Size() int {
	if k.public == nil {
		return 0
	}
	return k.public.Size()
}

// PublicKey returns the public half.
func (k *RSAKey) PublicKey() *rsa.PublicKey {
	return k.public
}

func (k *RSAKey) Encrypt(plaintext []byte, padding Padding) ([]byte, error) {
	if k.public == nil {
		return nil, fmt.Errorf("RSA public key cannot be nil")
	}
	if padding != PaddingPKCS1v15 {
		return nil, fmt.Errorf("%w: padding %d", kerrors.ErrUnsupportedAlgorithm, padding)
	}
	return rsa.EncryptPKCS1v15(rand.Reader, k.public, plaintext)
}

func (k *RSAKey) Decrypt(ciphertext []byte, padding Padding) ([]byte, error) {
	if k.private == nil {
		return nil, kerrors.ErrMissingPrivateKey
	}
	if padding != PaddingPKCS1v15 {
		return nil, fmt.Errorf("%w: padding %d", kerrors.ErrUnsupportedAlgorithm, padding)
	}
	return rsa.DecryptPKCS1v15(rand.Reader, k.private, ciphertext)
}

// WrapKey encrypts the pre-master secret with PKCS#1 v1.5 padding.
// A public-only key is sufficient.
func WrapKey(pms []byte, key AsymmetricKey) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: no key supplied", kerrors.ErrKeyNotFound)
	}
	if limit := key.Size() - pkcs1v15Overhead; len(pms) > limit {
		return nil, fmt.Errorf("%w: %d-byte secret needs a modulus of at least %d bytes, got %d",
			kerrors.ErrKeyTooSmall, len(pms), len(pms)+pkcs1v15Overhead, key.Size())
	}

	wrapped, err := key.Encrypt(pms, PaddingPKCS1v15)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap pre-master secret: %w", err)
	}
	return wrapped, nil
}

// UnwrapKey decrypts a wrapped pre-master secret. The key must hold a private component.
func UnwrapKey(wrapped []byte, key AsymmetricKey) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: no key supplied", kerrors.ErrKeyNotFound)
	}
	if !key.HasPrivateKey() {
		return nil, kerrors.ErrMissingPrivateKey
	}

	pms, err := key.Decrypt(wrapped, PaddingPKCS1v15)
	if err != nil {
		return nil, fmt.Errorf("%w: unwrapping pre-master secret: %v", kerrors.ErrPaddingOrKeyMismatch, err)
	}
	return pms, nil
}

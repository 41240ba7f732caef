package protection

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/rand"
	"fmt"

	kerrors "github.com/PolarWolf314/confseal/internal/errors"
)

// NewPreMasterSecret generates a fresh key followed by a fresh IV for alg.
func NewPreMasterSecret(alg Algorithm) ([]byte, error) {
	pms := make([]byte, alg.PreMasterSecretSize())
	if _, err := rand.Read(pms); err != nil {
		return nil, fmt.Errorf("failed to generate pre-master secret: %w", err)
	}
	return pms, nil
}

// SplitPreMasterSecret returns the key and IV for alg. Bytes past the IV are ignored.
func SplitPreMasterSecret(pms []byte, alg Algorithm) (key, iv []byte, err error) {
	keyLen := alg.KeyBytes()
	if len(pms) < keyLen+alg.IVBytes {
		return nil, nil, fmt.Errorf("%w: pre-master secret is %d bytes, %s needs %d",
			kerrors.ErrPaddingOrKeyMismatch, len(pms), alg.Name, keyLen+alg.IVBytes)
	}
	return pms[:keyLen], pms[keyLen : keyLen+alg.IVBytes], nil
}

func newBlock(key []byte, alg Algorithm) (cipher.Block, error) {
	if alg.Kind != KindPayload {
		return nil, fmt.Errorf("%w: %s is not a payload cipher", kerrors.ErrUnsupportedAlgorithm, alg.Name)
	}
	if len(key) != alg.KeyBytes() {
		return nil, fmt.Errorf("invalid %s key length: expected %d bytes, got %d bytes", alg.Name, alg.KeyBytes(), len(key))
	}

	switch alg.Family {
	case FamilyAES:
		return aes.NewCipher(key)
	case FamilyTripleDES:
		return des.NewTripleDESCipher(key)
	default:
		return nil, fmt.Errorf("%w: no block cipher for family %s", kerrors.ErrUnsupportedAlgorithm, alg.Family)
	}
}

// EncryptPayload encrypts plaintext with CBC and PKCS#7 padding.
func EncryptPayload(plaintext, key, iv []byte, alg Algorithm) ([]byte, error) {
	block, err := newBlock(key, alg)
	if err != nil {
		return nil, err
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("invalid IV length: expected %d bytes, got %d bytes", block.BlockSize(), len(iv))
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

// DecryptPayload reverses EncryptPayload. A bad padding almost always means the
// wrong key or a corrupted envelope, but there is no integrity check behind it.
func DecryptPayload(ciphertext, key, iv []byte, alg Algorithm) ([]byte, error) {
	block, err := newBlock(key, alg)
	if err != nil {
		return nil, err
	}
	bs := block.BlockSize()
	if len(iv) != bs {
		return nil, fmt.Errorf("invalid IV length: expected %d bytes, got %d bytes", bs, len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%bs != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a positive multiple of %d",
			kerrors.ErrPaddingOrKeyMismatch, len(ciphertext), bs)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	return pkcs7Unpad(plaintext, bs)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append(make([]byte, 0, len(data)+n), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, kerrors.ErrPaddingOrKeyMismatch
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, kerrors.ErrPaddingOrKeyMismatch
		}
	}
	return data[:len(data)-n], nil
}

package protection

import (
	"fmt"
	"sort"

	kerrors "github.com/PolarWolf314/confseal/internal/errors"
)

// Algorithm identifiers as they appear in the Algorithm attribute of an envelope.
const (
	AlgorithmRSAv15       = "http://www.w3.org/2001/04/xmlenc#rsa-1_5"
	AlgorithmRSAOAEP      = "http://www.w3.org/2001/04/xmlenc#rsa-oaep-mgf1p"
	AlgorithmAES128CBC    = "http://www.w3.org/2001/04/xmlenc#aes128-cbc"
	AlgorithmAES192CBC    = "http://www.w3.org/2001/04/xmlenc#aes192-cbc"
	AlgorithmAES256CBC    = "http://www.w3.org/2001/04/xmlenc#aes256-cbc"
	AlgorithmTripleDESCBC = "http://www.w3.org/2001/04/xmlenc#tripledes-cbc"

	// DefaultPayloadAlgorithm is used by Encrypt.
	DefaultPayloadAlgorithm = AlgorithmAES128CBC

	// DefaultKeyWrapAlgorithm is the only implemented key-wrap algorithm.
	DefaultKeyWrapAlgorithm = AlgorithmRSAv15
)

// Family is the cipher family behind an identifier.
type Family int

const (
	FamilyAES Family = iota + 1
	FamilyTripleDES
	FamilyRSA
)

func (f Family) String() string {
	switch f {
	case FamilyAES:
		return "AES"
	case FamilyTripleDES:
		return "TripleDES"
	case FamilyRSA:
		return "RSA"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// Kind separates payload ciphers from key-wrap algorithms.
type Kind int

const (
	KindPayload Kind = iota + 1
	KindKeyWrap
)

func (k Kind) String() string {
	switch k {
	case KindPayload:
		return "payload"
	case KindKeyWrap:
		return "key-wrap"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Algorithm describes one registry entry.
type Algorithm struct {
	ID     string
	Name   string
	Kind   Kind
	Family Family
	// KeyBits is zero for key-wrap algorithms, whose key size comes from the key itself.
	KeyBits int
	IVBytes int
	// Implemented is false for identifiers that are recognized but rejected.
	Implemented bool
}

// KeyBytes returns the symmetric key length in bytes.
func (a Algorithm) KeyBytes() int {
	return a.KeyBits / 8
}

// PreMasterSecretSize is the length of key material plus IV for a payload cipher.
func (a Algorithm) PreMasterSecretSize() int {
	return a.KeyBytes() + a.IVBytes
}

var registry = map[string]Algorithm{
	AlgorithmAES128CBC:    {ID: AlgorithmAES128CBC, Name: "AES-128-CBC", Kind: KindPayload, Family: FamilyAES, KeyBits: 128, IVBytes: 16, Implemented: true},
	AlgorithmAES192CBC:    {ID: AlgorithmAES192CBC, Name: "AES-192-CBC", Kind: KindPayload, Family: FamilyAES, KeyBits: 192, IVBytes: 16, Implemented: true},
	AlgorithmAES256CBC:    {ID: AlgorithmAES256CBC, Name: "AES-256-CBC", Kind: KindPayload, Family: FamilyAES, KeyBits: 256, IVBytes: 16, Implemented: true},
	AlgorithmTripleDESCBC: {ID: AlgorithmTripleDESCBC, Name: "TripleDES-CBC", Kind: KindPayload, Family: FamilyTripleDES, KeyBits: 192, IVBytes: 8, Implemented: true},
	AlgorithmRSAv15:       {ID: AlgorithmRSAv15, Name: "RSA-PKCS1-v1_5", Kind: KindKeyWrap, Family: FamilyRSA, Implemented: true},
	// TODO: decide whether OAEP key wrap should be supported; it needs a new padding path in RSAKey.
	AlgorithmRSAOAEP: {ID: AlgorithmRSAOAEP, Name: "RSA-OAEP-MGF1P", Kind: KindKeyWrap, Family: FamilyRSA, Implemented: false},
}

func lookup(id string, kind Kind) (Algorithm, error) {
	alg, ok := registry[id]
	if !ok {
		return Algorithm{}, fmt.Errorf("%w: unknown identifier %q", kerrors.ErrUnsupportedAlgorithm, id)
	}
	if alg.Kind != kind {
		return Algorithm{}, fmt.Errorf("%w: %s is a %s algorithm, expected %s", kerrors.ErrUnsupportedAlgorithm, alg.Name, alg.Kind, kind)
	}
	if !alg.Implemented {
		return Algorithm{}, fmt.Errorf("%w: %s is recognized but not implemented", kerrors.ErrUnsupportedAlgorithm, alg.Name)
	}
	return alg, nil
}

// LookupPayloadCipher returns the payload cipher for an EncryptedData identifier.
func LookupPayloadCipher(id string) (Algorithm, error) {
	return lookup(id, KindPayload)
}

// LookupKeyWrap returns the key-wrap algorithm for an EncryptedKey identifier.
func LookupKeyWrap(id string) (Algorithm, error) {
	return lookup(id, KindKeyWrap)
}

// Algorithms lists every registry entry, payload ciphers first, then by name.
func Algorithms() []Algorithm {
	out := make([]Algorithm, 0, len(registry))
	for _, alg := range registry {
		out = append(out, alg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}

package protection

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	kerrors "github.com/PolarWolf314/confseal/internal/errors"
)

// Envelope element and attribute names.
const (
	ProtectedAttr     = "protected"
	NameAttr          = "name"
	EncryptedKeyTag   = "EncryptedKey"
	EncryptedDataTag  = "EncryptedData"
	CipherDataTag     = "CipherData"
	CipherValueTag    = "CipherValue"
	AlgorithmAttr     = "Algorithm"
	xmlnsAttrPrefix   = "xmlns"
	protectedAttrTrue = "true"
)

// Encrypt protects section with the default payload cipher (AES-128-CBC).
func Encrypt(section *etree.Element, key AsymmetricKey) (*etree.Element, error) {
	return EncryptWithAlgorithm(section, key, DefaultPayloadAlgorithm)
}

// EncryptWithAlgorithm protects section with the named payload cipher. The
// section itself is not modified; the returned envelope is detached.
func EncryptWithAlgorithm(section *etree.Element, key AsymmetricKey, payloadAlgorithm string) (*etree.Element, error) {
	if section == nil {
		return nil, fmt.Errorf("section cannot be nil")
	}
	alg, err := LookupPayloadCipher(payloadAlgorithm)
	if err != nil {
		return nil, err
	}

	plaintext, err := serializeSection(section)
	if err != nil {
		return nil, err
	}

	pms, err := NewPreMasterSecret(alg)
	if err != nil {
		return nil, err
	}
	symKey, iv, err := SplitPreMasterSecret(pms, alg)
	if err != nil {
		return nil, err
	}

	ciphertext, err := EncryptPayload(plaintext, symKey, iv, alg)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt section %q: %w", section.FullTag(), err)
	}

	wrapped, err := WrapKey(pms, key)
	if err != nil {
		return nil, err
	}

	return buildEnvelope(section, wrapped, ciphertext, alg), nil
}

// Decrypt restores the section held by envelope. It either returns the full
// section or an error; the envelope is not modified.
func Decrypt(envelope *etree.Element, key AsymmetricKey) (*etree.Element, error) {
	if envelope == nil {
		return nil, fmt.Errorf("%w: envelope cannot be nil", kerrors.ErrMalformedEnvelope)
	}
	if !IsEnvelope(envelope) {
		return nil, fmt.Errorf("%w: %q is not marked protected", kerrors.ErrMalformedEnvelope, envelope.FullTag())
	}

	keyAlgID, wrapped, err := readCipherChild(envelope, EncryptedKeyTag)
	if err != nil {
		return nil, err
	}
	dataAlgID, ciphertext, err := readCipherChild(envelope, EncryptedDataTag)
	if err != nil {
		return nil, err
	}

	if _, err := LookupKeyWrap(keyAlgID); err != nil {
		return nil, err
	}
	alg, err := LookupPayloadCipher(dataAlgID)
	if err != nil {
		return nil, err
	}

	pms, err := UnwrapKey(wrapped, key)
	if err != nil {
		return nil, err
	}
	symKey, iv, err := SplitPreMasterSecret(pms, alg)
	if err != nil {
		return nil, err
	}

	plaintext, err := DecryptPayload(ciphertext, symKey, iv, alg)
	if err != nil {
		return nil, err
	}

	return parseSection(plaintext, envelope)
}

// IsEnvelope reports whether el carries the protected marker.
func IsEnvelope(el *etree.Element) bool {
	if el == nil {
		return false
	}
	return strings.EqualFold(el.SelectAttrValue(ProtectedAttr, ""), protectedAttrTrue)
}

// serializeSection writes a copy of section with its own namespace prefix
// stripped from every element that carries it.
func serializeSection(section *etree.Element) ([]byte, error) {
	root := section.Copy()
	if prefix := section.Space; prefix != "" {
		walk(root, func(el *etree.Element) {
			if el.Space == prefix {
				el.Space = ""
			}
		})
	}

	doc := etree.NewDocument()
	doc.SetRoot(root)
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize section %q: %w", section.FullTag(), err)
	}
	return data, nil
}

func parseSection(plaintext []byte, envelope *etree.Element) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(plaintext); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrMalformedInnerXML, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", kerrors.ErrMalformedInnerXML)
	}
	if root.Tag != envelope.Tag {
		return nil, fmt.Errorf("%w: payload root %q does not match envelope %q", kerrors.ErrMalformedInnerXML, root.Tag, envelope.Tag)
	}

	section := root.Copy()
	if prefix := envelope.Space; prefix != "" {
		walk(section, func(el *etree.Element) {
			if el.Space == "" {
				el.Space = prefix
			}
		})
	}
	return section, nil
}

func buildEnvelope(section *etree.Element, wrapped, ciphertext []byte, alg Algorithm) *etree.Element {
	env := etree.NewElement(section.Tag)
	env.Space = section.Space
	for i := range section.Attr {
		a := &section.Attr[i]
		if keepOnEnvelope(a) {
			env.CreateAttr(a.FullKey(), a.Value)
		}
	}
	env.CreateAttr(ProtectedAttr, protectedAttrTrue)

	encKey := env.CreateElement(EncryptedKeyTag)
	encKey.CreateAttr(AlgorithmAttr, DefaultKeyWrapAlgorithm)
	encKey.CreateElement(CipherDataTag).SetText(base64.StdEncoding.EncodeToString(wrapped))

	encData := env.CreateElement(EncryptedDataTag)
	encData.CreateAttr(AlgorithmAttr, alg.ID)
	encData.CreateElement(CipherDataTag).SetText(base64.StdEncoding.EncodeToString(ciphertext))

	return env
}

// keepOnEnvelope keeps the name attribute and namespace declarations, so the
// envelope stays addressable and its prefix stays bound.
func keepOnEnvelope(a *etree.Attr) bool {
	switch {
	case a.Space == xmlnsAttrPrefix:
		return true
	case a.Space == "" && (a.Key == xmlnsAttrPrefix || a.Key == NameAttr):
		return true
	default:
		return false
	}
}

func readCipherChild(envelope *etree.Element, tag string) (string, []byte, error) {
	child := envelope.SelectElement(tag)
	if child == nil {
		return "", nil, fmt.Errorf("%w: missing %s", kerrors.ErrMalformedEnvelope, tag)
	}
	algID := child.SelectAttrValue(AlgorithmAttr, "")
	if algID == "" {
		return "", nil, fmt.Errorf("%w: %s has no %s attribute", kerrors.ErrMalformedEnvelope, tag, AlgorithmAttr)
	}

	cipherData := child.SelectElement(CipherDataTag)
	if cipherData == nil {
		return "", nil, fmt.Errorf("%w: %s has no %s", kerrors.ErrMalformedEnvelope, tag, CipherDataTag)
	}
	text := cipherData.Text()
	if value := cipherData.SelectElement(CipherValueTag); value != nil {
		text = value.Text()
	}

	// Base64 written by other tools may be wrapped across lines.
	raw, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(text), ""))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s/%s is not valid base64: %v", kerrors.ErrMalformedEnvelope, tag, CipherDataTag, err)
	}
	if len(raw) == 0 {
		return "", nil, fmt.Errorf("%w: %s/%s is empty", kerrors.ErrMalformedEnvelope, tag, CipherDataTag)
	}
	return algID, raw, nil
}

func walk(el *etree.Element, fn func(*etree.Element)) {
	fn(el)
	for _, child := range el.ChildElements() {
		walk(child, fn)
	}
}

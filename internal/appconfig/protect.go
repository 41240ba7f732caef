package appconfig

import (
	"fmt"

	"github.com/beevik/etree"

	kerrors "github.com/PolarWolf314/confseal/internal/errors"
	"github.com/PolarWolf314/confseal/internal/protection"
)

// Protect encrypts a section in place with key. An empty algorithmID selects
// protection.DefaultPayloadAlgorithm. Only the public half of key is needed.
func (d *Document) Protect(sectionName string, key protection.AsymmetricKey, algorithmID string) error {
	section, err := d.Section(sectionName)
	if err != nil {
		return err
	}
	if section.Parent() == d.Root() && section.Tag == configSectionsTag {
		return fmt.Errorf("%w: %s cannot be protected", kerrors.ErrInvalidDocument, configSectionsTag)
	}
	if protection.IsEnvelope(section) {
		return fmt.Errorf("%w: %s", kerrors.ErrSectionProtected, sectionName)
	}
	if algorithmID == "" {
		algorithmID = protection.DefaultPayloadAlgorithm
	}

	envelope, err := protection.EncryptWithAlgorithm(section, key, algorithmID)
	if err != nil {
		return fmt.Errorf("failed to protect %s: %w", sectionName, err)
	}
	replace(section, envelope)
	return nil
}

// Unprotect decrypts a protected section in place. key must hold the
// private half of the pair used to protect it.
func (d *Document) Unprotect(sectionName string, key protection.AsymmetricKey) error {
	envelope, err := d.Section(sectionName)
	if err != nil {
		return err
	}
	if !protection.IsEnvelope(envelope) {
		return fmt.Errorf("%w: %s", kerrors.ErrSectionNotProtected, sectionName)
	}

	section, err := protection.Decrypt(envelope, key)
	if err != nil {
		return fmt.Errorf("failed to unprotect %s: %w", sectionName, err)
	}
	replace(envelope, section)
	return nil
}

// IsProtected reports whether the named section exists and is protected.
func (d *Document) IsProtected(sectionName string) bool {
	el := d.find(sectionName)
	return el != nil && protection.IsEnvelope(el)
}

// ProtectedSections lists protected sections in document order. Sections
// inside a group are reported as "group/name".
func (d *Document) ProtectedSections() []string {
	var names []string
	var visit func(el *etree.Element, prefix string)
	visit = func(el *etree.Element, prefix string) {
		for _, child := range el.ChildElements() {
			if child.Parent() == d.Root() && child.Tag == configSectionsTag {
				continue
			}
			name := prefix + child.FullTag()
			if protection.IsEnvelope(child) {
				names = append(names, name)
				continue
			}
			visit(child, name+"/")
		}
	}
	visit(d.Root(), "")
	return names
}

// EnvelopeAlgorithms returns the key wrap and payload algorithm identifiers
// recorded in a protected section.
func (d *Document) EnvelopeAlgorithms(sectionName string) (keyWrap, payload string, err error) {
	envelope, err := d.Section(sectionName)
	if err != nil {
		return "", "", err
	}
	if !protection.IsEnvelope(envelope) {
		return "", "", fmt.Errorf("%w: %s", kerrors.ErrSectionNotProtected, sectionName)
	}
	if ek := envelope.SelectElement(protection.EncryptedKeyTag); ek != nil {
		keyWrap = ek.SelectAttrValue(protection.AlgorithmAttr, "")
	}
	if ed := envelope.SelectElement(protection.EncryptedDataTag); ed != nil {
		payload = ed.SelectAttrValue(protection.AlgorithmAttr, "")
	}
	return keyWrap, payload, nil
}

// replace puts next at old's position among its siblings.
func replace(old, next *etree.Element) {
	parent := old.Parent()
	idx := old.Index()
	parent.RemoveChildAt(idx)
	parent.InsertChildAt(idx, next)
}

package appconfig

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	kerrors "github.com/PolarWolf314/confseal/internal/errors"
)

const (
	sectionTag      = "section"
	sectionGroupTag = "sectionGroup"
	typeAttr        = "type"
)

// Declaration is a <section> entry of configSections.
type Declaration struct {
	// Path is the section name, prefixed by its groups as "group/name".
	Path string
	// Type is the handler type name.
	Type string
}

// ConfigSections edits the <configSections> block of a document.
type ConfigSections struct {
	doc *Document
}

// ConfigSections returns an editor for section declarations.
func (d *Document) ConfigSections() *ConfigSections {
	return &ConfigSections{doc: d}
}

// block returns the configSections element. With create set, a missing
// block is inserted as the first child of the root.
func (c *ConfigSections) block(create bool) *etree.Element {
	root := c.doc.Root()
	if el := root.SelectElement(configSectionsTag); el != nil {
		return el
	}
	if !create {
		return nil
	}
	el := etree.NewElement(configSectionsTag)
	root.InsertChildAt(0, el)
	return el
}

func (c *ConfigSections) lookup(path string) (*etree.Element, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	el := c.block(false)
	for i := 0; el != nil && i < len(parts)-1; i++ {
		el = findNamed(el, sectionGroupTag, parts[i])
	}
	if el != nil {
		el = findNamed(el, sectionTag, parts[len(parts)-1])
	}
	if el == nil {
		return nil, fmt.Errorf("%w: section declaration %q", kerrors.ErrEntryNotFound, path)
	}
	return el, nil
}

// Declare adds or updates a section declaration, creating section groups
// as needed.
func (c *ConfigSections) Declare(path, typeName string) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}

	parent := c.block(true)
	for _, group := range parts[:len(parts)-1] {
		next := findNamed(parent, sectionGroupTag, group)
		if next == nil {
			next = parent.CreateElement(sectionGroupTag)
			next.CreateAttr(nameAttr, group)
		}
		parent = next
	}

	name := parts[len(parts)-1]
	el := findNamed(parent, sectionTag, name)
	if el == nil {
		el = parent.CreateElement(sectionTag)
		el.CreateAttr(nameAttr, name)
	}
	el.CreateAttr(typeAttr, typeName)
	return nil
}

// Declaration returns the handler type declared for path.
func (c *ConfigSections) Declaration(path string) (Declaration, error) {
	el, err := c.lookup(path)
	if err != nil {
		return Declaration{}, err
	}
	return Declaration{Path: strings.Trim(path, "/"), Type: el.SelectAttrValue(typeAttr, "")}, nil
}

// Remove deletes a declaration. Section groups left empty are removed too.
func (c *ConfigSections) Remove(path string) error {
	el, err := c.lookup(path)
	if err != nil {
		return err
	}
	parent := el.Parent()
	parent.RemoveChild(el)
	for parent.Tag == sectionGroupTag && len(parent.ChildElements()) == 0 {
		next := parent.Parent()
		next.RemoveChild(parent)
		parent = next
	}
	return nil
}

// Declarations lists every declared section, depth first in document order.
func (c *ConfigSections) Declarations() []Declaration {
	block := c.block(false)
	if block == nil {
		return nil
	}
	var out []Declaration
	var visit func(el *etree.Element, prefix string)
	visit = func(el *etree.Element, prefix string) {
		for _, child := range el.ChildElements() {
			name := child.SelectAttrValue(nameAttr, "")
			switch child.Tag {
			case sectionGroupTag:
				visit(child, prefix+name+"/")
			case sectionTag:
				out = append(out, Declaration{Path: prefix + name, Type: child.SelectAttrValue(typeAttr, "")})
			}
		}
	}
	visit(block, "")
	return out
}

func findNamed(parent *etree.Element, tag, name string) *etree.Element {
	for _, el := range parent.SelectElements(tag) {
		if el.SelectAttrValue(nameAttr, "") == name {
			return el
		}
	}
	return nil
}

package appconfig

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"

	kerrors "github.com/PolarWolf314/confseal/internal/errors"
	"github.com/PolarWolf314/confseal/internal/protection"
)

const (
	// RootTag is the required document element.
	RootTag = "configuration"

	// DefaultIndent is the number of spaces per nesting level on output.
	DefaultIndent = 2

	configSectionsTag = "configSections"
)

// Document is an application configuration file held in memory.
type Document struct {
	// Indent is the number of spaces used per nesting level when writing.
	// Zero or less writes the tree without added whitespace.
	Indent int

	doc *etree.Document
}

// New returns an empty document containing only <configuration/>.
func New() *Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	doc.CreateElement(RootTag)
	return &Document{Indent: DefaultIndent, doc: doc}
}

// Load reads a configuration file from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse reads a configuration document from raw bytes.
func Parse(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidDocument, err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", kerrors.ErrInvalidDocument)
	}
	if root.Tag != RootTag {
		return nil, fmt.Errorf("%w: root element is <%s>, expected <%s>", kerrors.ErrInvalidDocument, root.FullTag(), RootTag)
	}

	return &Document{Indent: DefaultIndent, doc: doc}, nil
}

// Root returns the <configuration> element.
func (d *Document) Root() *etree.Element {
	return d.doc.Root()
}

// WriteTo writes the document, indented by d.Indent spaces per level.
// The in-memory tree is not modified.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	out := d.doc.Copy()
	if d.Indent > 0 {
		out.Indent(d.Indent)
	}
	return out.WriteTo(w)
}

// Bytes returns the serialized document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the document to path. An existing file keeps its mode.
func (d *Document) Save(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return fmt.Errorf("failed to serialize configuration: %w", err)
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	// Written to a sibling file first, then renamed into place.
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Section returns the element for a section. Nested sections inside a
// section group are addressed as "group/name". The element is returned
// whether or not it is protected.
func (d *Document) Section(name string) (*etree.Element, error) {
	el := d.find(name)
	if el == nil {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrSectionNotFound, name)
	}
	return el, nil
}

// SectionNames lists the top level sections in document order, excluding
// the configSections declaration block.
func (d *Document) SectionNames() []string {
	var names []string
	for _, child := range d.Root().ChildElements() {
		if child.Tag == configSectionsTag {
			continue
		}
		names = append(names, child.FullTag())
	}
	return names
}

// CreateSection adds an empty section, creating any missing group elements.
func (d *Document) CreateSection(name string) (*etree.Element, error) {
	if d.find(name) != nil {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrSectionExists, name)
	}
	parts, err := splitPath(name)
	if err != nil {
		return nil, err
	}

	parent := d.Root()
	for i, part := range parts {
		next := parent.SelectElement(part)
		if next == nil {
			next = parent.CreateElement(part)
		} else if i < len(parts)-1 && protection.IsEnvelope(next) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrSectionProtected, strings.Join(parts[:i+1], "/"))
		}
		parent = next
	}
	return parent, nil
}

// RemoveSection deletes a section and everything below it.
func (d *Document) RemoveSection(name string) error {
	el := d.find(name)
	if el == nil {
		return fmt.Errorf("%w: %s", kerrors.ErrSectionNotFound, name)
	}
	el.Parent().RemoveChild(el)
	return nil
}

func (d *Document) find(name string) *etree.Element {
	parts, err := splitPath(name)
	if err != nil {
		return nil
	}
	el := d.Root()
	for _, part := range parts {
		el = el.SelectElement(part)
		if el == nil {
			return nil
		}
	}
	return el
}

// plainSection returns a section that must not be protected. With create
// set, a missing section is added.
func (d *Document) plainSection(name string, create bool) (*etree.Element, error) {
	el := d.find(name)
	if el == nil {
		if !create {
			return nil, nil
		}
		return d.CreateSection(name)
	}
	if protection.IsEnvelope(el) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrSectionProtected, name)
	}
	return el, nil
}

func splitPath(name string) ([]string, error) {
	name = strings.Trim(name, "/")
	if name == "" {
		return nil, fmt.Errorf("%w: empty section name", kerrors.ErrSectionNotFound)
	}
	parts := strings.Split(name, "/")
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("%w: invalid section name %q", kerrors.ErrSectionNotFound, name)
		}
	}
	return parts, nil
}

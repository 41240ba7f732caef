package appconfig

import (
	"fmt"

	"github.com/beevik/etree"

	kerrors "github.com/PolarWolf314/confseal/internal/errors"
)

const (
	// ConnectionStringsSection is the tag of the connection strings section.
	ConnectionStringsSection = "connectionStrings"

	nameAttr             = "name"
	connectionStringAttr = "connectionString"
	providerNameAttr     = "providerName"
)

// ConnectionString is one <add> entry of the connectionStrings section.
type ConnectionString struct {
	Name             string
	ConnectionString string
	ProviderName     string
}

// ConnectionStrings edits the <connectionStrings> section of a document.
type ConnectionStrings struct {
	doc *Document
}

// ConnectionStrings returns an editor for the connectionStrings section.
func (d *Document) ConnectionStrings() *ConnectionStrings {
	return &ConnectionStrings{doc: d}
}

func (c *ConnectionStrings) entry(name string) (*etree.Element, error) {
	section, err := c.doc.plainSection(ConnectionStringsSection, false)
	if err != nil {
		return nil, err
	}
	if section != nil {
		for _, add := range section.SelectElements(addTag) {
			if add.SelectAttrValue(nameAttr, "") == name {
				return add, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: connection string %q", kerrors.ErrEntryNotFound, name)
}

// Get returns the named connection string.
func (c *ConnectionStrings) Get(name string) (ConnectionString, error) {
	add, err := c.entry(name)
	if err != nil {
		return ConnectionString{}, err
	}
	return ConnectionString{
		Name:             name,
		ConnectionString: add.SelectAttrValue(connectionStringAttr, ""),
		ProviderName:     add.SelectAttrValue(providerNameAttr, ""),
	}, nil
}

// Set inserts or updates a connection string. An empty ProviderName removes
// the attribute.
func (c *ConnectionStrings) Set(cs ConnectionString) error {
	if cs.Name == "" {
		return fmt.Errorf("%w: empty connection string name", kerrors.ErrInvalidSettings)
	}
	section, err := c.doc.plainSection(ConnectionStringsSection, true)
	if err != nil {
		return err
	}

	var add *etree.Element
	for _, el := range section.SelectElements(addTag) {
		if el.SelectAttrValue(nameAttr, "") == cs.Name {
			add = el
			break
		}
	}
	if add == nil {
		add = section.CreateElement(addTag)
		add.CreateAttr(nameAttr, cs.Name)
	}

	add.CreateAttr(connectionStringAttr, cs.ConnectionString)
	if cs.ProviderName != "" {
		add.CreateAttr(providerNameAttr, cs.ProviderName)
	} else {
		add.RemoveAttr(providerNameAttr)
	}
	return nil
}

// Remove deletes the named connection string.
func (c *ConnectionStrings) Remove(name string) error {
	add, err := c.entry(name)
	if err != nil {
		return err
	}
	removeWithComment(add)
	return nil
}

// Names lists connection string names in document order.
func (c *ConnectionStrings) Names() ([]string, error) {
	section, err := c.doc.plainSection(ConnectionStringsSection, false)
	if err != nil || section == nil {
		return nil, err
	}
	var names []string
	for _, add := range section.SelectElements(addTag) {
		names = append(names, add.SelectAttrValue(nameAttr, ""))
	}
	return names, nil
}

// SetComment attaches a comment above the named entry.
func (c *ConnectionStrings) SetComment(name, text string) error {
	add, err := c.entry(name)
	if err != nil {
		return err
	}
	setComment(add, text)
	return nil
}

// Comment returns the comment above the named entry.
func (c *ConnectionStrings) Comment(name string) (string, error) {
	add, err := c.entry(name)
	if err != nil {
		return "", err
	}
	return commentText(add), nil
}

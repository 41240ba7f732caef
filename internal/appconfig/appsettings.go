package appconfig

import (
	"fmt"
	"time"

	"github.com/beevik/etree"
	"github.com/spf13/cast"

	kerrors "github.com/PolarWolf314/confseal/internal/errors"
)

const (
	// AppSettingsSection is the tag of the key/value settings section.
	AppSettingsSection = "appSettings"

	addTag    = "add"
	keyAttr   = "key"
	valueAttr = "value"
)

// AppSettings edits the <appSettings> section of a document.
type AppSettings struct {
	doc *Document
}

// AppSettings returns an editor for the appSettings section. The section is
// created on the first Set.
func (d *Document) AppSettings() *AppSettings {
	return &AppSettings{doc: d}
}

func (s *AppSettings) entry(key string) (*etree.Element, error) {
	section, err := s.doc.plainSection(AppSettingsSection, false)
	if err != nil {
		return nil, err
	}
	if section == nil {
		return nil, fmt.Errorf("%w: appSettings key %q", kerrors.ErrEntryNotFound, key)
	}
	for _, add := range section.SelectElements(addTag) {
		if add.SelectAttrValue(keyAttr, "") == key {
			return add, nil
		}
	}
	return nil, fmt.Errorf("%w: appSettings key %q", kerrors.ErrEntryNotFound, key)
}

// Get returns the value stored under key.
func (s *AppSettings) Get(key string) (string, error) {
	add, err := s.entry(key)
	if err != nil {
		return "", err
	}
	return add.SelectAttrValue(valueAttr, ""), nil
}

// Set stores value under key, updating an existing entry in place.
func (s *AppSettings) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: empty appSettings key", kerrors.ErrInvalidSettings)
	}
	section, err := s.doc.plainSection(AppSettingsSection, true)
	if err != nil {
		return err
	}
	for _, add := range section.SelectElements(addTag) {
		if add.SelectAttrValue(keyAttr, "") == key {
			add.CreateAttr(valueAttr, value)
			return nil
		}
	}
	add := section.CreateElement(addTag)
	add.CreateAttr(keyAttr, key)
	add.CreateAttr(valueAttr, value)
	return nil
}

// Remove deletes the entry for key and any comment attached to it.
func (s *AppSettings) Remove(key string) error {
	add, err := s.entry(key)
	if err != nil {
		return err
	}
	removeWithComment(add)
	return nil
}

// Keys lists the keys in document order.
func (s *AppSettings) Keys() ([]string, error) {
	section, err := s.doc.plainSection(AppSettingsSection, false)
	if err != nil || section == nil {
		return nil, err
	}
	var keys []string
	for _, add := range section.SelectElements(addTag) {
		keys = append(keys, add.SelectAttrValue(keyAttr, ""))
	}
	return keys, nil
}

// Len returns the number of entries.
func (s *AppSettings) Len() (int, error) {
	keys, err := s.Keys()
	return len(keys), err
}

// Int returns the value under key converted to an int.
func (s *AppSettings) Int(key string) (int, error) {
	v, err := s.Get(key)
	if err != nil {
		return 0, err
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("appSettings key %q: %w", key, err)
	}
	return n, nil
}

// Bool returns the value under key converted to a bool.
func (s *AppSettings) Bool(key string) (bool, error) {
	v, err := s.Get(key)
	if err != nil {
		return false, err
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("appSettings key %q: %w", key, err)
	}
	return b, nil
}

// Float64 returns the value under key converted to a float64.
func (s *AppSettings) Float64(key string) (float64, error) {
	v, err := s.Get(key)
	if err != nil {
		return 0, err
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("appSettings key %q: %w", key, err)
	}
	return f, nil
}

// Duration returns the value under key as a time.Duration. Values such as
// "30s" or "1h30m" are accepted, as is a bare integer of nanoseconds.
func (s *AppSettings) Duration(key string) (time.Duration, error) {
	v, err := s.Get(key)
	if err != nil {
		return 0, err
	}
	d, err := cast.ToDurationE(v)
	if err != nil {
		return 0, fmt.Errorf("appSettings key %q: %w", key, err)
	}
	return d, nil
}

// SetComment attaches a comment above the entry for key. An empty text
// removes it.
func (s *AppSettings) SetComment(key, text string) error {
	add, err := s.entry(key)
	if err != nil {
		return err
	}
	setComment(add, text)
	return nil
}

// Comment returns the comment above the entry for key, if any.
func (s *AppSettings) Comment(key string) (string, error) {
	add, err := s.entry(key)
	if err != nil {
		return "", err
	}
	return commentText(add), nil
}

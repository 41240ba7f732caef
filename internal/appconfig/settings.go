package appconfig

import (
	"fmt"
	"sort"

	"github.com/beevik/etree"

	kerrors "github.com/PolarWolf314/confseal/internal/errors"
)

const (
	settingsTag   = "settings"
	stringTag     = "string"
	listTag       = "list"
	dictionaryTag = "dictionary"
)

// Value is a node of a nested settings tree: a StringValue, ListValue or
// DictionaryValue.
type Value interface {
	settingsValue()
}

// StringValue is a leaf setting.
type StringValue string

// ListValue is an ordered sequence of values.
type ListValue []Value

// DictionaryValue maps keys to values.
type DictionaryValue map[string]Value

func (StringValue) settingsValue()     {}
func (ListValue) settingsValue()       {}
func (DictionaryValue) settingsValue() {}

// ReadSettings decodes the children of el as a dictionary. The format is:
//
//	<settings>
//	  <string key="name" value="demo"/>
//	  <list key="hosts">
//	    <string value="a.example.com"/>
//	    <string value="b.example.com"/>
//	  </list>
//	  <dictionary key="limits">
//	    <string key="rps" value="100"/>
//	  </dictionary>
//	</settings>
//
// Entries of a dictionary carry a key attribute; list items do not.
// Duplicate keys keep the last value.
func ReadSettings(el *etree.Element) (DictionaryValue, error) {
	return readDictionary(el, el.Tag)
}

func readDictionary(el *etree.Element, path string) (DictionaryValue, error) {
	dict := DictionaryValue{}
	for _, child := range el.ChildElements() {
		key := child.SelectAttr(keyAttr)
		if key == nil {
			return nil, fmt.Errorf("%w: <%s> under %s has no key", kerrors.ErrInvalidSettings, child.Tag, path)
		}
		v, err := readValue(child, path+"/"+key.Value)
		if err != nil {
			return nil, err
		}
		dict[key.Value] = v
	}
	return dict, nil
}

func readList(el *etree.Element, path string) (ListValue, error) {
	list := ListValue{}
	for i, child := range el.ChildElements() {
		v, err := readValue(child, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, nil
}

func readValue(el *etree.Element, path string) (Value, error) {
	switch el.Tag {
	case stringTag:
		if attr := el.SelectAttr(valueAttr); attr != nil {
			return StringValue(attr.Value), nil
		}
		return StringValue(el.Text()), nil
	case listTag:
		return readList(el, path)
	case dictionaryTag:
		return readDictionary(el, path)
	default:
		return nil, fmt.Errorf("%w: unknown element <%s> at %s", kerrors.ErrInvalidSettings, el.Tag, path)
	}
}

// WriteSettings replaces the children of el with dict. Keys are written in
// sorted order.
func WriteSettings(el *etree.Element, dict DictionaryValue) error {
	for _, child := range el.ChildElements() {
		el.RemoveChild(child)
	}
	return writeDictionary(el, dict)
}

func writeDictionary(el *etree.Element, dict DictionaryValue) error {
	keys := make([]string, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if k == "" {
			return fmt.Errorf("%w: empty key", kerrors.ErrInvalidSettings)
		}
		if err := writeValue(el, k, dict[k]); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}
	return nil
}

// writeValue appends v to parent. An empty key writes a list item.
func writeValue(parent *etree.Element, key string, v Value) error {
	var tag string
	switch v.(type) {
	case StringValue:
		tag = stringTag
	case ListValue:
		tag = listTag
	case DictionaryValue:
		tag = dictionaryTag
	default:
		return fmt.Errorf("%w: unsupported value %T", kerrors.ErrInvalidSettings, v)
	}

	el := parent.CreateElement(tag)
	if key != "" {
		el.CreateAttr(keyAttr, key)
	}

	switch v := v.(type) {
	case StringValue:
		el.CreateAttr(valueAttr, string(v))
	case ListValue:
		for i, item := range v {
			if err := writeValue(el, "", item); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
	case DictionaryValue:
		return writeDictionary(el, v)
	}
	return nil
}

// Settings reads the <settings> tree of a section. A section without one
// yields an empty dictionary.
func (d *Document) Settings(sectionName string) (DictionaryValue, error) {
	section, err := d.plainSection(sectionName, false)
	if err != nil {
		return nil, err
	}
	if section == nil {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrSectionNotFound, sectionName)
	}
	el := section.SelectElement(settingsTag)
	if el == nil {
		return DictionaryValue{}, nil
	}
	return ReadSettings(el)
}

// SetSettings replaces the <settings> tree of a section, creating the
// section if needed.
func (d *Document) SetSettings(sectionName string, dict DictionaryValue) error {
	fresh := etree.NewElement(settingsTag)
	if err := WriteSettings(fresh, dict); err != nil {
		return err
	}

	section, err := d.plainSection(sectionName, true)
	if err != nil {
		return err
	}

	if old := section.SelectElement(settingsTag); old != nil {
		idx := old.Index()
		section.RemoveChildAt(idx)
		section.InsertChildAt(idx, fresh)
		return nil
	}
	section.AddChild(fresh)
	return nil
}

package appconfig

import (
	"strings"

	"github.com/beevik/etree"
)

// precedingComment returns the comment directly above el, skipping only
// whitespace between them.
func precedingComment(el *etree.Element) *etree.Comment {
	parent := el.Parent()
	if parent == nil {
		return nil
	}
	for i := el.Index() - 1; i >= 0; i-- {
		switch tok := parent.Child[i].(type) {
		case *etree.CharData:
			if tok.IsWhitespace() {
				continue
			}
			return nil
		case *etree.Comment:
			return tok
		default:
			return nil
		}
	}
	return nil
}

func commentText(el *etree.Element) string {
	if c := precedingComment(el); c != nil {
		return strings.TrimSpace(c.Data)
	}
	return ""
}

// setComment places text in a comment above el, replacing an existing one.
// An empty text removes the comment.
func setComment(el *etree.Element, text string) {
	text = strings.TrimSpace(text)
	existing := precedingComment(el)

	switch {
	case existing != nil && text == "":
		el.Parent().RemoveChildAt(existing.Index())
	case existing != nil:
		existing.Data = " " + text + " "
	case text != "":
		el.Parent().InsertChildAt(el.Index(), etree.NewComment(" "+text+" "))
	}
}

// removeWithComment detaches el together with its comment.
func removeWithComment(el *etree.Element) {
	parent := el.Parent()
	if c := precedingComment(el); c != nil {
		parent.RemoveChildAt(c.Index())
	}
	parent.RemoveChild(el)
}

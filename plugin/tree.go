package plugin

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"
)

// Element is a generic XML element. Children are grouped by element name and
// always held in a slice, in document order, so repeated siblings and single
// occurrences look the same to the walker.
type Element struct {
	Name     string
	Attrs    map[string]string
	Children map[string][]*Element
	Text     string
}

// Child returns the first child element with the given name, or nil.
func (e *Element) Child(name string) *Element {
	if e == nil {
		return nil
	}
	if children := e.Children[name]; len(children) > 0 {
		return children[0]
	}
	return nil
}

// All returns every child element with the given name.
func (e *Element) All(name string) []*Element {
	if e == nil {
		return nil
	}
	return e.Children[name]
}

// HasAttrs reports whether the element carries at least one attribute.
func (e *Element) HasAttrs() bool {
	return e != nil && len(e.Attrs) > 0
}

// stringAttr returns the named attribute, or def when it is absent or empty.
func stringAttr(e *Element, name, def string) string {
	if e == nil {
		return def
	}
	if v, ok := e.Attrs[name]; ok && v != "" {
		return v
	}
	return def
}

// intAttr returns the named attribute as an integer, or def when it is
// absent or not numeric. A leading integer is accepted ("12ms" is 12).
func intAttr(e *Element, name string, def int) int {
	v := strings.TrimSpace(stringAttr(e, name, ""))
	if v == "" {
		return def
	}
	end := 0
	for end < len(v) && (v[end] >= '0' && v[end] <= '9' || end == 0 && (v[end] == '-' || v[end] == '+')) {
		end++
	}
	n, err := strconv.Atoi(v[:end])
	if err != nil {
		return def
	}
	return n
}

// ParseXML reads an XML document into an Element tree. The returned element
// is a nameless document node whose children are the root elements.
func ParseXML(r io.Reader) (*Element, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel

	doc := newElement("")
	stack := []*Element{doc}
	text := []*bytes.Buffer{new(bytes.Buffer)}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := newElement(t.Name.Local)
			for _, attr := range t.Attr {
				el.Attrs[attr.Name.Local] = attr.Value
			}
			parent := stack[len(stack)-1]
			parent.Children[el.Name] = append(parent.Children[el.Name], el)
			stack = append(stack, el)
			text = append(text, new(bytes.Buffer))
		case xml.CharData:
			text[len(text)-1].Write(t)
		case xml.EndElement:
			el := stack[len(stack)-1]
			if s := text[len(text)-1].String(); strings.TrimSpace(s) != "" {
				el.Text = s
			}
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
		}
	}

	if len(doc.Children) == 0 {
		return nil, errors.New("document has no root element")
	}
	return doc, nil
}

func newElement(name string) *Element {
	return &Element{
		Name:     name,
		Attrs:    map[string]string{},
		Children: map[string][]*Element{},
	}
}

package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Element is one renderable target.
type Element struct {
	doc    *Document
	node   *html.Node
	index  int
	layout Rect
	props  Props
}

// Index is the element's position in document order.
func (e *Element) Index() int { return e.index }

// Tag returns the element name.
func (e *Element) Tag() string { return e.node.Data }

// Attr returns an attribute value.
func (e *Element) Attr(key string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// ID returns the id attribute.
func (e *Element) ID() string {
	v, _ := e.Attr("id")
	return v
}

// Classes returns the class list.
func (e *Element) Classes() []string {
	v, _ := e.Attr("class")
	return strings.Fields(v)
}

// Text returns the concatenated text content.
func (e *Element) Text() string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return strings.Join(strings.Fields(b.String()), " ")
}

// Describe renders a short selector-like label, e.g. "h2#title.heading".
func (e *Element) Describe() string {
	var b strings.Builder
	b.WriteString(e.Tag())
	if id := e.ID(); id != "" {
		b.WriteString("#" + id)
	}
	for _, c := range e.Classes() {
		b.WriteString("." + c)
	}
	return b.String()
}

// Bounds reads the element's layout box. Every call is counted as a layout
// read on the owning document.
func (e *Element) Bounds() Rect {
	e.doc.layoutReads++
	return e.layout
}

// Layout returns the layout box without counting a layout read. It is
// for renderers and reports, not for trigger measurement.
func (e *Element) Layout() Rect { return e.layout }

// SetBounds replaces the layout box, as a reflow would.
func (e *Element) SetBounds(r Rect) { e.layout = r }

// Get returns a property's current value, falling back to its rest value.
func (e *Element) Get(name string) float64 {
	if v, ok := e.props[name]; ok {
		return v
	}
	return rest[name]
}

// Set assigns a property.
func (e *Element) Set(name string, v float64) error {
	if !Supported(name) {
		return &UnsupportedPropertyError{Property: name}
	}
	e.props[name] = v
	return nil
}

// Apply assigns every property in p, skipping unsupported names. It returns
// the first unsupported-property error, if any.
func (e *Element) Apply(p Props) error {
	var first error
	for k, v := range p {
		if err := e.Set(k, v); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Props returns a copy of the explicitly set properties.
func (e *Element) Props() Props { return e.props.Clone() }

// Current returns the current value of every supported property.
func (e *Element) Current() Props {
	out := rest.Clone()
	for k, v := range e.props {
		out[k] = v
	}
	return out
}

// AtRest reports whether every property equals its rest value.
func (e *Element) AtRest() bool {
	for k, v := range e.props {
		if v != rest[k] {
			return false
		}
	}
	return true
}

// Contains reports whether other is a strict descendant of e.
func (e *Element) Contains(other *Element) bool {
	for n := other.node.Parent; n != nil; n = n.Parent {
		if n == e.node {
			return true
		}
	}
	return false
}

// NthOfType is the 1-based position among siblings with the same tag.
func (e *Element) NthOfType() int {
	n := 1
	for s := e.node.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode && s.Data == e.node.Data {
			n++
		}
	}
	return n
}

// Package dom is the renderable-target model: an HTML document whose
// elements carry layout boxes and numeric render properties.
//
// Layout comes from data attributes (data-top, data-left, data-width,
// data-height, in document pixels). Missing values inherit the parent's
// top, left and width; height defaults to zero.
package dom

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Rect is a layout box in document coordinates.
type Rect struct {
	Top, Left, Width, Height float64
}

// Bottom returns the box's bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Document owns every element parsed from one page.
type Document struct {
	root        *html.Node
	elements    []*Element
	byNode      map[*html.Node]*Element
	layoutReads int
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	d := &Document{root: root, byNode: make(map[*html.Node]*Element)}
	d.index(root, Rect{})
	return d, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Load parses the HTML file at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func (d *Document) index(n *html.Node, parent Rect) {
	box := parent
	if n.Type == html.ElementNode {
		box = Rect{Top: parent.Top, Left: parent.Left, Width: parent.Width}
		box.Top = attrFloat(n, "data-top", box.Top)
		box.Left = attrFloat(n, "data-left", box.Left)
		box.Width = attrFloat(n, "data-width", box.Width)
		box.Height = attrFloat(n, "data-height", 0)

		el := &Element{
			doc:    d,
			node:   n,
			index:  len(d.elements),
			layout: box,
			props:  make(Props),
		}
		d.elements = append(d.elements, el)
		d.byNode[n] = el
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.index(c, box)
	}
}

func attrFloat(n *html.Node, key string, def float64) float64 {
	for _, a := range n.Attr {
		if a.Key == key {
			v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(a.Val), "px"), 64)
			if err == nil {
				return v
			}
		}
	}
	return def
}

// Elements returns every element in document order.
func (d *Document) Elements() []*Element {
	out := make([]*Element, len(d.elements))
	copy(out, d.elements)
	return out
}

// LayoutReads counts geometry reads through Element.Bounds.
func (d *Document) LayoutReads() int { return d.layoutReads }

// Height is the scrollable document height: the lowest element bottom.
func (d *Document) Height() float64 {
	h := 0.0
	for _, el := range d.elements {
		if b := el.layout.Bottom(); b > h {
			h = b
		}
	}
	return h
}

// Query returns the elements matching selector, in document order.
func (d *Document) Query(selector string) ([]*Element, error) {
	return d.query(d.root, selector)
}

// QueryWithin is Query restricted to descendants of scope. A nil scope
// searches the whole document.
func (d *Document) QueryWithin(scope *Element, selector string) ([]*Element, error) {
	if scope == nil {
		return d.Query(selector)
	}
	return d.query(scope.node, selector)
}

// First returns the first element matching selector, or nil.
func (d *Document) First(selector string) (*Element, error) {
	els, err := d.Query(selector)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}

// Compile checks that selector is valid without running it.
func Compile(selector string) error {
	_, err := cascadia.Parse(selector)
	if err != nil {
		return fmt.Errorf("selector %q: %w", selector, err)
	}
	return nil
}

func (d *Document) query(from *html.Node, selector string) ([]*Element, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return nil, fmt.Errorf("selector %q: %w", selector, err)
	}
	nodes := cascadia.QueryAll(from, sel)
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		if el, ok := d.byNode[n]; ok {
			out = append(out, el)
		}
	}
	return out, nil
}

// Package section models the rendered HTML sections the platform returns.
// The storefront never re-renders whole pages: it fetches a named section,
// locates a region inside it, and swaps that region into the live document,
// leaving untouched subtrees (and their state) alone.
package section

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Doc wraps a parsed HTML fragment or document.
type Doc struct {
	root *html.Node
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Doc, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing section markup: %w", err)
	}
	return &Doc{root: root}, nil
}

// ParseString parses an HTML document from a string.
func ParseString(s string) (*Doc, error) {
	return Parse(strings.NewReader(s))
}

// MustParse parses markup known to be valid at compile time (tests, fixtures).
func MustParse(s string) *Doc {
	d, err := ParseString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Find returns the first node matching the selector, or nil.
func (d *Doc) Find(selector string) *html.Node {
	sel, err := parseSelector(selector)
	if err != nil {
		return nil
	}
	return findFirst(d.root, sel)
}

// FindAll returns every node matching the selector, in document order.
func (d *Doc) FindAll(selector string) []*html.Node {
	sel, err := parseSelector(selector)
	if err != nil {
		return nil
	}
	var out []*html.Node
	walk(d.root, func(n *html.Node) bool {
		if sel.matches(n, d.root) {
			out = append(out, n)
		}
		return false
	})
	return out
}

// Has reports whether any node matches the selector.
func (d *Doc) Has(selector string) bool {
	return d.Find(selector) != nil
}

// ReplaceRegion swaps the first region matching selector in d with the
// corresponding region from src. Missing regions on either side are treated
// as "feature not present" and the call is a no-op; it reports whether a
// swap happened.
func (d *Doc) ReplaceRegion(src *Doc, selector string) bool {
	oldNode := d.Find(selector)
	newNode := src.Find(selector)
	if oldNode == nil || newNode == nil {
		return false
	}
	detach(newNode)
	oldNode.Parent.InsertBefore(newNode, oldNode)
	oldNode.Parent.RemoveChild(oldNode)
	return true
}

// InnerHTML renders the children of the first node matching selector.
func (d *Doc) InnerHTML(selector string) (string, bool) {
	n := d.Find(selector)
	if n == nil {
		return "", false
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		html.Render(&b, c)
	}
	return b.String(), true
}

// SetInnerHTML replaces the children of the first node matching selector
// with the given fragment. Reports whether the target existed.
func (d *Doc) SetInnerHTML(selector, fragment string) bool {
	n := d.Find(selector)
	if n == nil {
		return false
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), n)
	if err != nil {
		return false
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	for _, child := range nodes {
		n.AppendChild(child)
	}
	return true
}

// Text returns the concatenated text content of the first matching node.
func (d *Doc) Text(selector string) (string, bool) {
	n := d.Find(selector)
	if n == nil {
		return "", false
	}
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return false
	})
	return strings.TrimSpace(b.String()), true
}

// Attr returns the named attribute of the first matching node.
func (d *Doc) Attr(selector, name string) (string, bool) {
	n := d.Find(selector)
	if n == nil {
		return "", false
	}
	return attrValue(n, name)
}

// DataAttr returns the data-* attribute of the first matching node, e.g.
// DataAttr("#shopify-section-side-cart [data-totalqty]", "totalqty").
func (d *Doc) DataAttr(selector, name string) (string, bool) {
	return d.Attr(selector, "data-"+name)
}

// Render serializes the whole document.
func (d *Doc) Render() string {
	var b strings.Builder
	html.Render(&b, d.root)
	return b.String()
}

// walk visits every node depth-first; visit returning true stops the walk.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if visit(n) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if walk(c, visit) {
			return true
		}
	}
	return false
}

func findFirst(root *html.Node, sel selector) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if sel.matches(n, root) {
			found = n
			return true
		}
		return false
	})
	return found
}

func attrValue(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

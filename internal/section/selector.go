package section

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// The storefront's region selectors are a small, fixed vocabulary: ids,
// classes, tags, attribute presence/equality, and descendant chains. A full
// CSS engine would be wasted on it.

// simpleSelector matches one compound term like "form.f8pr" or
// "[data-totalqty]".
type simpleSelector struct {
	tag     string
	id      string
	classes []string
	attrs   []attrTerm
}

type attrTerm struct {
	key   string
	value string // empty means presence-only
	eq    bool
}

// selector is a descendant chain of compound terms.
type selector struct {
	parts []simpleSelector
}

func parseSelector(s string) (selector, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return selector{}, fmt.Errorf("empty selector")
	}
	var sel selector
	for _, f := range fields {
		part, err := parseSimple(f)
		if err != nil {
			return selector{}, err
		}
		sel.parts = append(sel.parts, part)
	}
	return sel, nil
}

func parseSimple(s string) (simpleSelector, error) {
	var out simpleSelector
	i := 0
	readName := func() string {
		start := i
		for i < len(s) && s[i] != '.' && s[i] != '#' && s[i] != '[' {
			i++
		}
		return s[start:i]
	}
	if i < len(s) && s[i] != '.' && s[i] != '#' && s[i] != '[' {
		out.tag = strings.ToLower(readName())
	}
	for i < len(s) {
		switch s[i] {
		case '.':
			i++
			out.classes = append(out.classes, readName())
		case '#':
			i++
			out.id = readName()
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return out, fmt.Errorf("unterminated attribute selector %q", s)
			}
			body := s[i+1 : i+end]
			i += end + 1
			if k, v, ok := strings.Cut(body, "="); ok {
				out.attrs = append(out.attrs, attrTerm{key: k, value: strings.Trim(v, `"'`), eq: true})
			} else {
				out.attrs = append(out.attrs, attrTerm{key: body})
			}
		default:
			return out, fmt.Errorf("unexpected character %q in selector %q", s[i], s)
		}
	}
	return out, nil
}

func (s simpleSelector) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && n.Data != s.tag {
		return false
	}
	if s.id != "" {
		id, ok := attrValue(n, "id")
		if !ok || id != s.id {
			return false
		}
	}
	if len(s.classes) > 0 {
		cls, _ := attrValue(n, "class")
		have := strings.Fields(cls)
		for _, want := range s.classes {
			found := false
			for _, c := range have {
				if c == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	for _, a := range s.attrs {
		v, ok := attrValue(n, a.key)
		if !ok {
			return false
		}
		if a.eq && v != a.value {
			return false
		}
	}
	return true
}

// matches reports whether n satisfies the full descendant chain, with root
// as the search boundary.
func (sel selector) matches(n *html.Node, root *html.Node) bool {
	last := len(sel.parts) - 1
	if !sel.parts[last].matches(n) {
		return false
	}
	// Each earlier part must match some ancestor, in order.
	part := last - 1
	for anc := n.Parent; anc != nil && part >= 0; anc = anc.Parent {
		if anc == root.Parent {
			break
		}
		if sel.parts[part].matches(anc) {
			part--
		}
	}
	return part < 0
}

package scrape

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// compound matches one element: optional tag, optional #id, any .classes.
type compound struct {
	tag     string
	id      string
	classes []string
}

// chain is a descendant selector such as "p.testPrice span".
type chain []compound

// Selector is a comma-separated list of descendant chains, e.g.
// "p.testPrice span, span.testPrice". It covers the subset of CSS the lab
// pages need.
type Selector []chain

// ParseSelector parses s. Empty alternatives are ignored.
func ParseSelector(s string) Selector {
	var sel Selector
	for _, alt := range strings.Split(s, ",") {
		var ch chain
		for _, part := range strings.Fields(alt) {
			ch = append(ch, parseCompound(part))
		}
		if len(ch) > 0 {
			sel = append(sel, ch)
		}
	}
	return sel
}

func parseCompound(s string) compound {
	var c compound
	// Split on '.' and '#' while remembering which delimiter opened each token.
	start, kind := 0, byte(0)
	flush := func(end int) {
		tok := s[start:end]
		if tok == "" {
			return
		}
		switch kind {
		case '.':
			c.classes = append(c.classes, tok)
		case '#':
			c.id = tok
		default:
			c.tag = strings.ToLower(tok)
		}
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '.' || s[i] == '#' {
			flush(i)
			start, kind = i+1, s[i]
		}
	}
	flush(len(s))
	return c
}

func (c compound) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if c.tag != "" && c.tag != "*" && n.Data != c.tag {
		return false
	}
	if c.id != "" && attr(n, "id") != c.id {
		return false
	}
	if len(c.classes) > 0 {
		have := strings.Fields(attr(n, "class"))
		for _, want := range c.classes {
			if !slices.Contains(have, want) {
				return false
			}
		}
	}
	return true
}

// matches reports whether n satisfies the chain with all ancestors below root.
func (ch chain) matches(n, root *html.Node) bool {
	last := len(ch) - 1
	if !ch[last].matches(n) {
		return false
	}
	i := last - 1
	for p := n.Parent; i >= 0 && p != nil && p != root; p = p.Parent {
		if ch[i].matches(p) {
			i--
		}
	}
	return i < 0
}

// All returns the descendants of root matching any alternative, in document order.
func (s Selector) All(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			for _, ch := range s {
				if ch.matches(c, root) {
					out = append(out, c)
					break
				}
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// First tries the alternatives in order and returns the first node matched
// by the earliest alternative that matches anything, or nil.
func (s Selector) First(root *html.Node) *html.Node {
	for _, ch := range s {
		if n := (Selector{ch}).All(root); len(n) > 0 {
			return n[0]
		}
	}
	return nil
}

// Text returns the text content of n with whitespace collapsed.
func Text(n *html.Node) string {
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
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

package page

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ErrInvalidSelector is returned when a selector cannot be parsed.
var ErrInvalidSelector = errors.New("invalid selector")

// Document is the mutable page markup. It is safe for concurrent use.
type Document struct {
	mu  sync.RWMutex
	doc *goquery.Document
}

// NewDocument parses markup into a Document. Fragments are wrapped into a
// full html/head/body tree by the parser.
func NewDocument(markup string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{doc: doc}, nil
}

// MustDocument is like NewDocument but panics on error.
func MustDocument(markup string) *Document {
	d, err := NewDocument(markup)
	if err != nil {
		panic(err)
	}
	return d
}

func compile(selector string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSelector, selector, err)
	}
	return sel, nil
}

// ReplaceContent sets the inner HTML of every node matching selector and
// returns the number of matched nodes. Zero matches is not an error.
// The content is inserted verbatim.
func (d *Document) ReplaceContent(selector, content string) (int, error) {
	sel, err := compile(selector)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	matched := d.doc.FindMatcher(sel)
	if matched.Length() == 0 {
		return 0, nil
	}
	matched.SetHtml(content)
	return matched.Length(), nil
}

// Count returns how many nodes match selector.
func (d *Document) Count(selector string) int {
	sel, err := compile(selector)
	if err != nil {
		return 0
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc.FindMatcher(sel).Length()
}

// InnerHTML returns the inner HTML of the first node matching selector.
func (d *Document) InnerHTML(selector string) (string, bool) {
	sel, err := compile(selector)
	if err != nil {
		return "", false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	first := d.doc.FindMatcher(sel).First()
	if first.Length() == 0 {
		return "", false
	}
	out, err := first.Html()
	if err != nil {
		return "", false
	}
	return out, true
}

// Text returns the combined text content of the nodes matching selector.
func (d *Document) Text(selector string) string {
	sel, err := compile(selector)
	if err != nil {
		return ""
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc.FindMatcher(sel).Text()
}

// HTML renders the whole document.
func (d *Document) HTML() (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc.Html()
}

// node returns the first node matching selector, or nil.
func (d *Document) node(selector string) *html.Node {
	sel, err := compile(selector)
	if err != nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	found := d.doc.FindMatcher(sel)
	if found.Length() == 0 {
		return nil
	}
	return found.Get(0)
}

// elementChildren lists the element children of n.
func elementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// move relocates the element child at index from to index to within parent,
// the way a drag-reorder list does. It returns the moved node.
func (d *Document) move(parent *html.Node, from, to int) (*html.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	children := elementChildren(parent)
	if from < 0 || from >= len(children) || to < 0 || to >= len(children) {
		return nil, fmt.Errorf("index out of range: from=%d to=%d len=%d", from, to, len(children))
	}
	moved := children[from]
	if from == to {
		return moved, nil
	}

	parent.RemoveChild(moved)
	remaining := elementChildren(parent)
	if to >= len(remaining) {
		parent.AppendChild(moved)
	} else {
		parent.InsertBefore(moved, remaining[to])
	}
	return moved, nil
}

// attached reports whether n is still part of the document tree.
func (d *Document) attached(n *html.Node) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	root := d.doc.Get(0)
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

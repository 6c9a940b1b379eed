package dom

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// invisible lists elements whose text never counts as visible page text.
var invisible = map[string]struct{}{
	"script":   {},
	"style":    {},
	"template": {},
	"noscript": {},
}

// matchers caches compiled selectors; extractors reuse a handful of
// constant selectors on every document.
var matchers sync.Map // string -> cascadia.Selector

func compile(selector string) (cascadia.Selector, error) {
	if m, ok := matchers.Load(selector); ok {
		return m.(cascadia.Selector), nil
	}
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, err
	}
	matchers.Store(selector, m)
	return m, nil
}

// Document is a parsed HTML document backed by goquery.
type Document struct {
	doc *goquery.Document
}

// Parse parses an HTML string. The parser is lenient: malformed markup is
// repaired rather than rejected.
func Parse(rawHTML string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}
	return &Document{doc: doc}, nil
}

// Root returns the document node.
func (d *Document) Root() Node {
	return Wrap(d.doc.Selection)
}

// Body returns the <body> element, or nil if the document has none.
func (d *Document) Body() Node {
	body := d.doc.Find("body").First()
	if body.Length() == 0 {
		return nil
	}
	return Wrap(body)
}

// HTML serializes the whole (possibly modified) document.
func (d *Document) HTML() (string, error) {
	return d.doc.Html()
}

// Wrap adapts a goquery selection. Only the first node of the selection is
// used.
func Wrap(s *goquery.Selection) Node {
	return &selection{s: s.First()}
}

type selection struct {
	s *goquery.Selection
}

func (n *selection) node() *html.Node {
	if len(n.s.Nodes) == 0 {
		return nil
	}
	return n.s.Nodes[0]
}

func (n *selection) Tag() string {
	return strings.ToLower(goquery.NodeName(n.s))
}

func (n *selection) Attr(name string) (string, bool) {
	return n.s.Attr(name)
}

func (n *selection) Classes() []string {
	class, _ := n.s.Attr("class")
	return strings.Fields(class)
}

func (n *selection) Find(selector string) []Node {
	m, err := compile(selector)
	if err != nil {
		return nil
	}
	return wrapAll(n.s.FindMatcher(m))
}

func (n *selection) FindTags(names ...string) []Node {
	if len(names) == 0 {
		return nil
	}
	return n.Find(strings.Join(names, ", "))
}

func (n *selection) Descendants() []Node {
	return n.Find("*")
}

func (n *selection) Text() string {
	var parts []string
	walkText(n.node(), func(text string) {
		if t := strings.TrimSpace(text); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}

func (n *selection) InnerText() string {
	var buf strings.Builder
	walkText(n.node(), func(text string) {
		buf.WriteString(text)
	})
	return strings.TrimSpace(buf.String())
}

func (n *selection) OuterHTML() (string, error) {
	if n.node() != nil && n.node().Type == html.DocumentNode {
		return n.s.Html()
	}
	return goquery.OuterHtml(n.s)
}

func (n *selection) Remove() {
	n.s.Remove()
}

func wrapAll(s *goquery.Selection) []Node {
	nodes := make([]Node, 0, s.Length())
	s.Each(func(_ int, el *goquery.Selection) {
		nodes = append(nodes, &selection{s: el})
	})
	return nodes
}

// walkText calls fn for every text node under root in document order,
// skipping invisible subtrees.
func walkText(root *html.Node, fn func(string)) {
	if root == nil {
		return
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			fn(n.Data)
			return
		case html.ElementNode:
			if _, skip := invisible[strings.ToLower(n.Data)]; skip {
				return
			}
		case html.CommentNode, html.DoctypeNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}

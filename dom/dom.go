// Package dom adapts a parsed HTML document to the small set of queries the
// extractors need. Everything downstream talks to Node, never to the parsing
// library directly.
package dom

// Node is one element (or the document root) of a parsed tree.
type Node interface {
	// Tag returns the lowercase tag name, or "#document" for the root.
	Tag() string

	// Attr returns the named attribute and whether it is present.
	Attr(name string) (string, bool)

	// Classes returns the whitespace-separated tokens of the class attribute.
	Classes() []string

	// Find returns descendants matching a CSS selector, in document order.
	// The node itself is never included.
	Find(selector string) []Node

	// FindTags returns descendants with any of the given tag names, in
	// document order.
	FindTags(names ...string) []Node

	// Descendants returns every descendant element in document order.
	Descendants() []Node

	// Text returns the visible text nodes of the subtree, each trimmed,
	// joined by single spaces.
	Text() string

	// InnerText returns the concatenated visible text of the subtree with
	// surrounding whitespace trimmed.
	InnerText() string

	// OuterHTML serializes the subtree including the node itself.
	OuterHTML() (string, error)

	// Remove detaches the node from its parent.
	Remove()
}

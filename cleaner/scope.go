package cleaner

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/use-agent/lyftr/dom"
)

// ValidateSelector reports whether selector is a usable CSS selector
// group.
func ValidateSelector(selector string) error {
	_, err := cascadia.ParseGroup(selector)
	return err
}

// scopeTo re-parses the outer HTML of every element matching selector as a
// standalone document. It reports false when nothing matches, in which case
// the caller keeps the full document.
func scopeTo(root dom.Node, selector string) (*dom.Document, bool) {
	matches := root.Find(selector)
	if len(matches) == 0 {
		return nil, false
	}

	var buf strings.Builder
	for _, m := range matches {
		h, err := m.OuterHTML()
		if err != nil {
			continue
		}
		buf.WriteString(h)
	}

	doc, err := dom.Parse(buf.String())
	if err != nil {
		return nil, false
	}
	return doc, true
}

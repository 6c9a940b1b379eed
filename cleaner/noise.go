package cleaner

import (
	"log/slog"
	"strings"

	"github.com/use-agent/lyftr/dom"
)

// noiseKeywords flag cookie banners, consent dialogs, popups and newsletter
// prompts. Matched case-insensitively as substrings.
var noiseKeywords = []string{
	"cookie", "consent", "banner", "gdpr",
	"modal", "popup", "subscribe", "newsletter",
}

// noiseSampleLen is how much leading visible text is inspected per element.
const noiseSampleLen = 80

// structuralTags are never removed: dropping them would discard the whole
// document rather than a noisy region of it.
var structuralTags = map[string]struct{}{
	"html": {},
	"head": {},
	"body": {},
}

// IsNoise reports whether the element's class list, id, or leading visible
// text contains one of the noise keywords.
func IsNoise(n dom.Node) bool {
	class := strings.ToLower(strings.Join(n.Classes(), " "))
	id, _ := n.Attr("id")
	id = strings.ToLower(id)
	sample := truncateRunes(strings.ToLower(n.Text()), noiseSampleLen)

	for _, kw := range noiseKeywords {
		if strings.Contains(class, kw) || strings.Contains(id, kw) || strings.Contains(sample, kw) {
			return true
		}
	}
	return false
}

// RemoveNoise deletes every noisy element under root in place and returns
// how many subtrees were removed.
//
// The element list is captured up front and visited deepest-first, so a
// banner nested inside real content is removed before its ancestors are
// sampled and never drags them out with it.
func RemoveNoise(root dom.Node) int {
	nodes := root.Descendants()
	removed := 0
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if _, ok := structuralTags[n.Tag()]; ok {
			continue
		}
		if checkNoise(n) {
			n.Remove()
			removed++
		}
	}
	return removed
}

// checkNoise evaluates one element; a panic while inspecting it only skips
// that element.
func checkNoise(n dom.Node) (noisy bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("noise filter: skipping element", "tag", n.Tag(), "panic", r)
			noisy = false
		}
	}()
	return IsNoise(n)
}

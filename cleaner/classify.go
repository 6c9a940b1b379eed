package cleaner

import (
	"strings"

	"github.com/use-agent/lyftr/dom"
	"github.com/use-agent/lyftr/models"
)

const (
	maxLabelLen   = 80
	labelWords    = 7
	fallbackLabel = "Section"
)

// Classify assigns a section type. The first matching rule wins:
// header, nav, footer by tag; pricing, faq, grid by class; section and
// main by tag; anything else is unknown.
func Classify(n dom.Node) models.SectionType {
	tag := n.Tag()
	class := strings.ToLower(strings.Join(n.Classes(), " "))

	switch {
	case tag == "header":
		return models.SectionHero
	case tag == "nav":
		return models.SectionNav
	case tag == "footer":
		return models.SectionFooter
	case strings.Contains(class, "pricing"):
		return models.SectionPricing
	case strings.Contains(class, "faq"):
		return models.SectionFAQ
	case strings.Contains(class, "grid"):
		return models.SectionGrid
	case tag == "section" || tag == "main":
		return models.SectionSection
	default:
		return models.SectionUnknown
	}
}

// DeriveLabel picks a short human label: the first heading, else the first
// seven words of text, else "Section".
func DeriveLabel(headings []string, text string) string {
	if len(headings) > 0 {
		return truncateRunes(headings[0], maxLabelLen)
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return fallbackLabel
	}
	if len(words) > labelWords {
		words = words[:labelWords]
	}
	return strings.Join(words, " ")
}

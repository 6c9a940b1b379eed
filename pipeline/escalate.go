package pipeline

import (
	"unicode/utf8"

	"github.com/use-agent/lyftr/models"
)

// NeedsRender reports whether static extraction was too thin to trust:
// no sections at all, or fewer than threshold characters of section text
// in total.
func NeedsRender(sections []models.Section, threshold int) bool {
	if len(sections) == 0 {
		return true
	}
	total := 0
	for _, s := range sections {
		total += utf8.RuneCountInString(s.Content.Text)
		if total >= threshold {
			return false
		}
	}
	return total < threshold
}

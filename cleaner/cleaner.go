package cleaner

import (
	"fmt"
	"log/slog"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/use-agent/lyftr/dom"
	"github.com/use-agent/lyftr/models"
)

// Cleaner turns raw HTML into metadata and labeled sections:
//
//	noise filter → metadata → (optional scoping) → segmentation
//
// It holds no per-request state and is safe for concurrent use.
type Cleaner struct {
	mdConverter *converter.Converter
}

// NewCleaner initialises the Cleaner with a shared Markdown converter.
func NewCleaner() *Cleaner {
	return &Cleaner{
		mdConverter: newMarkdownConverter(),
	}
}

// Options tunes one extraction.
type Options struct {
	// RawHTMLLimit caps Section.RawHTML in characters. Default: 2000.
	RawHTMLLimit int

	// CSSSelector restricts segmentation to matching subtrees. Metadata is
	// still read from the full document. Must already be validated.
	CSSSelector string

	// Markdown fills Section.Markdown.
	Markdown bool
}

func (o Options) withDefaults() Options {
	if o.RawHTMLLimit <= 0 {
		o.RawHTMLLimit = DefaultRawHTMLLimit
	}
	return o
}

// Extract parses rawHTML and runs the full static extraction. Any panic
// raised while walking the tree is returned as an error.
func (c *Cleaner) Extract(rawHTML, baseURL string, opts Options) (meta models.MetaInfo, sections []models.Section, err error) {
	defer func() {
		if r := recover(); r != nil {
			meta, sections = models.EmptyMeta(), nil
			err = fmt.Errorf("extraction panicked: %v", r)
		}
	}()

	doc, err := dom.Parse(rawHTML)
	if err != nil {
		return models.EmptyMeta(), nil, fmt.Errorf("parse html: %w", err)
	}
	root := doc.Root()

	removed := RemoveNoise(root)
	meta = ExtractMeta(root, baseURL)

	if opts.CSSSelector != "" {
		if scoped, ok := scopeTo(root, opts.CSSSelector); ok {
			root = scoped.Root()
		} else {
			slog.Debug("extract: selector matched nothing, using full document",
				"url", baseURL, "selector", opts.CSSSelector)
		}
	}

	sections = c.BuildSections(root, baseURL, opts)
	slog.Debug("extract: done",
		"url", baseURL,
		"noiseRemoved", removed,
		"sections", len(sections),
	)
	return meta, sections, nil
}

package models

import "time"

// Phase names the pipeline stage an ErrorItem originated from.
type Phase string

const (
	PhaseFetch       Phase = "fetch"
	PhaseParse       Phase = "parse"
	PhaseRender      Phase = "render"
	PhaseInteraction Phase = "interaction"
)

// SectionType is the classification assigned to a content region.
type SectionType string

const (
	SectionHero    SectionType = "hero"
	SectionNav     SectionType = "nav"
	SectionFooter  SectionType = "footer"
	SectionPricing SectionType = "pricing"
	SectionFAQ     SectionType = "faq"
	SectionGrid    SectionType = "grid"
	SectionSection SectionType = "section"
	SectionUnknown SectionType = "unknown"
)

// ScrapeResult is the complete output of one pipeline run.
type ScrapeResult struct {
	URL          string       `json:"url"`
	ScrapedAt    time.Time    `json:"scrapedAt"`
	Meta         MetaInfo     `json:"meta"`
	Sections     []Section    `json:"sections"`
	Interactions Interactions `json:"interactions"`
	Errors       []ErrorItem  `json:"errors"`
}

// MetaInfo holds head-level page metadata.
type MetaInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`

	// Canonical is the absolute canonical URL, nil when the page declares none.
	Canonical *string `json:"canonical"`
}

// DefaultLanguage is reported when the document declares no <html lang>.
const DefaultLanguage = "en"

// EmptyMeta returns the metadata reported when nothing could be parsed.
func EmptyMeta() MetaInfo {
	return MetaInfo{Language: DefaultLanguage}
}

// Section is a classified, labeled content region of the page.
type Section struct {
	ID        string         `json:"id"`
	Type      SectionType    `json:"type"`
	Label     string         `json:"label"`
	SourceURL string         `json:"sourceUrl"`
	Content   SectionContent `json:"content"`
	RawHTML   string         `json:"rawHtml"`

	// Truncated is true iff RawHTML was cut to the configured cap.
	Truncated bool `json:"truncated"`

	// Markdown is the untruncated subtree rendered as Markdown. Only filled
	// when the request asks for it.
	Markdown string `json:"markdown,omitempty"`
}

// SectionContent is the structured content found inside a section.
type SectionContent struct {
	Headings []string     `json:"headings"`
	Text     string       `json:"text"`
	Links    []LinkItem   `json:"links"`
	Images   []ImageItem  `json:"images"`
	Lists    [][]string   `json:"lists"`
	Tables   [][][]string `json:"tables"`
}

// EmptyContent returns a SectionContent whose slices marshal as [] rather
// than null.
func EmptyContent() SectionContent {
	return SectionContent{
		Headings: []string{},
		Links:    []LinkItem{},
		Images:   []ImageItem{},
		Lists:    [][]string{},
		Tables:   [][][]string{},
	}
}

// LinkItem is an anchor with its href resolved to an absolute URL.
type LinkItem struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// ImageItem is an image with its src resolved to an absolute URL.
type ImageItem struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Interactions records what the renderer did to the page.
type Interactions struct {
	Clicks  []string `json:"clicks"`
	Scrolls int      `json:"scrolls"`
	Pages   []string `json:"pages"`
}

// ErrorItem is an informational, non-fatal failure from one phase.
type ErrorItem struct {
	Message string `json:"message"`
	Phase   Phase  `json:"phase"`
}

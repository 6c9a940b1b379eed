package cleaner

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/use-agent/lyftr/dom"
	"github.com/use-agent/lyftr/models"
)

// DefaultRawHTMLLimit caps Section.RawHTML when no limit is configured.
const DefaultRawHTMLLimit = 2000

// minSectionText is the text length below which a heading-less candidate is
// dropped.
const minSectionText = 20

// candidateTags are scanned in this order; all headers come first, then all
// navs, and so on, regardless of where they sit in the document.
var candidateTags = []string{"header", "nav", "main", "section", "footer"}

// Candidates returns the elements considered for sections. Without any
// semantic landmark it falls back to <body>, or to root itself.
func Candidates(root dom.Node) []dom.Node {
	var nodes []dom.Node
	for _, tag := range candidateTags {
		nodes = append(nodes, root.FindTags(tag)...)
	}
	if len(nodes) > 0 {
		return nodes
	}
	if body := root.FindTags("body"); len(body) > 0 {
		return body[:1]
	}
	return []dom.Node{root}
}

// BuildSections turns every qualifying candidate under root into a Section.
// It does not modify the tree, so running it twice yields the same output.
func (c *Cleaner) BuildSections(root dom.Node, baseURL string, opts Options) []models.Section {
	opts = opts.withDefaults()
	base, _ := url.Parse(baseURL)

	sections := []models.Section{}
	for _, cand := range Candidates(root) {
		headings := extractHeadings(cand)
		text := cand.Text()

		if textLen(text) < minSectionText && len(headings) == 0 {
			continue
		}

		content := models.SectionContent{
			Headings: headings,
			Text:     text,
			Links:    extractLinks(cand, base),
			Images:   extractImages(cand, base),
			Lists:    extractLists(cand),
			Tables:   extractTables(cand),
		}

		outer, err := cand.OuterHTML()
		if err != nil {
			slog.Debug("sections: serialize candidate failed", "tag", cand.Tag(), "error", err)
		}
		raw, truncated := Snippet(outer, opts.RawHTMLLimit)

		secType := Classify(cand)
		sec := models.Section{
			ID:        fmt.Sprintf("%s-%d", secType, len(sections)),
			Type:      secType,
			Label:     DeriveLabel(headings, text),
			SourceURL: baseURL,
			Content:   content,
			RawHTML:   raw,
			Truncated: truncated,
		}
		if opts.Markdown && outer != "" {
			sec.Markdown = c.markdown(outer, baseURL)
		}
		sections = append(sections, sec)
	}
	return sections
}

// Snippet caps rawHTML at limit characters. truncated is true only when
// something was cut.
func Snippet(rawHTML string, limit int) (snippet string, truncated bool) {
	if textLen(rawHTML) > limit {
		return truncateRunes(rawHTML, limit), true
	}
	return rawHTML, false
}

func extractHeadings(n dom.Node) []string {
	headings := []string{}
	for _, h := range n.FindTags("h1", "h2", "h3") {
		if t := h.InnerText(); t != "" {
			headings = append(headings, t)
		}
	}
	return headings
}

func extractLinks(n dom.Node, base *url.URL) []models.LinkItem {
	links := []models.LinkItem{}
	for _, a := range n.Find("a[href]") {
		href, _ := a.Attr("href")
		abs, ok := resolveURL(base, href)
		if !ok {
			continue
		}
		links = append(links, models.LinkItem{Text: a.InnerText(), Href: abs})
	}
	return links
}

func extractImages(n dom.Node, base *url.URL) []models.ImageItem {
	images := []models.ImageItem{}
	for _, img := range n.Find("img[src]") {
		src, _ := img.Attr("src")
		abs, ok := resolveURL(base, src)
		if !ok {
			continue
		}
		alt, _ := img.Attr("alt")
		images = append(images, models.ImageItem{Src: abs, Alt: strings.TrimSpace(alt)})
	}
	return images
}

func extractLists(n dom.Node) [][]string {
	lists := [][]string{}
	for _, list := range n.FindTags("ul", "ol") {
		var items []string
		for _, li := range list.FindTags("li") {
			items = append(items, li.InnerText())
		}
		if len(items) > 0 {
			lists = append(lists, items)
		}
	}
	return lists
}

func extractTables(n dom.Node) [][][]string {
	tables := [][][]string{}
	for _, table := range n.FindTags("table") {
		var rows [][]string
		for _, tr := range table.FindTags("tr") {
			var cells []string
			for _, cell := range tr.FindTags("td", "th") {
				cells = append(cells, cell.InnerText())
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		}
		if len(rows) > 0 {
			tables = append(tables, rows)
		}
	}
	return tables
}

func (c *Cleaner) markdown(rawHTML, baseURL string) string {
	md, err := ToMarkdown(c.mdConverter, rawHTML, baseURL)
	if err != nil {
		slog.Debug("sections: markdown conversion failed", "url", baseURL, "error", err)
		return ""
	}
	return strings.TrimSpace(md)
}

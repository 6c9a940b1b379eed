// Package pipeline turns a URL into a ScrapeResult: static fetch and
// extraction first, a browser render only when the static pass is thin.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/lyftr/cleaner"
	"github.com/use-agent/lyftr/config"
	"github.com/use-agent/lyftr/models"
	"github.com/use-agent/lyftr/scraper"
)

// RenderedDescription fills an empty description when the rendered DOM was used.
const RenderedDescription = "(JS-rendered content used; static fallback insufficient)"

// PlaceholderLabel names the synthetic section of an otherwise empty result.
const PlaceholderLabel = "Page"

// Fetcher retrieves static HTML.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Renderer produces a browser-rendered DOM snapshot. It must not return nil.
type Renderer interface {
	Render(ctx context.Context, url string) *scraper.RenderResult
}

// Extractor parses HTML into metadata and sections.
type Extractor interface {
	Extract(rawHTML, baseURL string, opts cleaner.Options) (models.MetaInfo, []models.Section, error)
}

// Request is one scrape job.
type Request struct {
	URL             string
	CSSSelector     string
	IncludeMarkdown bool
}

// Pipeline is safe for concurrent use; each Run owns its own state.
type Pipeline struct {
	fetcher   Fetcher
	renderer  Renderer
	extractor Extractor
	cfg       config.ScraperConfig
	now       func() time.Time
}

// New builds a Pipeline. Zero RawHTMLLimit or StaticTextThreshold select
// the defaults.
func New(cfg config.ScraperConfig, fetcher Fetcher, renderer Renderer, extractor Extractor) *Pipeline {
	def := config.Defaults().Scraper
	if cfg.RawHTMLLimit <= 0 {
		cfg.RawHTMLLimit = def.RawHTMLLimit
	}
	if cfg.StaticTextThreshold <= 0 {
		cfg.StaticTextThreshold = def.StaticTextThreshold
	}
	return &Pipeline{
		fetcher:   fetcher,
		renderer:  renderer,
		extractor: extractor,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run always returns a result; every failure along the way is recorded in
// its Errors list rather than returned.
func (p *Pipeline) Run(ctx context.Context, req Request) *models.ScrapeResult {
	var errs Errors
	interactions := models.Interactions{Clicks: []string{}, Pages: []string{}}
	meta := models.EmptyMeta()
	var sections []models.Section

	opts := cleaner.Options{RawHTMLLimit: p.cfg.RawHTMLLimit, Markdown: req.IncludeMarkdown}
	if req.CSSSelector != "" {
		if err := cleaner.ValidateSelector(req.CSSSelector); err != nil {
			errs.Add(models.PhaseParse, "invalid css selector %q: %v", req.CSSSelector, err)
		} else {
			opts.CSSSelector = req.CSSSelector
		}
	}

	html, err := p.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		slog.Warn("pipeline: static fetch failed", "url", req.URL, "error", err)
		errs.Add(models.PhaseFetch, "HTTP fetch error: %v", err)
		return p.assemble(req.URL, meta, sections, interactions, &errs, false)
	}

	if m, s, err := p.extractor.Extract(html, req.URL, opts); err != nil {
		slog.Warn("pipeline: static parse failed", "url", req.URL, "error", err)
		errs.Add(models.PhaseParse, "Static parse error: %v", err)
	} else {
		meta, sections = m, s
	}

	if !NeedsRender(sections, p.cfg.StaticTextThreshold) {
		interactions.Pages = []string{req.URL}
		return p.assemble(req.URL, meta, sections, interactions, &errs, false)
	}

	slog.Info("pipeline: escalating to browser render", "url", req.URL, "staticSections", len(sections))
	rendered := p.renderer.Render(ctx, req.URL)
	errs.Append(rendered.Errors...)
	interactions.Clicks = append(interactions.Clicks, rendered.Clicks...)
	interactions.Scrolls = rendered.Scrolls
	interactions.Pages = append(interactions.Pages, rendered.Pages...)
	if len(interactions.Pages) == 0 {
		interactions.Pages = []string{req.URL}
	}

	usedRender := false
	if rendered.HTML != "" {
		usedRender = true
		if m, s, err := p.extractor.Extract(rendered.HTML, req.URL, opts); err != nil {
			slog.Warn("pipeline: rendered parse failed", "url", req.URL, "error", err)
			errs.Add(models.PhaseParse, "JS parse error: %v", err)
		} else {
			meta, sections = m, s
		}
	}

	return p.assemble(req.URL, meta, sections, interactions, &errs, usedRender)
}

func (p *Pipeline) assemble(url string, meta models.MetaInfo, sections []models.Section, interactions models.Interactions, errs *Errors, usedRender bool) *models.ScrapeResult {
	if len(sections) == 0 {
		sections = []models.Section{placeholder(url)}
	}
	if usedRender && meta.Description == "" {
		meta.Description = RenderedDescription
	}
	return &models.ScrapeResult{
		URL:          url,
		ScrapedAt:    p.now().UTC(),
		Meta:         meta,
		Sections:     sections,
		Interactions: interactions,
		Errors:       errs.Items(),
	}
}

func placeholder(url string) models.Section {
	return models.Section{
		ID:        string(models.SectionUnknown) + "-0",
		Type:      models.SectionUnknown,
		Label:     PlaceholderLabel,
		SourceURL: url,
		Content:   models.EmptyContent(),
	}
}

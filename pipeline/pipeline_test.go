package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/lyftr/cleaner"
	"github.com/use-agent/lyftr/config"
	"github.com/use-agent/lyftr/models"
	"github.com/use-agent/lyftr/scraper"
)

type fakeFetcher struct {
	html string
	err  error
}

func (f fakeFetcher) Fetch(context.Context, string) (string, error) { return f.html, f.err }

type fakeRenderer struct {
	result *scraper.RenderResult
	calls  int
}

func (r *fakeRenderer) Render(context.Context, string) *scraper.RenderResult {
	r.calls++
	if r.result == nil {
		return &scraper.RenderResult{}
	}
	return r.result
}

// failingExtractor fails on the listed call numbers (1-based) and
// delegates to the real cleaner otherwise.
type failingExtractor struct {
	failOn map[int]bool
	calls  int
	inner  *cleaner.Cleaner
}

func (e *failingExtractor) Extract(html, baseURL string, opts cleaner.Options) (models.MetaInfo, []models.Section, error) {
	e.calls++
	if e.failOn[e.calls] {
		return models.EmptyMeta(), nil, errors.New("boom")
	}
	return e.inner.Extract(html, baseURL, opts)
}

const pageURL = "https://example.com/"

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))

func newTestPipeline(f Fetcher, r Renderer, x Extractor) *Pipeline {
	if x == nil {
		x = cleaner.NewCleaner()
	}
	p := New(config.Defaults().Scraper, f, r, x)
	p.now = func() time.Time { return fixedNow }
	return p
}

func richPage() string {
	return `<html lang="de"><head><title>Docs</title>
<meta name="description" content="Reference docs"></head>
<body><main><h1>Docs</h1><p>` + strings.Repeat("word ", 120) + `</p></main></body></html>`
}

const shellPage = `<html><head><title>Shell</title></head><body><div id="root"></div></body></html>`

const renderedPage = `<html lang="en"><head><title>App</title></head><body>
<section><h2>Pricing</h2><p>Starter plan includes everything you need.</p></section>
</body></html>`

func TestRun_FetchFailure(t *testing.T) {
	r := &fakeRenderer{}
	p := newTestPipeline(fakeFetcher{err: errors.New("dial tcp: no such host")}, r, nil)

	res := p.Run(context.Background(), Request{URL: pageURL})

	require.Len(t, res.Errors, 1)
	assert.Equal(t, models.PhaseFetch, res.Errors[0].Phase)
	assert.True(t, strings.HasPrefix(res.Errors[0].Message, "HTTP fetch error: "))
	assert.Zero(t, r.calls)

	require.Len(t, res.Sections, 1)
	sec := res.Sections[0]
	assert.Equal(t, "unknown-0", sec.ID)
	assert.Equal(t, models.SectionUnknown, sec.Type)
	assert.Equal(t, PlaceholderLabel, sec.Label)
	assert.Equal(t, pageURL, sec.SourceURL)
	assert.NotNil(t, sec.Content.Links)
	assert.Equal(t, models.EmptyMeta(), res.Meta)
	assert.Equal(t, 0, res.Interactions.Scrolls)
	assert.Empty(t, res.Interactions.Clicks)
}

func TestRun_StaticSufficient(t *testing.T) {
	r := &fakeRenderer{}
	p := newTestPipeline(fakeFetcher{html: richPage()}, r, nil)

	res := p.Run(context.Background(), Request{URL: pageURL})

	assert.Zero(t, r.calls)
	assert.Empty(t, res.Errors)
	assert.NotNil(t, res.Errors)
	assert.Equal(t, "Docs", res.Meta.Title)
	assert.Equal(t, "Reference docs", res.Meta.Description)
	assert.Equal(t, "de", res.Meta.Language)
	require.Len(t, res.Sections, 1)
	assert.Equal(t, "Docs", res.Sections[0].Label)
	assert.Equal(t, []string{pageURL}, res.Interactions.Pages)
	assert.Equal(t, []string{}, res.Interactions.Clicks)
	assert.Equal(t, fixedNow.UTC(), res.ScrapedAt)
	assert.Equal(t, time.UTC, res.ScrapedAt.Location())
}

func TestRun_EscalatesToRender(t *testing.T) {
	r := &fakeRenderer{result: &scraper.RenderResult{
		HTML:    renderedPage,
		Clicks:  []string{"[role='tab'] -> 'Monthly'"},
		Scrolls: 3,
		Pages:   []string{pageURL, pageURL + "#plans"},
	}}
	p := newTestPipeline(fakeFetcher{html: shellPage}, r, nil)

	res := p.Run(context.Background(), Request{URL: pageURL})

	assert.Equal(t, 1, r.calls)
	assert.Empty(t, res.Errors)
	assert.Equal(t, "App", res.Meta.Title)
	assert.Equal(t, RenderedDescription, res.Meta.Description)
	require.Len(t, res.Sections, 1)
	assert.Equal(t, "Pricing", res.Sections[0].Label)
	assert.Equal(t, 3, res.Interactions.Scrolls)
	assert.Equal(t, []string{"[role='tab'] -> 'Monthly'"}, res.Interactions.Clicks)
	assert.Equal(t, []string{pageURL, pageURL + "#plans"}, res.Interactions.Pages)
}

func TestRun_RenderFailureKeepsStatic(t *testing.T) {
	r := &fakeRenderer{result: &scraper.RenderResult{
		Errors: []models.ErrorItem{{Message: "render error: browser unavailable", Phase: models.PhaseRender}},
	}}
	p := newTestPipeline(fakeFetcher{html: shellPage}, r, nil)

	res := p.Run(context.Background(), Request{URL: pageURL})

	require.Len(t, res.Errors, 1)
	assert.Equal(t, models.PhaseRender, res.Errors[0].Phase)
	assert.Equal(t, "Shell", res.Meta.Title)
	assert.Empty(t, res.Meta.Description)
	assert.Equal(t, []string{pageURL}, res.Interactions.Pages)
	require.Len(t, res.Sections, 1)
	assert.Equal(t, "unknown-0", res.Sections[0].ID)
}

func TestRun_ErrorOrder(t *testing.T) {
	x := &failingExtractor{failOn: map[int]bool{1: true, 2: true}, inner: cleaner.NewCleaner()}
	r := &fakeRenderer{result: &scraper.RenderResult{
		HTML:   renderedPage,
		Errors: []models.ErrorItem{{Message: "Failed tab click [data-tab]", Phase: models.PhaseInteraction}},
	}}
	p := newTestPipeline(fakeFetcher{html: richPage()}, r, x)

	res := p.Run(context.Background(), Request{URL: pageURL, CSSSelector: "div["})

	require.Len(t, res.Errors, 4)
	assert.Equal(t, models.PhaseParse, res.Errors[0].Phase)
	assert.Contains(t, res.Errors[0].Message, "invalid css selector")
	assert.Equal(t, models.PhaseParse, res.Errors[1].Phase)
	assert.True(t, strings.HasPrefix(res.Errors[1].Message, "Static parse error: "))
	assert.Equal(t, models.PhaseInteraction, res.Errors[2].Phase)
	assert.Equal(t, models.PhaseParse, res.Errors[3].Phase)
	assert.True(t, strings.HasPrefix(res.Errors[3].Message, "JS parse error: "))

	// Rendered output was used even though it failed to parse.
	assert.Equal(t, RenderedDescription, res.Meta.Description)
	require.Len(t, res.Sections, 1)
	assert.Equal(t, PlaceholderLabel, res.Sections[0].Label)
}

func TestRun_SelectorAndMarkdown(t *testing.T) {
	html := `<html><head><title>T</title></head><body>
<nav>Home About Pricing Contact Blog</nav>
<div id="content"><section><h2>Install</h2><p>Run the installer and follow the prompts.</p></section></div>
</body></html>`
	p := newTestPipeline(fakeFetcher{html: html}, &fakeRenderer{}, nil)

	res := p.Run(context.Background(), Request{URL: pageURL, CSSSelector: "#content", IncludeMarkdown: true})

	require.NotEmpty(t, res.Sections)
	assert.Equal(t, "Install", res.Sections[0].Label)
	assert.Contains(t, res.Sections[0].Markdown, "Install")
	assert.Equal(t, "T", res.Meta.Title)
}

func TestNeedsRender(t *testing.T) {
	section := func(text string) models.Section {
		return models.Section{Content: models.SectionContent{Text: text}}
	}

	assert.True(t, NeedsRender(nil, 500))
	assert.True(t, NeedsRender([]models.Section{}, 0))
	assert.True(t, NeedsRender([]models.Section{section(strings.Repeat("a", 499))}, 500))
	assert.False(t, NeedsRender([]models.Section{section(strings.Repeat("a", 500))}, 500))
	assert.False(t, NeedsRender([]models.Section{section(strings.Repeat("a", 250)), section(strings.Repeat("b", 250))}, 500))
	// Characters, not bytes.
	assert.True(t, NeedsRender([]models.Section{section(strings.Repeat("é", 499))}, 500))
}

func TestErrors_ItemsNeverNil(t *testing.T) {
	var e Errors
	assert.NotNil(t, e.Items())
	e.Add(models.PhaseFetch, "x %d", 1)
	assert.Equal(t, []models.ErrorItem{{Message: "x 1", Phase: models.PhaseFetch}}, e.Items())
}

package cleaner_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/lyftr/cleaner"
	"github.com/use-agent/lyftr/dom"
	"github.com/use-agent/lyftr/models"
)

func build(t *testing.T, html string, opts cleaner.Options) []models.Section {
	t.Helper()
	doc, err := dom.Parse(html)
	require.NoError(t, err)
	return cleaner.NewCleaner().BuildSections(doc.Root(), "https://example.com/dir/page", opts)
}

func TestCandidates_TagPriorityOrder(t *testing.T) {
	t.Parallel()

	doc, err := dom.Parse(`<body>
		<footer>f</footer>
		<section>s1</section>
		<header>h</header>
		<section>s2</section>
		<nav>n</nav>
	</body>`)
	require.NoError(t, err)

	var tags []string
	for _, c := range cleaner.Candidates(doc.Root()) {
		tags = append(tags, c.Tag()+":"+c.Text())
	}
	assert.Equal(t, []string{"header:h", "nav:n", "section:s1", "section:s2", "footer:f"}, tags)
}

func TestCandidates_FallbackToBody(t *testing.T) {
	t.Parallel()

	doc, err := dom.Parse(`<body><div>only a div</div></body>`)
	require.NoError(t, err)

	cands := cleaner.Candidates(doc.Root())
	require.Len(t, cands, 1)
	assert.Equal(t, "body", cands[0].Tag())
}

func TestBuildSections_SkipsNearEmpty(t *testing.T) {
	t.Parallel()

	sections := build(t, `<body>
		<nav>tiny</nav>
		<section><h2>Hi</h2></section>
		<section>This section has more than twenty characters.</section>
	</body>`, cleaner.Options{})

	require.Len(t, sections, 2)
	for _, s := range sections {
		assert.True(t, len(s.Content.Headings) > 0 || utf8.RuneCountInString(s.Content.Text) >= 20)
	}
	// Ids count only emitted sections.
	assert.Equal(t, "section-0", sections[0].ID)
	assert.Equal(t, "section-1", sections[1].ID)
	assert.Equal(t, "Hi", sections[0].Label)
	assert.Equal(t, "This section has more than twenty characters.", sections[1].Label)
}

func TestBuildSections_Content(t *testing.T) {
	t.Parallel()

	sections := build(t, `<body><main class="pricing-page">
		<h1>Plans</h1>
		<h2> </h2>
		<a href="../signup">Sign <b>up</b></a>
		<a href="https://other.org/x">Other</a>
		<img src="/img/logo.png">
		<img src="hero.jpg" alt=" Hero ">
		<ul><li>Free</li><li> Pro </li></ul>
		<ol></ol>
		<table>
			<tr><th>Plan</th><th>Price</th></tr>
			<tr><td>Pro</td><td>$10</td></tr>
			<tr></tr>
		</table>
		<table></table>
	</main></body>`, cleaner.Options{})

	require.Len(t, sections, 1)
	s := sections[0]

	assert.Equal(t, models.SectionPricing, s.Type)
	assert.Equal(t, "pricing-0", s.ID)
	assert.Equal(t, "https://example.com/dir/page", s.SourceURL)
	assert.Equal(t, []string{"Plans"}, s.Content.Headings)
	assert.Equal(t, []models.LinkItem{
		{Text: "Sign up", Href: "https://example.com/signup"},
		{Text: "Other", Href: "https://other.org/x"},
	}, s.Content.Links)
	assert.Equal(t, []models.ImageItem{
		{Src: "https://example.com/img/logo.png", Alt: ""},
		{Src: "https://example.com/dir/hero.jpg", Alt: "Hero"},
	}, s.Content.Images)
	assert.Equal(t, [][]string{{"Free", "Pro"}}, s.Content.Lists)
	assert.Equal(t, [][][]string{{{"Plan", "Price"}, {"Pro", "$10"}}}, s.Content.Tables)
	assert.False(t, s.Truncated)
	assert.True(t, strings.HasPrefix(s.RawHTML, `<main class="pricing-page">`))
}

func TestBuildSections_DropsUnparseableURLs(t *testing.T) {
	t.Parallel()

	sections := build(t, `<body><main>
		<p>Links to some pages that are worth reading about.</p>
		<a href="/bad%zz">Broken</a>
		<a href="/ok">Fine</a>
		<img src="/img%zz.png">
	</main></body>`, cleaner.Options{})

	require.Len(t, sections, 1)
	assert.Equal(t, []models.LinkItem{{Text: "Fine", Href: "https://example.com/ok"}}, sections[0].Content.Links)
	assert.Empty(t, sections[0].Content.Images)
}

func TestBuildSections_Truncation(t *testing.T) {
	t.Parallel()

	const limit = 100
	// "<section>" + text + "</section>" is 19 characters of markup.
	over := build(t, `<body><section>`+strings.Repeat("a", limit-19+1)+`</section></body>`,
		cleaner.Options{RawHTMLLimit: limit})
	require.Len(t, over, 1)
	assert.True(t, over[0].Truncated)
	assert.Equal(t, limit, utf8.RuneCountInString(over[0].RawHTML))

	exact := build(t, `<body><section>`+strings.Repeat("a", limit-19)+`</section></body>`,
		cleaner.Options{RawHTMLLimit: limit})
	require.Len(t, exact, 1)
	assert.False(t, exact[0].Truncated)
	assert.Equal(t, limit, utf8.RuneCountInString(exact[0].RawHTML))
}

func TestBuildSections_Idempotent(t *testing.T) {
	t.Parallel()

	doc, err := dom.Parse(`<body><header><h1>Title</h1></header>
		<section class="faq"><h2>Questions</h2><ul><li>Why?</li></ul></section></body>`)
	require.NoError(t, err)

	c := cleaner.NewCleaner()
	first := c.BuildSections(doc.Root(), "https://example.com", cleaner.Options{})
	second := c.BuildSections(doc.Root(), "https://example.com", cleaner.Options{})
	assert.Equal(t, first, second)
}

func TestBuildSections_Markdown(t *testing.T) {
	t.Parallel()

	sections := build(t, `<body><section><h2>Docs</h2><p>Read the <a href="/guide">guide</a>.</p></section></body>`,
		cleaner.Options{Markdown: true})

	require.Len(t, sections, 1)
	assert.Contains(t, sections[0].Markdown, "## Docs")
	assert.Contains(t, sections[0].Markdown, "[guide](")
}

func TestSnippet(t *testing.T) {
	t.Parallel()

	s, truncated := cleaner.Snippet("héllo", 5)
	assert.Equal(t, "héllo", s)
	assert.False(t, truncated)

	s, truncated = cleaner.Snippet("héllo!", 5)
	assert.Equal(t, "héllo", s)
	assert.True(t, truncated)
}

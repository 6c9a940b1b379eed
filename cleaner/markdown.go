package cleaner

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// newMarkdownConverter builds the converter used for per-section Markdown.
// It is goroutine-safe and shared by all requests.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// ToMarkdown converts a section subtree to Markdown. Relative links and
// image sources are resolved against pageURL.
func ToMarkdown(conv *converter.Converter, htmlContent string, pageURL string) (string, error) {
	return conv.ConvertString(htmlContent, converter.WithDomain(pageURL))
}

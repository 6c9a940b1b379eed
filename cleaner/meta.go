package cleaner

import (
	"net/url"
	"strings"

	"github.com/use-agent/lyftr/dom"
	"github.com/use-agent/lyftr/models"
)

// ExtractMeta derives page metadata from head-level tags.
//
// Precedence:
//   - title:       og:title content, else <title> text
//   - description: meta[name=description], else og:description, else ""
//   - language:    <html lang>, else "en"
//   - canonical:   link[rel=canonical] href resolved against baseURL, else nil
func ExtractMeta(root dom.Node, baseURL string) models.MetaInfo {
	meta := models.EmptyMeta()

	if t := first(root, "title"); t != nil {
		meta.Title = t.InnerText()
	}
	if og := contentOf(root, `meta[property="og:title"]`); og != "" {
		meta.Title = og
	}

	if desc := contentOf(root, `meta[name="description"]`); desc != "" {
		meta.Description = desc
	} else if og := contentOf(root, `meta[property="og:description"]`); og != "" {
		meta.Description = og
	}

	if h := first(root, "html"); h != nil {
		if lang, _ := h.Attr("lang"); strings.TrimSpace(lang) != "" {
			meta.Language = strings.TrimSpace(lang)
		}
	}

	if link := first(root, `link[rel~="canonical"]`); link != nil {
		href, _ := link.Attr("href")
		if href = strings.TrimSpace(href); href != "" {
			base, _ := url.Parse(baseURL)
			if abs, ok := resolveURL(base, href); ok {
				meta.Canonical = &abs
			}
		}
	}

	return meta
}

func first(root dom.Node, selector string) dom.Node {
	nodes := root.Find(selector)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// contentOf returns the trimmed content attribute of the first element
// matching selector.
func contentOf(root dom.Node, selector string) string {
	n := first(root, selector)
	if n == nil {
		return ""
	}
	content, _ := n.Attr("content")
	return strings.TrimSpace(content)
}

package cleaner

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// truncateRunes cuts s to at most n characters.
func truncateRunes(s string, n int) string {
	if n < 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// textLen counts characters, not bytes.
func textLen(s string) int {
	return utf8.RuneCountInString(s)
}

// resolveURL resolves ref against base. It reports false when ref cannot
// be parsed, so callers never emit a relative URL.
func resolveURL(base *url.URL, ref string) (string, bool) {
	if base == nil {
		return "", false
	}
	u, err := base.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", false
	}
	return u.String(), true
}

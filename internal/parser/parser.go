// Package parser holds the small text recognizers used on headlines and
// attribute values: WikiWords, importance markers, kebab-case conversion
// and URL normalization.
package parser

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	wikiWordRe = regexp.MustCompile(`^[A-Z][a-z]+(?:[A-Z][a-z]+|[0-9]+)+$`)

	waybackRe = regexp.MustCompile(`^https?://web\.archive\.org/web/\d+/(https?://.+)$`)
	archiveRe = regexp.MustCompile(`^https?://archive\.(?:is|md|li|ph|today)/.+/(https?://.+)$`)

	statusRes = []*regexp.Regexp{
		regexp.MustCompile(`^https?://twitter\.com/.+/status/(\d+)$`),
		regexp.MustCompile(`^https?://x\.com/.+/status/(\d+)$`),
		regexp.MustCompile(`^https?://nitter\.(?:net|poast\.org)/.+/status/(\d+)$`),
		regexp.MustCompile(`^https?://xcancel\.com/.+/status/(\d+)$`),
		regexp.MustCompile(`^https?://threadreaderapp\.com/thread/(\d+)(?:\.html)?$`),
	}
	tumblrRe = regexp.MustCompile(`^https?://([a-zA-Z0-9_-]+)\.tumblr\.com/post/(.+)$`)
)

// WikiWord reports whether s is a single CamelCase word of at least two
// segments, such as "WikiWord" or "Wiki666".
func WikiWord(s string) bool {
	return wikiWordRe.MatchString(s)
}

// Important strips the trailing " *" importance marker. ok is false when the
// marker is absent.
func Important(s string) (head string, ok bool) {
	return strings.CutSuffix(s, " *")
}

// Indentation returns the leading whitespace of s.
func Indentation(s string) string {
	i := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) })
	if i < 0 {
		return ""
	}
	return s[:i]
}

// CamelToKebab converts "CamelCase666" to "camel-case-666".
func CamelToKebab(s string) string {
	var b strings.Builder
	last := '-'
	for _, c := range s {
		if last != '-' && (unicode.IsUpper(c) || unicode.IsDigit(c) != unicode.IsDigit(last)) {
			b.WriteByte('-')
		}
		b.WriteRune(unicode.ToLower(c))
		last = c
	}
	return b.String()
}

// NormalizedURL folds differently formatted URLs for the same resource into
// one identifier: archive wrappers are removed, tweet mirrors map to a
// canonical status URL, and http becomes https.
func NormalizedURL(url string) string {
	url = strings.TrimSpace(url)

	if m := waybackRe.FindStringSubmatch(url); m != nil {
		return NormalizedURL(m[1])
	}
	if m := archiveRe.FindStringSubmatch(url); m != nil {
		return NormalizedURL(m[1])
	}

	for _, re := range statusRes {
		if m := re.FindStringSubmatch(url); m != nil {
			return "https://twitter.com/a/status/" + m[1]
		}
	}

	if m := tumblrRe.FindStringSubmatch(url); m != nil {
		return "https://www.tumblr.com/" + m[1] + "/" + m[2]
	}

	if rest, ok := strings.CutPrefix(url, "http://"); ok {
		return "https://" + rest
	}
	return url
}

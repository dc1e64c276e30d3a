// Package sanitize converts ATS description markup into plain text.
package sanitize

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	scriptTag     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script\s*>`)
	styleTag      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style\s*>`)
	noscriptTag   = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript\s*>`)
	headTag       = regexp.MustCompile(`(?is)<head(\s[^>]*)?>.*?</head\s*>`)
	svgTag        = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg\s*>`)
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	listItemOpen  = regexp.MustCompile(`(?i)<li(\s[^>]*)?>`)
	openBlocks    = regexp.MustCompile(`(?i)<(p|div|h[1-6]|ul|ol|tr|blockquote|pre|table|section|article|header|footer)(\s[^>]*)?>`)
	closeBlocks   = regexp.MustCompile(`(?i)</(p|div|h[1-6]|ul|ol|tr|blockquote|pre|table|section|article|header|footer)\s*>`)
	lineBreaks    = regexp.MustCompile(`(?i)<(br|hr)(\s[^>]*)?/?>`)
	anyTag        = regexp.MustCompile(`</?[a-zA-Z][^<>]*>|<![^<>]*>`)
	multiSpaces   = regexp.MustCompile(` {2,}`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// Text returns the plain-text projection of s: tags stripped, entities
// decoded, invisible runes removed, whitespace collapsed and at most one
// blank line between paragraphs. Text(Text(s)) == Text(s).
func Text(s string) string {
	if s == "" {
		return ""
	}

	// Entity-encoded markup (Greenhouse content) needs two passes and each
	// further level of encoding one more. A pass that changes its input
	// decodes an entity or drops a tag, so the loop terminates.
	out := once(s)
	for {
		next := once(out)
		if next == out {
			return out
		}
		out = next
	}
}

// Line is Text collapsed onto a single line. Used for titles, company names
// and locations.
func Line(s string) string {
	return strings.Join(strings.Fields(Text(s)), " ")
}

func once(s string) string {
	s = strings.ToValidUTF8(s, "")

	s = scriptTag.ReplaceAllString(s, "")
	s = styleTag.ReplaceAllString(s, "")
	s = noscriptTag.ReplaceAllString(s, "")
	s = headTag.ReplaceAllString(s, "")
	s = svgTag.ReplaceAllString(s, "")
	s = htmlComments.ReplaceAllString(s, "")

	s = listItemOpen.ReplaceAllString(s, "\n• ")
	s = openBlocks.ReplaceAllString(s, "\n")
	s = closeBlocks.ReplaceAllString(s, "\n")
	s = lineBreaks.ReplaceAllString(s, "\n")
	s = anyTag.ReplaceAllString(s, "")

	s = html.UnescapeString(s)

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = normalizeRunes(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(multiSpaces.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = multiNewlines.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// normalizeRunes applies NFKC (folds NBSP and other compatibility spaces),
// maps remaining whitespace to plain spaces and drops format/control runes.
// The transformer chain is stateful, so one is built per call.
func normalizeRunes(s string) string {
	t := transform.Chain(
		norm.NFKC,
		runes.Map(mapSpace),
		runes.Remove(runes.Predicate(invisible)),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func mapSpace(r rune) rune {
	switch {
	case r == '\n':
		return r
	case r == '\u2028' || r == '\u2029':
		return '\n'
	case unicode.IsSpace(r):
		return ' '
	}
	return r
}

func invisible(r rune) bool {
	if r == '\n' {
		return false
	}
	return unicode.Is(unicode.Cf, r) || unicode.IsControl(r)
}

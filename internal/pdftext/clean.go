package pdftext

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reSpaces     = regexp.MustCompile(`[ \t]+`)
	reNewlines   = regexp.MustCompile(`\n{3,}`)
	rePunctRuns  = regexp.MustCompile(`([.\-_*=~]){4,}`)
	reSpacedDots = regexp.MustCompile(`(?:\. ){3,}\.?`)
)

// cleanText normalizes extracted text: non-printable bytes stripped,
// whitespace runs collapsed, repeated punctuation (dot leaders, rules)
// collapsed to a single separator. Page-boundary form feeds survive as
// their own lines.
func cleanText(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\f':
			b.WriteRune(r)
		case r == '\t':
			b.WriteRune(' ')
		case unicode.IsPrint(r):
			b.WriteRune(r)
		}
	}
	out := b.String()
	out = rePunctRuns.ReplaceAllString(out, "$1")
	out = reSpacedDots.ReplaceAllString(out, ".")
	out = reSpaces.ReplaceAllString(out, " ")

	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = strings.Trim(l, " \t")
	}
	out = strings.Join(lines, "\n")
	out = reNewlines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

package pdftext

import (
	"encoding/hex"
	"regexp"
	"strings"
)

// Raw byte-pattern scanner: the last-resort pass when the page model
// cannot be built. It pulls delimited text runs straight out of the
// bytes — parenthesized string literals, BT..ET text objects, and
// hex-encoded strings — cleans each, and discards tiny noise fragments.

var (
	reParenLiteral = regexp.MustCompile(`\(((?:\\.|[^()\\]){2,})\)`)
	reTextObject   = regexp.MustCompile(`(?s)BT(.{2,}?)ET`)
	reHexString    = regexp.MustCompile(`<([0-9A-Fa-f]{8,})>`)
)

func scanRawText(data []byte, minFragment int) []string {
	if len(data) == 0 {
		return nil
	}
	var frags []string

	keep := func(s string) {
		s = cleanText(unescapeLiteral(s))
		if len(s) >= minFragment && looksTextual(s) {
			frags = append(frags, s)
		}
	}

	// string literals inside text objects carry most content; scan the
	// objects first so ordering roughly follows the document.
	for _, m := range reTextObject.FindAllSubmatch(data, -1) {
		for _, lit := range reParenLiteral.FindAllSubmatch(m[1], -1) {
			keep(string(lit[1]))
		}
	}
	// then any literals outside text objects
	for _, lit := range reParenLiteral.FindAllSubmatch(data, -1) {
		keep(string(lit[1]))
	}
	// hex-encoded runs decode to text in some producers
	for _, m := range reHexString.FindAllSubmatch(data, -1) {
		if decoded, err := hex.DecodeString(string(m[1])); err == nil {
			keep(string(decoded))
		}
	}
	return dedupeFragments(frags)
}

func unescapeLiteral(s string) string {
	r := strings.NewReplacer(
		`\(`, "(", `\)`, ")", `\\`, `\`,
		`\n`, "\n", `\r`, " ", `\t`, " ",
	)
	return r.Replace(s)
}

// looksTextual rejects fragments that are mostly non-letter bytes,
// which the literal regex happily matches inside binary streams.
func looksTextual(s string) bool {
	letters := 0
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' ' {
			letters++
		}
	}
	return letters*2 >= len(s)
}

func dedupeFragments(frags []string) []string {
	seen := make(map[string]struct{}, len(frags))
	out := frags[:0]
	for _, f := range frags {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

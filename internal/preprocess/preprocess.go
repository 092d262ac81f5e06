package preprocess

import (
	"log/slog"
	"regexp"
	"strings"
)

// CharsPerToken approximates the generation service's tokenizer:
// charBudget = tokenBudget * CharsPerToken.
const CharsPerToken = 4

// domainKeywords biases truncation toward the sections a schema
// extraction actually needs. Lowercase; matched as substrings.
var domainKeywords = []string{
	"contract", "agreement", "party", "parties", "owner", "contractor", "subcontractor",
	"payment", "retention", "sum", "price", "value", "total", "subtotal", "tax",
	"scope", "work", "completion", "commencement", "milestone", "deadline",
	"drawing", "revision", "sheet", "scale", "discipline", "detail", "plan",
	"specification", "section", "standard", "astm", "aisc", "aci",
	"invoice", "amount", "due", "vendor", "quantity", "unit", "line item",
	"signature", "signed", "date", "term", "warranty", "liability",
}

var (
	rePageNumber = regexp.MustCompile(`(?i)^\s*(page\s*)?\d+(\s*(/|of)\s*\d+)?\s*$`)
	reEllipsis   = regexp.MustCompile(`\x{2026}|(\.\s*){3,}`)
	reDashes     = regexp.MustCompile(`[\x{2012}-\x{2015}]`)
)

type Preprocessor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preprocessor{logger: logger}
}

// Reduce normalizes text and truncates it to roughly tokenBudget tokens.
// The truncation is lossy and relevance-biased: keyword-bearing sections
// plus the document's leading sections survive, the rest is dropped.
// The returned text never exceeds the derived character budget.
func (p *Preprocessor) Reduce(text string, tokenBudget int) string {
	charBudget := tokenBudget * CharsPerToken
	if charBudget <= 0 {
		return ""
	}

	text = normalize(text)
	text = dropRepeatedLines(text)

	if len(text) <= charBudget {
		return text
	}

	sections := splitSections(text)
	kept := selectSections(sections, charBudget)
	reduced := strings.Join(kept, "\n\n")
	if len(reduced) > charBudget {
		reduced = reduced[:charBudget]
	}
	p.logger.Info("preprocess.reduced",
		"input_bytes", len(text),
		"output_bytes", len(reduced),
		"sections_total", len(sections),
		"sections_kept", len(kept),
		"char_budget", charBudget,
	)
	return reduced
}

func normalize(text string) string {
	text = reEllipsis.ReplaceAllString(text, "... ")
	text = reDashes.ReplaceAllString(text, "-")
	return text
}

// dropRepeatedLines removes page-number artifacts and collapses lines
// repeated three or more times — running headers and footers — to their
// first occurrence.
func dropRepeatedLines(text string) string {
	lines := strings.Split(text, "\n")
	counts := make(map[string]int, len(lines))
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if len(t) >= 4 {
			counts[t]++
		}
	}
	seen := make(map[string]bool)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if rePageNumber.MatchString(t) {
			continue
		}
		if counts[t] >= 3 {
			if seen[t] {
				continue
			}
			seen[t] = true
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}

// splitSections breaks text into paragraph-level sections on blank lines
// and page boundaries.
func splitSections(text string) []string {
	raw := regexp.MustCompile(`\n\s*\n|\f`).Split(text, -1)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// selectSections keeps every keyword-bearing section plus the first few
// sections (header/intro context), in document order, stopping at the
// character budget.
func selectSections(sections []string, charBudget int) []string {
	const leadSections = 3

	keep := make([]bool, len(sections))
	for i, s := range sections {
		if i < leadSections || keywordScore(s) > 0 {
			keep[i] = true
		}
	}

	var out []string
	used := 0
	for i, s := range sections {
		if !keep[i] {
			continue
		}
		need := len(s)
		if len(out) > 0 {
			need += 2 // separator
		}
		if used+need > charBudget {
			if remaining := charBudget - used - 2; remaining > 0 && len(out) > 0 {
				out = append(out, s[:min(remaining, len(s))])
			} else if len(out) == 0 {
				out = append(out, s[:min(charBudget, len(s))])
			}
			break
		}
		out = append(out, s)
		used += need
	}
	return out
}

func keywordScore(section string) int {
	l := strings.ToLower(section)
	score := 0
	for _, kw := range domainKeywords {
		if strings.Contains(l, kw) {
			score++
		}
	}
	return score
}

package pdftext

import (
	"regexp"
	"strings"
)

var (
	reDate    = regexp.MustCompile(`\b(19|20)\d{2}[-/.]\d{1,2}[-/.]\d{1,2}\b|\b\d{1,2}\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)`)
	reAmount  = regexp.MustCompile(`\b\d{1,3}(,\d{3})*\.\d{2}\b|[$£€]\s?\d`)
	reDwgNo   = regexp.MustCompile(`\b[a-z]{1,3}[-.]?\d{2,4}\b.*\brev\b|\bdrawing\s+no\b|\bdwg\b`)
	reSection = regexp.MustCompile(`\bsection\s+\d{2}\s?\d{2}\s?\d{2}\b|\barticle\s+\d+\b|\bclause\b`)
)

// heuristicQuality scores extracted text on construction-document
// signals before any model call. Dates, money amounts, drawing-number
// patterns, and section/article markers each add a little; enough
// volume adds more. Capped at 1.0.
func heuristicQuality(txt string) float32 {
	txtL := strings.ToLower(txt)
	score := float32(0.2) // base
	if reDate.MatchString(txtL) {
		score += 0.2
	}
	if reAmount.MatchString(txtL) {
		score += 0.15
	}
	if reDwgNo.MatchString(txtL) || reSection.MatchString(txtL) {
		score += 0.15
	}
	if len(txt) > 500 {
		score += 0.15
	}
	if len(txt) > 5000 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

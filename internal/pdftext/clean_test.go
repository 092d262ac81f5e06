package pdftext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	in := "Scope   of\t\tWork\n\n\n\n\nSection 1"
	out := cleanText(in)
	assert.Equal(t, "Scope of Work\n\nSection 1", out)
}

func TestCleanTextStripsNonPrintable(t *testing.T) {
	in := "Total\x00\x01 due:\x07 222.00"
	out := cleanText(in)
	assert.Equal(t, "Total due: 222.00", out)
}

func TestCleanTextCollapsesPunctuationRuns(t *testing.T) {
	assert.Equal(t, "Payment Terms . 14", cleanText("Payment Terms ........... 14"))
	assert.Equal(t, "-", cleanText("-----------------"))
	assert.NotContains(t, cleanText("Intro . . . . . . 2"), ". .")
}

func TestCleanTextKeepsPageBoundaries(t *testing.T) {
	out := cleanText("page one\n\f\npage two")
	assert.Contains(t, out, "\f")
}

func TestHeuristicQualitySignals(t *testing.T) {
	garbage := heuristicQuality("xj3 kq")
	contract := heuristicQuality("Agreement dated 2024-03-01 for the sum of 2,400,000.00 per Section 03 30 00")
	assert.Less(t, garbage, contract)
	assert.LessOrEqual(t, contract, float32(1.0))
	assert.GreaterOrEqual(t, garbage, float32(0.0))
}

func TestLooksTextualRejectsBinaryFragments(t *testing.T) {
	assert.True(t, looksTextual("Subcontract Agreement 2024"))
	assert.False(t, looksTextual("\x80\x81\x82\x83()*&^%$#@!"))
}

package preprocess

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceNeverExceedsCharBudget(t *testing.T) {
	p := New(nil)
	var b strings.Builder
	for i := 0; i < 2000; i++ {
		fmt.Fprintf(&b, "Filler paragraph %d with no special markers at all.\n\n", i)
	}
	out := p.Reduce(b.String(), 100)
	assert.LessOrEqual(t, len(out), 100*CharsPerToken)
	assert.NotEmpty(t, out)
}

func TestReduceShortTextPassesThrough(t *testing.T) {
	p := New(nil)
	in := "Subcontract Agreement\n\nScope of work attached."
	assert.Equal(t, in, p.Reduce(in, 30000))
}

func TestReduceZeroBudgetReturnsEmpty(t *testing.T) {
	p := New(nil)
	assert.Empty(t, p.Reduce("anything", 0))
}

func TestReduceKeepsKeywordSections(t *testing.T) {
	p := New(nil)
	filler := strings.Repeat("lorem ipsum noise ", 40)
	var b strings.Builder
	b.WriteString("Heading\n\nIntro\n\nPreamble\n\n")
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "%s block %d\n\n", filler, i)
	}
	b.WriteString("Contract sum shall be 2,400,000.00 payable on completion.\n\n")
	for i := 50; i < 100; i++ {
		fmt.Fprintf(&b, "%s block %d\n\n", filler, i)
	}

	out := p.Reduce(b.String(), 500)
	require.LessOrEqual(t, len(out), 500*CharsPerToken)
	assert.Contains(t, out, "Contract sum")
	assert.Contains(t, out, "Heading")
	assert.NotContains(t, out, filler)
}

func TestDropRepeatedLinesCollapsesHeaders(t *testing.T) {
	in := strings.Join([]string{
		"ACME BUILDERS - CONFIDENTIAL",
		"clause one",
		"ACME BUILDERS - CONFIDENTIAL",
		"clause two",
		"ACME BUILDERS - CONFIDENTIAL",
		"clause three",
	}, "\n")
	out := dropRepeatedLines(in)
	assert.Equal(t, 1, strings.Count(out, "ACME BUILDERS - CONFIDENTIAL"))
	assert.Contains(t, out, "clause one")
	assert.Contains(t, out, "clause three")
}

func TestDropRepeatedLinesStripsPageNumbers(t *testing.T) {
	in := "clause one\nPage 3 of 12\nclause two\n7\nclause three\n12 / 40"
	out := dropRepeatedLines(in)
	assert.NotContains(t, out, "Page 3")
	assert.NotContains(t, out, "12 / 40")
	assert.Equal(t, "clause one\nclause two\nclause three", out)
}

func TestDropRepeatedLinesKeepsShortDuplicates(t *testing.T) {
	// lines under 4 chars are never treated as running headers
	in := "ok\nok\nok\nok"
	assert.Equal(t, in, dropRepeatedLines(in))
}

func TestNormalizeUnicodeArtifacts(t *testing.T) {
	out := normalize("scope… of work — phase 1 – site")
	assert.NotContains(t, out, "…")
	assert.NotContains(t, out, "—")
	assert.NotContains(t, out, "–")
	assert.Contains(t, out, "- phase 1 - site")
}

func TestSplitSectionsOnBlankLinesAndPageBreaks(t *testing.T) {
	got := splitSections("one\n\ntwo\fthree\n   \nfour")
	assert.Equal(t, []string{"one", "two", "three", "four"}, got)
}

func TestSelectSectionsTruncatesFinalSection(t *testing.T) {
	sections := []string{strings.Repeat("a", 50), strings.Repeat("b", 50)}
	kept := selectSections(sections, 60)
	require.NotEmpty(t, kept)
	total := len(strings.Join(kept, "\n\n"))
	assert.LessOrEqual(t, total, 60)
}

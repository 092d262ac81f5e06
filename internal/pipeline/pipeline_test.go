package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildledger/docpipe/internal/common"
	"github.com/buildledger/docpipe/internal/llm"
	"github.com/buildledger/docpipe/internal/pdftext"
	"github.com/buildledger/docpipe/internal/preprocess"
)

type fakeFetcher struct {
	data []byte
	err  error
}

func (f *fakeFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	return f.data, f.err
}

type fakeText struct {
	text string
}

func (f *fakeText) Extract(data []byte) pdftext.Result {
	return pdftext.Result{Text: f.text, Method: "pdf-pages", Pages: 1, Selected: 1, Quality: 0.5}
}

type extractStep struct {
	doc llm.ExtractedDocument
	err error
}

// scriptedExtractor replays a fixed sequence of extraction results and
// records every request it receives.
type scriptedExtractor struct {
	steps         []extractStep
	classifyType  llm.DocumentType
	classifyErr   error
	extractReqs   []llm.ExtractRequest
	classifyTexts []string
}

func (s *scriptedExtractor) ExtractDocument(ctx context.Context, req llm.ExtractRequest) (llm.ExtractedDocument, []byte, error) {
	s.extractReqs = append(s.extractReqs, req)
	if len(s.steps) == 0 {
		return llm.ExtractedDocument{}, nil, errors.New("unscripted extract call")
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	return step.doc, nil, step.err
}

func (s *scriptedExtractor) ClassifyDocument(ctx context.Context, text string) (llm.DocumentType, []byte, error) {
	s.classifyTexts = append(s.classifyTexts, text)
	return s.classifyType, nil, s.classifyErr
}

type fakePersister struct {
	err    error
	calls  int
	lastID string
	last   llm.ExtractedDocument
}

func (f *fakePersister) Persist(ctx context.Context, documentID string, doc llm.ExtractedDocument) error {
	f.calls++
	f.lastID = documentID
	f.last = doc
	return f.err
}

func newTestPipeline(text string, ex *scriptedExtractor, store *fakePersister) *Pipeline {
	return New(nil, Config{},
		&fakeFetcher{data: []byte("%PDF-1.4")},
		&fakeText{text: text},
		preprocess.New(nil),
		ex, store,
	)
}

func doc(dt llm.DocumentType, confidence float32) llm.ExtractedDocument {
	return llm.ExtractedDocument{DocumentType: dt, Summary: "s", Confidence: confidence}
}

// bulkText builds at least n bytes of distinct clause paragraphs so the
// preprocessor's repeated-line collapse leaves the volume intact.
func bulkText(n int) string {
	var b strings.Builder
	b.Grow(n + 64)
	for i := 0; b.Len() < n; i++ {
		fmt.Fprintf(&b, "clause %d: payment and retention terms for phase %d\n\n", i, i%7)
	}
	return b.String()
}

func TestRunConfidentResultIsAcceptedDirectly(t *testing.T) {
	ex := &scriptedExtractor{steps: []extractStep{{doc: doc(llm.TypeInvoice, 0.9)}}}
	store := &fakePersister{}
	p := newTestPipeline("INVOICE #INV-0042 total due 222.00", ex, store)

	out, err := p.Run(context.Background(), Request{SourceRef: "https://x/inv.pdf", DocumentID: "doc-1"})
	require.NoError(t, err)

	assert.Len(t, ex.extractReqs, 1)
	assert.Empty(t, ex.classifyTexts)
	assert.Equal(t, llm.VariantGeneric, ex.extractReqs[0].Variant)
	assert.Equal(t, float32(0.9), out.Confidence)
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, "doc-1", store.lastID)
}

func TestRunLowConfidenceRetriesOnceWithRecoveryPrompt(t *testing.T) {
	ex := &scriptedExtractor{steps: []extractStep{
		{doc: doc(llm.TypeContract, 0.2)},
		{doc: doc(llm.TypeContract, 0.55)},
	}}
	store := &fakePersister{}
	p := newTestPipeline("garbled scan of an agreement", ex, store)

	out, err := p.Run(context.Background(), Request{SourceRef: "https://x/a.pdf", DocumentID: "doc-2"})
	require.NoError(t, err)

	require.Len(t, ex.extractReqs, 2)
	assert.Equal(t, llm.VariantRetryOCR, ex.extractReqs[1].Variant)
	assert.Empty(t, ex.classifyTexts)
	assert.Equal(t, float32(0.55), out.Confidence)
	assert.Equal(t, 1, store.calls)
}

func TestRunRetryStillLowIsPersistedNotLooped(t *testing.T) {
	ex := &scriptedExtractor{steps: []extractStep{
		{doc: doc(llm.TypeOther, 0.1)},
		{doc: doc(llm.TypeOther, 0.2)},
	}}
	store := &fakePersister{}
	p := newTestPipeline("mostly noise", ex, store)

	out, err := p.Run(context.Background(), Request{SourceRef: "https://x/n.pdf", DocumentID: "doc-3"})
	require.NoError(t, err)

	assert.Len(t, ex.extractReqs, 2)
	assert.Equal(t, float32(0.2), out.Confidence)
	assert.Equal(t, 1, store.calls)
}

func TestRunLargeTextEscalatesToTwoPass(t *testing.T) {
	// 400k of extracted text, over LargeTextBytes; reduction caps the
	// model input well below that, so the gate must use the pre-reduce
	// length.
	big := bulkText(400_000)
	require.Greater(t, len(big), 300_000)

	ex := &scriptedExtractor{
		steps: []extractStep{
			{doc: doc(llm.TypeOther, 0.3)},
			{doc: doc(llm.TypeContract, 0.7)},
		},
		classifyType: llm.TypeContract,
	}
	store := &fakePersister{}
	p := newTestPipeline(big, ex, store)

	out, err := p.Run(context.Background(), Request{SourceRef: "https://x/big.pdf", DocumentID: "doc-4"})
	require.NoError(t, err)

	require.Len(t, ex.classifyTexts, 1)
	assert.LessOrEqual(t, len(ex.classifyTexts[0]), 50_000)

	require.Len(t, ex.extractReqs, 2)
	typed := ex.extractReqs[1]
	assert.Equal(t, llm.VariantTyped, typed.Variant)
	assert.Equal(t, llm.TypeContract, typed.DocTypeHint)
	assert.Greater(t, len(typed.Text), len(ex.classifyTexts[0]))

	assert.Equal(t, llm.TypeContract, out.DocumentType)
	assert.Equal(t, float32(0.7), out.Confidence)
	assert.Equal(t, 1, store.calls)
}

func TestRunHugeTextNeedsStrongConfidence(t *testing.T) {
	huge := bulkText(520_000)
	require.Greater(t, len(huge), 500_000)

	// 0.5 clears the floor but not the strong threshold: escalate.
	ex := &scriptedExtractor{
		steps: []extractStep{
			{doc: doc(llm.TypeContract, 0.5)},
			{doc: doc(llm.TypeContract, 0.8)},
		},
		classifyType: llm.TypeContract,
	}
	store := &fakePersister{}
	p := newTestPipeline(huge, ex, store)

	_, err := p.Run(context.Background(), Request{SourceRef: "https://x/h.pdf", DocumentID: "doc-5"})
	require.NoError(t, err)
	assert.Len(t, ex.classifyTexts, 1)
	assert.Len(t, ex.extractReqs, 2)

	// 0.7 clears the strong threshold: accepted in one call.
	ex2 := &scriptedExtractor{steps: []extractStep{{doc: doc(llm.TypeContract, 0.7)}}}
	store2 := &fakePersister{}
	p2 := newTestPipeline(huge, ex2, store2)

	_, err = p2.Run(context.Background(), Request{SourceRef: "https://x/h.pdf", DocumentID: "doc-6"})
	require.NoError(t, err)
	assert.Empty(t, ex2.classifyTexts)
	assert.Len(t, ex2.extractReqs, 1)
}

func TestRunInitialExtractionFailureIsFatal(t *testing.T) {
	ex := &scriptedExtractor{steps: []extractStep{{err: errors.New("model returned malformed json")}}}
	store := &fakePersister{}
	p := newTestPipeline("some text", ex, store)

	_, err := p.Run(context.Background(), Request{SourceRef: "https://x/a.pdf", DocumentID: "doc-7"})
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindSchema))
	assert.Len(t, ex.extractReqs, 1)
	assert.Zero(t, store.calls)
}

func TestRunRetryFailureFallsBackToBase(t *testing.T) {
	ex := &scriptedExtractor{steps: []extractStep{
		{doc: doc(llm.TypeDrawing, 0.3)},
		{err: errors.New("model returned malformed json")},
	}}
	store := &fakePersister{}
	p := newTestPipeline("faint title block", ex, store)

	out, err := p.Run(context.Background(), Request{SourceRef: "https://x/d.pdf", DocumentID: "doc-8"})
	require.NoError(t, err)
	assert.Equal(t, float32(0.3), out.Confidence)
	assert.Equal(t, llm.TypeDrawing, out.DocumentType)
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, float32(0.3), store.last.Confidence)
}

func TestRunClassifyFailureFallsBackToBase(t *testing.T) {
	big := bulkText(400_000)
	ex := &scriptedExtractor{
		steps:       []extractStep{{doc: doc(llm.TypeOther, 0.2)}},
		classifyErr: errors.New("model returned malformed json"),
	}
	store := &fakePersister{}
	p := newTestPipeline(big, ex, store)

	out, err := p.Run(context.Background(), Request{SourceRef: "https://x/b.pdf", DocumentID: "doc-9"})
	require.NoError(t, err)
	assert.Len(t, ex.classifyTexts, 1)
	assert.Len(t, ex.extractReqs, 1)
	assert.Equal(t, float32(0.2), out.Confidence)
	assert.Equal(t, 1, store.calls)
}

func TestRunFetchFailureIsFatal(t *testing.T) {
	ex := &scriptedExtractor{}
	store := &fakePersister{}
	p := New(nil, Config{},
		&fakeFetcher{err: common.NewFetchError("https://x/gone.pdf", errors.New("status 404"))},
		&fakeText{}, preprocess.New(nil), ex, store,
	)

	_, err := p.Run(context.Background(), Request{SourceRef: "https://x/gone.pdf", DocumentID: "doc-10"})
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindFetch))
	assert.Empty(t, ex.extractReqs)
	assert.Zero(t, store.calls)
}

func TestRunPersistFailureIsFatal(t *testing.T) {
	ex := &scriptedExtractor{steps: []extractStep{{doc: doc(llm.TypeInvoice, 0.9)}}}
	store := &fakePersister{err: errors.New("connection refused")}
	p := newTestPipeline("INVOICE #INV-0042", ex, store)

	_, err := p.Run(context.Background(), Request{SourceRef: "https://x/i.pdf", DocumentID: "doc-11"})
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindPersist))
	assert.Equal(t, 1, store.calls)
}

func TestDecideThresholds(t *testing.T) {
	cfg := Config{}.withDefaults()

	assert.Equal(t, gateAccept, decide(cfg, 0.4, 1000))
	assert.Equal(t, gateAccept, decide(cfg, 0.9, 499_000))
	assert.Equal(t, gateRetry, decide(cfg, 0.39, 1000))
	assert.Equal(t, gateTwoPass, decide(cfg, 0.39, 300_001))
	assert.Equal(t, gateTwoPass, decide(cfg, 0.5, 500_001))
	assert.Equal(t, gateAccept, decide(cfg, 0.6, 500_001))
	assert.Equal(t, gateRetry, decide(cfg, 0.1, 300_000))
}

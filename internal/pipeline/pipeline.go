package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/buildledger/docpipe/internal/common"
	"github.com/buildledger/docpipe/internal/fetch"
	"github.com/buildledger/docpipe/internal/llm"
	"github.com/buildledger/docpipe/internal/pdftext"
	"github.com/buildledger/docpipe/internal/preprocess"
)

// TextExtractor is Stage 2: bytes -> bounded plain text. Never fails.
type TextExtractor interface {
	Extract(data []byte) pdftext.Result
}

// Persister is Stage 6: write the final result to the external store.
type Persister interface {
	Persist(ctx context.Context, documentID string, doc llm.ExtractedDocument) error
}

// Request identifies one extraction invocation.
type Request struct {
	SourceRef  string
	DocumentID string
	Filename   string
}

// Config carries the gate thresholds and the text budget.
type Config struct {
	TokenBudget       int
	AcceptConfidence  float32 // accept floor
	StrongConfidence  float32 // required when text is huge
	LargeTextBytes    int     // above this, escalation becomes two-pass
	HugeTextBytes     int     // above this, acceptance needs StrongConfidence
	ClassifyHeadBytes int     // head excerpt for the classify pass
}

func (c Config) withDefaults() Config {
	if c.TokenBudget <= 0 {
		c.TokenBudget = 30000
	}
	if c.AcceptConfidence <= 0 {
		c.AcceptConfidence = 0.4
	}
	if c.StrongConfidence <= 0 {
		c.StrongConfidence = 0.6
	}
	if c.LargeTextBytes <= 0 {
		c.LargeTextBytes = 300_000
	}
	if c.HugeTextBytes <= 0 {
		c.HugeTextBytes = 500_000
	}
	if c.ClassifyHeadBytes <= 0 {
		c.ClassifyHeadBytes = 50_000
	}
	return c
}

// Pipeline runs one extraction request end to end. Instances are
// request-scoped in intent but carry no per-request state, so a single
// Pipeline value is safe for concurrent use.
type Pipeline struct {
	Logger    *slog.Logger
	Cfg       Config
	Fetcher   fetch.Fetcher
	Text      TextExtractor
	Prep      *preprocess.Preprocessor
	Extractor llm.DocumentExtractor
	Store     Persister
}

func New(logger *slog.Logger, cfg Config, fetcher fetch.Fetcher, text TextExtractor, prep *preprocess.Preprocessor, ex llm.DocumentExtractor, store Persister) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Logger:    logger,
		Cfg:       cfg.withDefaults(),
		Fetcher:   fetcher,
		Text:      text,
		Prep:      prep,
		Extractor: ex,
		Store:     store,
	}
}

// Run executes fetch -> extract -> reduce -> classify/extract -> gate ->
// persist. Text extraction failures degrade to a low-information string;
// fetch, initial schema, and persist failures are fatal for the request.
func (p *Pipeline) Run(ctx context.Context, req Request) (llm.ExtractedDocument, error) {
	start := time.Now()
	log := p.Logger.With("document_id", req.DocumentID)

	data, err := p.Fetcher.Fetch(ctx, req.SourceRef)
	if err != nil {
		log.Error("pipeline.fetch.failed", "ref", req.SourceRef, "error", err)
		return llm.ExtractedDocument{}, err
	}

	txt := p.Text.Extract(data)
	textLen := len(txt.Text)
	log.Info("pipeline.text.extracted",
		"method", txt.Method, "pages", txt.Pages, "selected", txt.Selected,
		"bytes", textLen, "quality", txt.Quality,
	)

	reduced := p.Prep.Reduce(txt.Text, p.Cfg.TokenBudget)

	doc, _, err := p.Extractor.ExtractDocument(ctx, llm.ExtractRequest{
		Text:         reduced,
		Variant:      llm.VariantGeneric,
		FilenameHint: req.Filename,
		TextQuality:  txt.Quality,
	})
	if err != nil {
		log.Error("pipeline.extract.failed", "error", err)
		return llm.ExtractedDocument{}, common.NewSchemaError(req.DocumentID, err)
	}
	doc = doc.Normalize()

	doc = p.applyGate(ctx, log, doc, textLen, reduced, req.Filename, txt.Quality)

	if err := p.Store.Persist(ctx, req.DocumentID, doc); err != nil {
		log.Error("pipeline.persist.failed", "error", err)
		return llm.ExtractedDocument{}, common.NewPersistError(req.DocumentID, err)
	}

	log.Info("pipeline.ok",
		"document_type", doc.DocumentType,
		"confidence", doc.Confidence,
		"text_bytes", textLen,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

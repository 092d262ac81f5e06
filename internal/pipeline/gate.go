package pipeline

import (
	"context"
	"log/slog"

	"github.com/buildledger/docpipe/internal/llm"
)

type gateAction int

const (
	gateAccept gateAction = iota
	gateRetry
	gateTwoPass
)

// decide implements the acceptance rule: accept when confidence clears
// the floor and the text is either not huge or the confidence is strong.
// Otherwise escalate — two-pass for large documents, a single retry for
// the rest.
func decide(cfg Config, confidence float32, textLen int) gateAction {
	if confidence >= cfg.AcceptConfidence &&
		(textLen <= cfg.HugeTextBytes || confidence >= cfg.StrongConfidence) {
		return gateAccept
	}
	if textLen > cfg.LargeTextBytes {
		return gateTwoPass
	}
	return gateRetry
}

// applyGate runs at most one escalation round and returns the resulting
// document unconditionally — a still-low confidence is signaled to the
// caller, not retried again. This bounds the generation calls per
// request at three. An escalation failure falls back to the base result.
func (p *Pipeline) applyGate(ctx context.Context, log *slog.Logger, base llm.ExtractedDocument, textLen int, reduced, filename string, quality float32) llm.ExtractedDocument {
	switch decide(p.Cfg, base.Confidence, textLen) {
	case gateAccept:
		log.Info("gate.accept", "confidence", base.Confidence, "text_bytes", textLen)
		return base

	case gateTwoPass:
		log.Info("gate.two_pass", "confidence", base.Confidence, "text_bytes", textLen)
		head := reduced
		if len(head) > p.Cfg.ClassifyHeadBytes {
			head = head[:p.Cfg.ClassifyHeadBytes]
		}
		docType, _, err := p.Extractor.ClassifyDocument(ctx, head)
		if err != nil {
			log.Warn("gate.classify.failed", "error", err)
			return base
		}
		patch, _, err := p.Extractor.ExtractDocument(ctx, llm.ExtractRequest{
			Text:         reduced,
			Variant:      llm.VariantTyped,
			DocTypeHint:  docType,
			FilenameHint: filename,
			TextQuality:  quality,
		})
		if err != nil {
			log.Warn("gate.typed_extract.failed", "document_type", docType, "error", err)
			return base
		}
		merged := llm.MergeOverwrite(base, patch)
		log.Info("gate.two_pass.merged",
			"document_type", merged.DocumentType,
			"confidence_before", base.Confidence,
			"confidence_after", merged.Confidence,
		)
		return merged

	default: // gateRetry
		log.Info("gate.retry", "confidence", base.Confidence, "text_bytes", textLen)
		patch, _, err := p.Extractor.ExtractDocument(ctx, llm.ExtractRequest{
			Text:         reduced,
			Variant:      llm.VariantRetryOCR,
			FilenameHint: filename,
			TextQuality:  quality,
		})
		if err != nil {
			log.Warn("gate.retry.failed", "error", err)
			return base
		}
		merged := llm.MergeOverwrite(base, patch)
		log.Info("gate.retry.merged",
			"document_type", merged.DocumentType,
			"confidence_before", base.Confidence,
			"confidence_after", merged.Confidence,
		)
		return merged
	}
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/buildledger/docpipe/internal/llm"
)

// DocumentStore writes final extraction results to the external store.
// The store is the sole source of truth downstream; there is no local
// fallback, so a failed write fails the request.
type DocumentStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewDocumentStore(pool *pgxpool.Pool, logger *slog.Logger) *DocumentStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentStore{pool: pool, logger: logger}
}

const upsertSQL = `
INSERT INTO documents (document_id, document_type, payload, summary, confidence, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (document_id) DO UPDATE SET
	document_type = EXCLUDED.document_type,
	payload       = EXCLUDED.payload,
	summary       = EXCLUDED.summary,
	confidence    = EXCLUDED.confidence,
	updated_at    = EXCLUDED.updated_at`

// Persist upserts the record identified by documentID with the typed
// payload, summary, confidence, and a UTC timestamp.
func (s *DocumentStore) Persist(ctx context.Context, documentID string, doc llm.ExtractedDocument) error {
	payload, err := json.Marshal(payloadOf(doc))
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	tag, err := s.pool.Exec(ctx, upsertSQL,
		documentID,
		string(doc.DocumentType),
		payload,
		doc.Summary,
		doc.Confidence,
		time.Now().UTC(),
	)
	if err != nil {
		s.logger.Error("store.persist.failed", "document_id", documentID, "error", err)
		return err
	}

	s.logger.Info("store.persist.ok",
		"document_id", documentID,
		"document_type", doc.DocumentType,
		"confidence", doc.Confidence,
		"rows", tag.RowsAffected(),
	)
	return nil
}

// payloadOf returns the union variant matching the document type, or an
// empty object for spec/other documents.
func payloadOf(doc llm.ExtractedDocument) any {
	switch doc.DocumentType {
	case llm.TypeContract:
		if doc.Contract != nil {
			return doc.Contract
		}
	case llm.TypeDrawing:
		if doc.Drawing != nil {
			return doc.Drawing
		}
	case llm.TypeInvoice:
		if doc.Invoice != nil {
			return doc.Invoice
		}
	}
	return struct{}{}
}

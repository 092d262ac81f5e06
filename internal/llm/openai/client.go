package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buildledger/docpipe/internal/llm"
)

// ExtractDocument implements llm.DocumentExtractor using text-only
// chat/completions with a JSON-object response format. The returned JSON
// is validated locally against the same schema handed to the model; an
// optional lenient sanitize pass rescues responses whose only offenders
// are optional fields.
func (c *Client) ExtractDocument(ctx context.Context, req llm.ExtractRequest) (llm.ExtractedDocument, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"variant", req.Variant,
		"type_hint", req.DocTypeHint,
		"text_len", len(req.Text),
		"text_quality", req.TextQuality,
	)

	schema := llm.BuildDocumentJSONSchema()
	sys := llm.BuildSystemPrompt(req)
	user := llm.BuildUserPrompt(req)

	raw, httpErr := c.chat(ctx, sys, user, schema)
	if httpErr != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ExtractedDocument{}, nil, httpErr
	}

	content, err := firstChoiceContent(raw)
	if err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ExtractedDocument{}, raw, err
	}
	rawContent := []byte(content)

	// Validate strictly first.
	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		if !c.cfg.LenientOptional {
			c.log.Error("llm.extract.schema_validation_failed",
				"req_id", rid, "error", err, "content", content,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.ExtractedDocument{}, rawContent, fmt.Errorf("schema validation failed: %w", err)
		}
		cleaned, dropped, sErr := llm.SanitizeOptionalFields(rawContent)
		if sErr != nil {
			c.log.Error("llm.extract.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.ExtractedDocument{}, rawContent, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.log.Error("llm.extract.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", string(cleaned),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.ExtractedDocument{}, rawContent, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.log.Warn("llm.extract.lenient_sanitize_applied",
			"req_id", rid, "dropped", dropped,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		rawContent = cleaned
	}

	var out llm.ExtractedDocument
	if err := json.Unmarshal(rawContent, &out); err != nil {
		c.log.Error("llm.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ExtractedDocument{}, rawContent, fmt.Errorf("unmarshal document: %w", err)
	}
	out = out.Normalize()

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"document_type", out.DocumentType,
		"confidence", out.Confidence,
		"summary_len", len(out.Summary),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
}

// ClassifyDocument runs the cheap classification pass over a head excerpt
// of a large document. It extracts no fields.
func (c *Client) ClassifyDocument(ctx context.Context, text string) (llm.DocumentType, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.classify.start",
		"req_id", rid, "model", c.cfg.Model, "text_len", len(text),
	)

	schema := llm.BuildClassifyJSONSchema()
	sys := llm.BuildClassifySystemPrompt()
	user := "Document excerpt:\n" + text

	raw, httpErr := c.chat(ctx, sys, user, schema)
	if httpErr != nil {
		c.log.Error("llm.classify.http_error",
			"req_id", rid, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.TypeOther, nil, httpErr
	}

	content, err := firstChoiceContent(raw)
	if err != nil {
		c.log.Error("llm.classify.decode_error", "req_id", rid, "error", err)
		return llm.TypeOther, raw, err
	}
	rawContent := []byte(content)

	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		c.log.Error("llm.classify.schema_validation_failed",
			"req_id", rid, "error", err, "content", content,
		)
		return llm.TypeOther, rawContent, fmt.Errorf("schema validation failed: %w", err)
	}

	var cls struct {
		DocumentType string  `json:"document_type"`
		Confidence   float32 `json:"confidence"`
	}
	if err := json.Unmarshal(rawContent, &cls); err != nil {
		return llm.TypeOther, rawContent, fmt.Errorf("unmarshal classification: %w", err)
	}
	t := llm.ParseDocumentType(cls.DocumentType)

	c.log.Info("llm.classify.ok",
		"req_id", rid, "document_type", t, "confidence", cls.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return t, rawContent, nil
}

func (c *Client) chat(ctx context.Context, sys, user string, schema map[string]any) ([]byte, error) {
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": sys},
			{"role": "user", "content": user + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, _, err := llm.SendJSON(ctx, c.httpClient, endpoint, body, headers, c.log)
	return raw, err
}

func firstChoiceContent(raw []byte) (string, error) {
	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty content in openai response")
	}
	return content, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

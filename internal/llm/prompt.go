package llm

import (
	"fmt"
	"strings"
)

// BuildSystemPrompt composes the system message for a given variant. The
// generic variant carries per-type few-shot examples and explicit
// confidence-scoring guidance; the retry variant tolerates fragmented
// scanner output; the typed variant narrows guidance to one document type.
func BuildSystemPrompt(req ExtractRequest) string {
	switch req.Variant {
	case VariantRetryOCR:
		return buildRetrySystemPrompt()
	case VariantTyped:
		return buildTypedSystemPrompt(req.DocTypeHint)
	default:
		return buildGenericSystemPrompt()
	}
}

func buildGenericSystemPrompt() string {
	parts := []string{
		"You are a construction-document parser. Return ONLY JSON that matches the provided JSON Schema.",
		"Classify the document as exactly one of: contract, drawing, spec, invoice, other.",
		"Populate ONLY the payload object matching the chosen document_type; omit the other payload objects entirely.",
		"Write 'summary' as 1-3 plain sentences describing what the document is and its key facts.",
		"Use ISO-8601 dates (YYYY-MM-DD). Money amounts are decimal strings without currency symbols.",
		"If a field is not clearly present in the text, omit it. Never guess and never output null.",
		confidenceRubric,
		fewShotExamples,
	}
	return strings.Join(parts, " ")
}

func buildRetrySystemPrompt() string {
	parts := []string{
		"You are a construction-document parser working from LOW-QUALITY extracted text.",
		"The input may be fragmented, out of order, or contain OCR-like garbage; reconstruct what you can from partial words and numbers.",
		"Return ONLY JSON that matches the provided JSON Schema.",
		"Classify the document as exactly one of: contract, drawing, spec, invoice, other, and populate only the matching payload object.",
		"Be conservative: score 'confidence' LOW (at most 0.5) unless the key fields are unambiguous despite the noise.",
		"Omit any field you cannot read clearly. Never guess and never output null.",
	}
	return strings.Join(parts, " ")
}

func buildTypedSystemPrompt(t DocumentType) string {
	parts := []string{
		fmt.Sprintf("You are a construction-document parser. This document has already been classified as %q.", t),
		fmt.Sprintf("Set document_type to %q and extract its fields thoroughly from the full text.", t),
		"Return ONLY JSON that matches the provided JSON Schema.",
	}
	switch t {
	case TypeContract:
		parts = append(parts,
			"Focus on: all contracting parties (owner, contractor, subcontractors), total contract value and currency, commencement and completion dates, scope of work, payment terms, retention percentage, and milestone dates.",
			"Parties are legal entity names as written; include every signatory.")
	case TypeDrawing:
		parts = append(parts,
			"Focus on the title block: drawing number, revision, discipline, scale, sheet title, drawn-by initials, and any referenced standards (ASTM, AISC, ACI, Eurocode).")
	case TypeInvoice:
		parts = append(parts,
			"Focus on: invoice number, vendor name, issue and due dates, subtotal, tax, total, currency, and EVERY line item with description, quantity, unit price, and amount.",
			"Line item amounts should sum to the subtotal; prefer the printed figures over computed ones.")
	default:
		parts = append(parts,
			"Focus on an accurate summary of the document's subject, referenced sections, and any normative requirements.")
	}
	parts = append(parts,
		"Use ISO-8601 dates (YYYY-MM-DD). Money amounts are decimal strings without currency symbols.",
		"If a field is not clearly present, omit it. Never output null.",
		confidenceRubric,
	)
	return strings.Join(parts, " ")
}

const confidenceRubric = "Score 'confidence' honestly in [0,1]: " +
	"0.9+ means a clean, complete document with all key fields found; " +
	"0.6-0.9 means readable text with some fields missing; " +
	"0.3-0.6 means noisy or partial text where classification is solid but fields are uncertain; " +
	"below 0.3 means the text is too degraded to trust the extraction."

const fewShotExamples = "Examples. " +
	`A document opening "THIS AGREEMENT made between Acme Builders LLC (Contractor) and Harbor City (Owner)... total sum of $2,400,000... retention of 5%" is {"document_type":"contract","contract":{"parties":["Acme Builders LLC","Harbor City"],"contract_value":"2400000","retention_pct":"5"}}. ` +
	`A sheet with a title block "DWG NO: S-201 REV C | STRUCTURAL | SCALE 1:100 | SECOND FLOOR FRAMING PLAN" is {"document_type":"drawing","drawing":{"drawing_number":"S-201","revision":"C","discipline":"structural","scale":"1:100","sheet_title":"SECOND FLOOR FRAMING PLAN"}}. ` +
	`A document with "INVOICE #INV-0042 ... Qty 12 Rebar #5 @ 18.50 ... TOTAL DUE 222.00" is {"document_type":"invoice","invoice":{"invoice_number":"INV-0042","total":"222.00","line_items":[{"description":"Rebar #5","quantity":"12","unit_price":"18.50","amount":"222.00"}]}}. ` +
	`A document titled "SECTION 03 30 00 - CAST-IN-PLACE CONCRETE" with normative requirements is {"document_type":"spec"}.`

// BuildUserPrompt packages the document text plus hints. The schema is
// appended by the client as a separate system message.
func BuildUserPrompt(req ExtractRequest) string {
	var b strings.Builder
	if f := strings.TrimSpace(req.FilenameHint); f != "" {
		b.WriteString("Filename: ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	if req.TextQuality > 0 {
		fmt.Fprintf(&b, "Extraction quality estimate: %.2f\n", req.TextQuality)
	}
	b.WriteString("\nDocument text:\n")
	b.WriteString(req.Text)
	return b.String()
}

// BuildClassifySystemPrompt is the generic classification prompt used for
// the head excerpt of large documents.
func BuildClassifySystemPrompt() string {
	return strings.Join([]string{
		"You classify construction documents. Return ONLY JSON matching the provided JSON Schema.",
		"Given the opening excerpt of a document, choose exactly one document_type: contract, drawing, spec, invoice, other.",
		"contract = a signed agreement between parties; drawing = a plan/sheet with a title block; spec = a technical specification section; invoice = a bill with amounts due; other = anything else.",
		"Do not extract fields. Report 'confidence' for the classification only.",
	}, " ")
}

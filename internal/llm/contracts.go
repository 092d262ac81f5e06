package llm

import "context"

// DocumentType classifies a construction document. Exactly one value per
// extraction, never mixed.
type DocumentType string

const (
	TypeContract DocumentType = "contract"
	TypeDrawing  DocumentType = "drawing"
	TypeSpec     DocumentType = "spec"
	TypeInvoice  DocumentType = "invoice"
	TypeOther    DocumentType = "other"
)

// ParseDocumentType maps an arbitrary label to a known DocumentType,
// falling back to TypeOther.
func ParseDocumentType(s string) DocumentType {
	switch DocumentType(s) {
	case TypeContract, TypeDrawing, TypeSpec, TypeInvoice:
		return DocumentType(s)
	default:
		return TypeOther
	}
}

// ContractFields holds the typed payload for documentType="contract".
// All fields are optional; absence means the value was not found.
type ContractFields struct {
	Parties       []string `json:"parties,omitempty"`
	ContractValue string   `json:"contract_value,omitempty"` // decimal string
	CurrencyCode  string   `json:"currency_code,omitempty"`  // ISO 4217
	StartDate     string   `json:"start_date,omitempty"`     // YYYY-MM-DD
	EndDate       string   `json:"end_date,omitempty"`       // YYYY-MM-DD
	ScopeOfWork   string   `json:"scope_of_work,omitempty"`
	PaymentTerms  string   `json:"payment_terms,omitempty"`
	RetentionPct  string   `json:"retention_pct,omitempty"` // decimal string
	KeyDates      []string `json:"key_dates,omitempty"`
}

// DrawingFields holds the typed payload for documentType="drawing".
type DrawingFields struct {
	DrawingNumber       string   `json:"drawing_number,omitempty"`
	Revision            string   `json:"revision,omitempty"`
	Discipline          string   `json:"discipline,omitempty"` // architectural, structural, MEP, civil
	Scale               string   `json:"scale,omitempty"`
	SheetTitle          string   `json:"sheet_title,omitempty"`
	DrawnBy             string   `json:"drawn_by,omitempty"`
	ReferencedStandards []string `json:"referenced_standards,omitempty"`
}

// LineItem is one row of an invoice.
type LineItem struct {
	Description string `json:"description,omitempty"`
	Quantity    string `json:"quantity,omitempty"`   // decimal string
	UnitPrice   string `json:"unit_price,omitempty"` // decimal string
	Amount      string `json:"amount,omitempty"`     // decimal string
}

// InvoiceFields holds the typed payload for documentType="invoice".
type InvoiceFields struct {
	InvoiceNumber string     `json:"invoice_number,omitempty"`
	Vendor        string     `json:"vendor,omitempty"`
	IssueDate     string     `json:"issue_date,omitempty"` // YYYY-MM-DD
	DueDate       string     `json:"due_date,omitempty"`   // YYYY-MM-DD
	Subtotal      string     `json:"subtotal,omitempty"`   // decimal string
	Tax           string     `json:"tax,omitempty"`        // decimal string
	Total         string     `json:"total,omitempty"`      // decimal string
	CurrencyCode  string     `json:"currency_code,omitempty"`
	LineItems     []LineItem `json:"line_items,omitempty"`
}

// ExtractedDocument is the unified extraction result. The typed payload is
// a tagged union keyed by DocumentType: at most one of Contract, Drawing,
// Invoice is non-nil, and only when it matches DocumentType. "spec" and
// "other" documents carry no typed payload.
type ExtractedDocument struct {
	DocumentType DocumentType    `json:"document_type"`
	Summary      string          `json:"summary,omitempty"`
	Confidence   float32         `json:"confidence"`
	Contract     *ContractFields `json:"contract,omitempty"`
	Drawing      *DrawingFields  `json:"drawing,omitempty"`
	Invoice      *InvoiceFields  `json:"invoice,omitempty"`
}

// Normalize clamps confidence into [0,1] and drops any payload variant
// that does not match DocumentType, so a "contract" result can never
// carry invoice fields.
func (d ExtractedDocument) Normalize() ExtractedDocument {
	if d.Confidence < 0 {
		d.Confidence = 0
	}
	if d.Confidence > 1 {
		d.Confidence = 1
	}
	d.DocumentType = ParseDocumentType(string(d.DocumentType))
	if d.DocumentType != TypeContract {
		d.Contract = nil
	}
	if d.DocumentType != TypeDrawing {
		d.Drawing = nil
	}
	if d.DocumentType != TypeInvoice {
		d.Invoice = nil
	}
	return d
}

// PromptVariant selects the system prompt for a generation call.
type PromptVariant string

const (
	// VariantGeneric is the initial full-extraction prompt.
	VariantGeneric PromptVariant = "generic"
	// VariantRetryOCR tolerates fragmented/garbled scanner output and
	// instructs conservative confidence scoring.
	VariantRetryOCR PromptVariant = "retry-ocr"
	// VariantTyped runs type-tailored extraction after a classify pass.
	VariantTyped PromptVariant = "typed"
)

// ExtractRequest carries everything a single generation call needs.
type ExtractRequest struct {
	Text         string
	Variant      PromptVariant
	DocTypeHint  DocumentType // only meaningful for VariantTyped
	FilenameHint string
	TextQuality  float32 // heuristic pre-LLM confidence, 0 when unknown
}

// DocumentExtractor is the generation-service boundary the pipeline
// depends on. ExtractDocument returns the parsed result plus the raw
// model JSON; ClassifyDocument is the cheap first pass of the two-pass
// strategy for large documents.
type DocumentExtractor interface {
	ExtractDocument(ctx context.Context, req ExtractRequest) (ExtractedDocument, []byte, error)
	ClassifyDocument(ctx context.Context, text string) (DocumentType, []byte, error)
}

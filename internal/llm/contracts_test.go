package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDocumentType(t *testing.T) {
	assert.Equal(t, TypeContract, ParseDocumentType("contract"))
	assert.Equal(t, TypeInvoice, ParseDocumentType("invoice"))
	assert.Equal(t, TypeOther, ParseDocumentType(""))
	assert.Equal(t, TypeOther, ParseDocumentType("receipt"))
	assert.Equal(t, TypeOther, ParseDocumentType("CONTRACT"))
}

func TestNormalizeClampsConfidence(t *testing.T) {
	d := ExtractedDocument{DocumentType: TypeSpec, Confidence: 1.7}.Normalize()
	assert.Equal(t, float32(1.0), d.Confidence)

	d = ExtractedDocument{DocumentType: TypeSpec, Confidence: -0.2}.Normalize()
	assert.Equal(t, float32(0.0), d.Confidence)
}

func TestNormalizeDropsMismatchedPayload(t *testing.T) {
	d := ExtractedDocument{
		DocumentType: TypeContract,
		Confidence:   0.8,
		Contract:     &ContractFields{Parties: []string{"Acme Builders LLC"}},
		Invoice:      &InvoiceFields{InvoiceNumber: "INV-1"},
		Drawing:      &DrawingFields{DrawingNumber: "S-201"},
	}.Normalize()

	assert.NotNil(t, d.Contract)
	assert.Nil(t, d.Invoice)
	assert.Nil(t, d.Drawing)
}

func TestNormalizeUnknownTypeBecomesOther(t *testing.T) {
	d := ExtractedDocument{
		DocumentType: "blueprint",
		Confidence:   0.5,
		Drawing:      &DrawingFields{DrawingNumber: "A-100"},
	}.Normalize()

	assert.Equal(t, TypeOther, d.DocumentType)
	assert.Nil(t, d.Drawing)
}

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeOverwriteLaterValuesWin(t *testing.T) {
	base := ExtractedDocument{
		DocumentType: TypeOther,
		Summary:      "unclear document",
		Confidence:   0.3,
	}
	patch := ExtractedDocument{
		DocumentType: TypeInvoice,
		Summary:      "invoice from Steelworks Ltd for rebar delivery",
		Confidence:   0.85,
		Invoice:      &InvoiceFields{InvoiceNumber: "INV-0042", Total: "222.00"},
	}

	out := MergeOverwrite(base, patch)
	assert.Equal(t, TypeInvoice, out.DocumentType)
	assert.Equal(t, patch.Summary, out.Summary)
	assert.Equal(t, float32(0.85), out.Confidence)
	assert.NotNil(t, out.Invoice)
	assert.Equal(t, "INV-0042", out.Invoice.InvoiceNumber)
}

func TestMergeOverwriteKeepsBaseWherePatchEmpty(t *testing.T) {
	base := ExtractedDocument{
		DocumentType: TypeContract,
		Summary:      "construction contract",
		Confidence:   0.5,
		Contract:     &ContractFields{Parties: []string{"Acme Builders LLC"}},
	}
	patch := ExtractedDocument{Confidence: 0.7}

	out := MergeOverwrite(base, patch)
	assert.Equal(t, TypeContract, out.DocumentType)
	assert.Equal(t, "construction contract", out.Summary)
	assert.Equal(t, float32(0.7), out.Confidence)
	assert.NotNil(t, out.Contract)
}

func TestMergeOverwriteDoesNotMutateInputs(t *testing.T) {
	base := ExtractedDocument{
		DocumentType: TypeContract,
		Confidence:   0.3,
		Contract:     &ContractFields{ContractValue: "100"},
	}
	patch := ExtractedDocument{
		DocumentType: TypeInvoice,
		Confidence:   0.9,
		Invoice:      &InvoiceFields{Total: "50"},
	}

	out := MergeOverwrite(base, patch)

	assert.Equal(t, TypeContract, base.DocumentType)
	assert.Equal(t, "100", base.Contract.ContractValue)
	assert.Equal(t, float32(0.9), patch.Confidence)

	// mutating the output payload must not reach the patch
	out.Invoice.Total = "999"
	assert.Equal(t, "50", patch.Invoice.Total)
}

func TestMergeOverwriteEnforcesUnionAfterTypeChange(t *testing.T) {
	base := ExtractedDocument{
		DocumentType: TypeContract,
		Confidence:   0.3,
		Contract:     &ContractFields{ContractValue: "100"},
	}
	patch := ExtractedDocument{DocumentType: TypeInvoice, Confidence: 0.8}

	out := MergeOverwrite(base, patch)
	assert.Equal(t, TypeInvoice, out.DocumentType)
	// the stale contract payload cannot survive a type flip
	assert.Nil(t, out.Contract)
	assert.Nil(t, out.Invoice)
}

package llm

// BuildDocumentJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass it to the generation service as a structured output
// constraint and also use it locally to validate the response.
func BuildDocumentJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"document_type": docTypeProp(),
			"summary":       map[string]any{"type": "string", "minLength": 1},
			"confidence":    map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"contract":      contractProps(),
			"drawing":       drawingProps(),
			"invoice":       invoiceProps(),
		},
		"required": []string{"document_type", "summary", "confidence"},
	}
}

// BuildClassifyJSONSchema constrains the cheap classification pass to a
// document type plus confidence, nothing else.
func BuildClassifyJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"document_type": docTypeProp(),
			"confidence":    map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
		"required": []string{"document_type"},
	}
}

func docTypeProp() map[string]any {
	return map[string]any{
		"type": "string",
		"enum": []string{
			string(TypeContract), string(TypeDrawing), string(TypeSpec),
			string(TypeInvoice), string(TypeOther),
		},
	}
}

func contractProps() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"parties":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"contract_value": decimalProp(),
			"currency_code":  map[string]any{"type": "string", "minLength": 3, "maxLength": 3},
			"start_date":     dateProp(),
			"end_date":       dateProp(),
			"scope_of_work":  map[string]any{"type": "string"},
			"payment_terms":  map[string]any{"type": "string"},
			"retention_pct":  decimalProp(),
			"key_dates":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	}
}

func drawingProps() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"drawing_number":       map[string]any{"type": "string"},
			"revision":             map[string]any{"type": "string"},
			"discipline":           map[string]any{"type": "string"},
			"scale":                map[string]any{"type": "string"},
			"sheet_title":          map[string]any{"type": "string"},
			"drawn_by":             map[string]any{"type": "string"},
			"referenced_standards": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	}
}

func invoiceProps() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"invoice_number": map[string]any{"type": "string"},
			"vendor":         map[string]any{"type": "string"},
			"issue_date":     dateProp(),
			"due_date":       dateProp(),
			"subtotal":       decimalProp(),
			"tax":            decimalProp(),
			"total":          decimalProp(),
			"currency_code":  map[string]any{"type": "string", "minLength": 3, "maxLength": 3},
			"line_items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"description": map[string]any{"type": "string"},
						"quantity":    decimalProp(),
						"unit_price":  decimalProp(),
						"amount":      decimalProp(),
					},
				},
			},
		},
	}
}

func dateProp() map[string]any {
	return map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^-?\d+(\.\d{1,2})?$`, // allow negatives for credits
	}
}

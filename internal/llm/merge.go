package llm

// MergeOverwrite returns a new ExtractedDocument with patch's top-level
// fields overwriting base's wherever patch set them. It is a shallow
// merge with later-values-win semantics; neither input is mutated.
func MergeOverwrite(base, patch ExtractedDocument) ExtractedDocument {
	out := base
	if patch.DocumentType != "" {
		out.DocumentType = patch.DocumentType
	}
	if patch.Summary != "" {
		out.Summary = patch.Summary
	}
	if patch.Confidence > 0 {
		out.Confidence = patch.Confidence
	}
	if patch.Contract != nil {
		c := *patch.Contract
		out.Contract = &c
	}
	if patch.Drawing != nil {
		d := *patch.Drawing
		out.Drawing = &d
	}
	if patch.Invoice != nil {
		i := *patch.Invoice
		out.Invoice = &i
	}
	// the payload must still match the (possibly updated) type
	return out.Normalize()
}

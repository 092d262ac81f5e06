package common

import (
	"errors"
	"fmt"
)

// Kind identifies which pipeline stage an error belongs to, so callers
// can branch on kind instead of matching message strings.
type Kind string

const (
	KindFetch        Kind = "fetch"         // document unreachable/undownloadable
	KindExtraction   Kind = "extraction"    // text extraction produced unusable text (non-fatal)
	KindSchema       Kind = "schema"        // generation service returned no/unparseable content
	KindPersist      Kind = "persist"       // downstream write failed
	KindInvalidInput Kind = "invalid_input" // malformed request
)

// PipelineError is the application error carried through the pipeline.
type PipelineError struct {
	Kind  Kind
	Ref   string // document reference or id the error relates to
	Cause error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Ref, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Ref)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

func NewFetchError(ref string, cause error) *PipelineError {
	return &PipelineError{Kind: KindFetch, Ref: ref, Cause: cause}
}

func NewSchemaError(ref string, cause error) *PipelineError {
	return &PipelineError{Kind: KindSchema, Ref: ref, Cause: cause}
}

func NewPersistError(ref string, cause error) *PipelineError {
	return &PipelineError{Kind: KindPersist, Ref: ref, Cause: cause}
}

func NewInvalidInputError(ref string, cause error) *PipelineError {
	return &PipelineError{Kind: KindInvalidInput, Ref: ref, Cause: cause}
}

// IsKind reports whether err (or anything it wraps) is a PipelineError of
// the given kind.
func IsKind(err error, kind Kind) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or "" when err carries no PipelineError.
func KindOf(err error) Kind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

package services

import (
	"errors"
	"fmt"
)

// Guardrail violation codes. Each maps to a distinct user-facing rejection.
const (
	GuardrailFileCount      = "file_count_exceeded"
	GuardrailFileSize       = "file_too_large"
	GuardrailChunkBudget    = "chunk_budget_exceeded"
	GuardrailQueryQuota     = "query_limit_reached"
	GuardrailQuestionLength = "question_too_short"
	GuardrailEmptyIndex     = "no_documents_loaded"
)

// GuardrailViolation is a recoverable, user-correctable rejection of an
// ingest or query request. It is reported verbatim to the caller and never
// mutates committed session state.
type GuardrailViolation struct {
	Code    string
	Message string
}

func (e *GuardrailViolation) Error() string { return e.Message }

func guardrail(code, format string, args ...any) error {
	return &GuardrailViolation{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsGuardrail extracts a guardrail violation from an error chain.
func AsGuardrail(err error) (*GuardrailViolation, bool) {
	var gv *GuardrailViolation
	ok := errors.As(err, &gv)
	return gv, ok
}

// ErrEmptyCorpus is returned when retrieval is attempted against an empty
// corpus. Callers are expected to have verified non-empty state already, so
// hitting it indicates a caller bug rather than user error.
var ErrEmptyCorpus = errors.New("retrieval corpus is empty")

// ErrZeroVector is returned when a vector with zero magnitude cannot be
// normalized for cosine similarity.
var ErrZeroVector = errors.New("cannot compute similarity for zero-magnitude vector")

// DimensionMismatchError indicates vectors of unequal length reached the
// scorer, e.g. embeddings from mixed models in one index. This is a data
// integrity bug: the affected operation halts rather than producing a
// silently wrong ranking.
type DimensionMismatchError struct {
	A, B int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: %d vs %d", e.A, e.B)
}

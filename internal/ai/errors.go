package ai

import (
	"context"
	"errors"
	"fmt"
)

// FailureClass classifies a remote provider failure.
type FailureClass string

const (
	ClassTransport FailureClass = "transport"
	ClassAuth      FailureClass = "auth"
	ClassRateLimit FailureClass = "rate_limit"
	ClassTimeout   FailureClass = "timeout"
)

// Operation names the pipeline step a provider error belongs to.
const (
	OpEmbedding = "embedding"
	OpSynthesis = "synthesis"
)

// ProviderError is returned for any transport, auth, rate-limit or timeout
// failure from a remote embedding or chat-completion provider. The underlying
// cause is always carried.
type ProviderError struct {
	Op       string // OpEmbedding or OpSynthesis
	Provider string // "openai", "google"
	Class    FailureClass
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error (%s, %s): %v", e.Op, e.Provider, e.Class, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsProviderTimeout reports whether err is a provider call that ran past its
// deadline.
func IsProviderTimeout(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Class == ClassTimeout
	}
	return false
}

// IsEmbeddingError reports whether err originated in the embedding step.
func IsEmbeddingError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Op == OpEmbedding
}

// IsSynthesisError reports whether err originated in the synthesis step.
func IsSynthesisError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Op == OpSynthesis
}

func wrapError(op, provider string, class FailureClass, err error) error {
	return &ProviderError{Op: op, Provider: provider, Class: class, Err: err}
}

// classFromContext upgrades a generic classification when the call context
// expired.
func classFromContext(ctx context.Context, fallback FailureClass, err error) FailureClass {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ClassTimeout
	}
	return fallback
}

package ai

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestProviderErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := wrapError(OpEmbedding, "openai", ClassTransport, cause)

	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause not reachable via errors.Is")
	}
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatal("errors.As failed to extract ProviderError")
	}
	if pe.Op != OpEmbedding || pe.Provider != "openai" || pe.Class != ClassTransport {
		t.Errorf("unexpected fields: %+v", pe)
	}
}

func TestErrorClassPredicates(t *testing.T) {
	embedTimeout := wrapError(OpEmbedding, "google", ClassTimeout, context.DeadlineExceeded)
	synthAuth := wrapError(OpSynthesis, "openai", ClassAuth, errors.New("401"))

	if !IsProviderTimeout(embedTimeout) {
		t.Error("IsProviderTimeout = false for timeout class")
	}
	if IsProviderTimeout(synthAuth) {
		t.Error("IsProviderTimeout = true for auth class")
	}
	if !IsEmbeddingError(embedTimeout) || IsEmbeddingError(synthAuth) {
		t.Error("IsEmbeddingError misclassified op")
	}
	if !IsSynthesisError(synthAuth) || IsSynthesisError(embedTimeout) {
		t.Error("IsSynthesisError misclassified op")
	}
	if IsProviderTimeout(errors.New("plain")) {
		t.Error("IsProviderTimeout = true for non-provider error")
	}
}

func TestClassFromContextUpgradesTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	got := classFromContext(ctx, ClassTransport, errors.New("i/o error"))
	if got != ClassTimeout {
		t.Errorf("expired context: class = %q, want %q", got, ClassTimeout)
	}

	got = classFromContext(context.Background(), ClassTransport, context.DeadlineExceeded)
	if got != ClassTimeout {
		t.Errorf("deadline error: class = %q, want %q", got, ClassTimeout)
	}

	got = classFromContext(context.Background(), ClassRateLimit, errors.New("429"))
	if got != ClassRateLimit {
		t.Errorf("fallback not preserved: %q", got)
	}
}

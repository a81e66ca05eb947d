package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"invoice-qa-platform/models"
)

type recordingCompleter struct {
	system      string
	user        string
	temperature float32
	reply       string
	err         error
}

func (rc *recordingCompleter) Complete(_ context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	rc.system = systemPrompt
	rc.user = userPrompt
	rc.temperature = temperature
	if rc.err != nil {
		return "", rc.err
	}
	return rc.reply, nil
}

func TestSynthesizeBuildsGroundedPrompt(t *testing.T) {
	rc := &recordingCompleter{reply: "CGST paid: 18.00"}
	as := NewAnswerService(rc)

	chunks := []models.Chunk{
		{Text: "first passage", Source: "a.pdf", ChunkID: 0},
		{Text: "second passage", Source: "b.pdf", ChunkID: 0},
	}

	answer, err := as.Synthesize(context.Background(), "How much CGST did I pay?", chunks)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if answer != "CGST paid: 18.00" {
		t.Fatalf("answer not returned verbatim: %q", answer)
	}
	if rc.temperature != 0 {
		t.Fatalf("expected temperature 0, got %v", rc.temperature)
	}

	if !strings.Contains(rc.system, "only on the provided context") {
		t.Errorf("system instruction missing grounding clause: %q", rc.system)
	}
	if !strings.Contains(rc.user, "How much CGST did I pay?") {
		t.Error("user prompt missing the question")
	}
	want := "first passage" + chunkSeparator + "second passage"
	if !strings.Contains(rc.user, want) {
		t.Errorf("context block not joined in retrieval order:\n%s", rc.user)
	}
	if !strings.Contains(rc.user, "note that it's an inference") {
		t.Error("user prompt missing the labeled-inference license")
	}
}

func TestSynthesizePropagatesProviderError(t *testing.T) {
	boom := errors.New("completion unavailable")
	as := NewAnswerService(&recordingCompleter{err: boom})

	_, err := as.Synthesize(context.Background(), "What is the total?", []models.Chunk{{Text: "Total: 118.00"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected provider error to propagate, got %v", err)
	}
}

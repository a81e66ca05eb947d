package services

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"invoice-qa-platform/internal/ai"
	"invoice-qa-platform/models"
)

const (
	// chunkSeparator delimits passages inside the synthesis context.
	chunkSeparator = "\n\n---\n\n"

	systemInstruction = "You are a helpful assistant that answers questions based only on the provided context. Be concise and accurate."

	userPromptTemplate = `Answer the question using the context below. If the context doesn't explicitly contain the answer but you can reasonably infer it from the information provided (like determining if a food item is vegetarian based on its name), provide the answer and note that it's an inference.

Context:
%s

Question: %s

Answer:`
)

// AnswerService builds a grounded prompt from retrieved chunks and calls the
// chat-completion provider.
type AnswerService struct {
	completer ai.Completer
}

func NewAnswerService(completer ai.Completer) *AnswerService {
	return &AnswerService{completer: completer}
}

// Synthesize joins the context chunks in retrieval order, prompts the model
// with temperature 0 for reproducibility, and returns the generated text
// verbatim with no post-processing.
func (as *AnswerService) Synthesize(ctx context.Context, question string, contextChunks []models.Chunk) (string, error) {
	tracer := otel.Tracer("answer-service")
	ctx, span := tracer.Start(ctx, "answer.synthesize")
	defer span.End()
	span.SetAttributes(attribute.Int("answer.context_chunks", len(contextChunks)))

	texts := make([]string, len(contextChunks))
	for i, chunk := range contextChunks {
		texts[i] = chunk.Text
	}
	contextBlock := strings.Join(texts, chunkSeparator)

	userPrompt := fmt.Sprintf(userPromptTemplate, contextBlock, question)

	answer, err := as.completer.Complete(ctx, systemInstruction, userPrompt, 0)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	return answer, nil
}

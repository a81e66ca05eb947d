package services

import (
	"errors"
	"math"
	"testing"

	"invoice-qa-platform/models"
)

func TestCosineSimilaritySymmetry(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{-2, 0.5, 4}

	ab, err := CosineSimilarity(a, b)
	if err != nil {
		t.Fatalf("score(a,b): %v", err)
	}
	ba, err := CosineSimilarity(b, a)
	if err != nil {
		t.Fatalf("score(b,a): %v", err)
	}
	if ab != ba {
		t.Fatalf("similarity not symmetric: %v vs %v", ab, ba)
	}
}

func TestCosineSimilaritySelf(t *testing.T) {
	a := []float64{0.3, -1.7, 2.2, 0.01}
	got, err := CosineSimilarity(a, a)
	if err != nil {
		t.Fatalf("score(a,a): %v", err)
	}
	if math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("self-similarity = %v, want 1.0", got)
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	zero := []float64{0, 0, 0}
	a := []float64{1, 2, 3}

	if _, err := CosineSimilarity(zero, a); !errors.Is(err, ErrZeroVector) {
		t.Fatalf("score(zero,a): expected ErrZeroVector, got %v", err)
	}
	if _, err := CosineSimilarity(a, zero); !errors.Is(err, ErrZeroVector) {
		t.Fatalf("score(a,zero): expected ErrZeroVector, got %v", err)
	}
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float64{1, 2}, []float64{1, 2, 3})
	var dm *DimensionMismatchError
	if !errors.As(err, &dm) {
		t.Fatalf("expected DimensionMismatchError, got %v", err)
	}
}

func corpusOf(vectors ...[]float64) []models.Chunk {
	corpus := make([]models.Chunk, len(vectors))
	for i, v := range vectors {
		corpus[i] = models.Chunk{Text: "chunk", Source: "doc.pdf", ChunkID: i, Embedding: v}
	}
	return corpus
}

func TestRetrieveOrdersByDescendingScore(t *testing.T) {
	query := []float64{1, 0}
	corpus := corpusOf(
		[]float64{0, 1},   // orthogonal, score 0
		[]float64{1, 0},   // identical, score 1
		[]float64{1, 1},   // score ~0.707
	)

	results, err := Retrieve(query, corpus, 3)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Chunk.ChunkID != 1 || results[1].Chunk.ChunkID != 2 || results[2].Chunk.ChunkID != 0 {
		t.Fatalf("wrong order: %d, %d, %d", results[0].Chunk.ChunkID, results[1].Chunk.ChunkID, results[2].Chunk.ChunkID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("scores not descending at %d: %v > %v", i, results[i].Score, results[i-1].Score)
		}
	}
}

func TestRetrieveTopKBounds(t *testing.T) {
	query := []float64{1, 1}
	corpus := corpusOf([]float64{1, 0}, []float64{0, 1})

	results, err := Retrieve(query, corpus, 5)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("topK above corpus size: expected 2 results, got %d", len(results))
	}

	results, err = Retrieve(query, corpus, 1)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("topK=1: expected 1 result, got %d", len(results))
	}
}

func TestRetrieveStableTieBreak(t *testing.T) {
	query := []float64{1, 0}
	// All three score identically; first-seen corpus order must win.
	corpus := corpusOf([]float64{2, 0}, []float64{1, 0}, []float64{5, 0})

	results, err := Retrieve(query, corpus, 3)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	for i, r := range results {
		if r.Chunk.ChunkID != i {
			t.Fatalf("tie-break not stable: position %d holds chunk %d", i, r.Chunk.ChunkID)
		}
	}
}

func TestRetrieveEmptyCorpus(t *testing.T) {
	if _, err := Retrieve([]float64{1, 0}, nil, 3); !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestRetrieveHaltsOnMixedDimensions(t *testing.T) {
	query := []float64{1, 0}
	corpus := corpusOf([]float64{1, 0}, []float64{1, 0, 0})

	_, err := Retrieve(query, corpus, 2)
	var dm *DimensionMismatchError
	if !errors.As(err, &dm) {
		t.Fatalf("expected DimensionMismatchError for mixed corpus, got %v", err)
	}
}

package services

import (
	"math"
	"sort"

	"invoice-qa-platform/models"
)

// CosineSimilarity computes dot(a,b) / (|a|*|b|). A zero-magnitude vector
// cannot be normalized and fails explicitly instead of producing NaN.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, &DimensionMismatchError{A: len(a), B: len(b)}
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}

	magnitude := math.Sqrt(na) * math.Sqrt(nb)
	if magnitude == 0 {
		return 0, ErrZeroVector
	}

	return dot / magnitude, nil
}

// Retrieve scores every chunk in the corpus against the query vector and
// returns the top k by descending score. The scan is deliberately linear:
// the corpus is capped small by the ingestion guardrails, and an approximate
// index only pays off if that cap grows by an order of magnitude. Equal
// scores keep original corpus order.
func Retrieve(queryVector []float64, corpus []models.Chunk, topK int) ([]models.ScoredChunk, error) {
	if len(corpus) == 0 {
		return nil, ErrEmptyCorpus
	}

	scored := make([]models.ScoredChunk, 0, len(corpus))
	for _, chunk := range corpus {
		score, err := CosineSimilarity(queryVector, chunk.Embedding)
		if err != nil {
			return nil, err
		}
		scored = append(scored, models.ScoredChunk{Chunk: chunk, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], nil
}

package models

// Chunk is one fixed-width window of extracted document text. The embedding
// is attached during ingestion; once a chunk is committed to a session index
// it is immutable.
type Chunk struct {
	Text      string    `json:"text"`
	Source    string    `json:"source"`   // document identifier (upload filename)
	ChunkID   int       `json:"chunk_id"` // emission index within its source
	Embedding []float64 `json:"-"`
}

// ScoredChunk pairs a chunk with its similarity score during retrieval. It
// lives only for the duration of one top-k selection.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// RetrievedSource identifies one retrieved passage in an answer response.
type RetrievedSource struct {
	Source  string  `json:"source"`
	ChunkID int     `json:"chunk_id"`
	Score   float64 `json:"score"`
}

// SkippedDocument records a document dropped from an ingestion batch with the
// user-facing reason (empty or image-only extraction).
type SkippedDocument struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// DocumentInput is one already-extracted document entering ingestion.
type DocumentInput struct {
	Name    string `json:"name"`
	RawText string `json:"raw_text"`
}

// IngestResult reports the outcome of one ingestion batch.
type IngestResult struct {
	AcceptedChunks     int               `json:"accepted_chunks"`
	SkippedDocuments   []SkippedDocument `json:"skipped_documents,omitempty"`
	DocumentsProcessed int               `json:"documents_processed"`
}

// AnswerResult reports one answered question with its supporting passages.
type AnswerResult struct {
	Answer           string            `json:"answer"`
	RetrievedSources []RetrievedSource `json:"retrieved_sources"`
	QueriesRemaining int               `json:"queries_remaining"`
}

// SessionStats is a point-in-time snapshot of a session's counters.
type SessionStats struct {
	State              string `json:"state"`
	DocumentsProcessed int    `json:"documents_processed"`
	ChunksTotal        int    `json:"chunks_total"`
	QueriesAnswered    int    `json:"queries_answered"`
	QueriesRemaining   int    `json:"queries_remaining"`
}

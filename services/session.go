package services

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"invoice-qa-platform/internal/ai"
	"invoice-qa-platform/internal/config"
	"invoice-qa-platform/internal/logger"
	"invoice-qa-platform/internal/telemetry"
	"invoice-qa-platform/models"
)

// Session states.
const (
	StateEmpty     = "EMPTY"
	StateIngesting = "INGESTING"
	StateReady     = "READY"
)

// Session holds the in-memory corpus of embedded chunks for one active
// session plus its resource counters. Committed chunks are immutable;
// append and reset are serialized by the session mutex, and counter reads
// take the same lock.
type Session struct {
	ID string

	mu                 sync.Mutex
	state              string
	chunks             []models.Chunk
	documentsProcessed int
	queriesAnswered    int
	lastActivity       time.Time
}

// SessionService owns the session registry and runs the ingestion and
// question-answering pipelines against individual sessions.
type SessionService struct {
	cfg      *config.Config
	chunker  *ChunkingService
	provider ai.Provider
	answerer *AnswerService
	metrics  *telemetry.Metrics

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionService(cfg *config.Config, chunker *ChunkingService, provider ai.Provider, answerer *AnswerService, metrics *telemetry.Metrics) *SessionService {
	return &SessionService{
		cfg:      cfg,
		chunker:  chunker,
		provider: provider,
		answerer: answerer,
		metrics:  metrics,
		sessions: make(map[string]*Session),
	}
}

// CreateSession registers a new empty session.
func (ss *SessionService) CreateSession() *Session {
	session := &Session{
		ID:           uuid.NewString(),
		state:        StateEmpty,
		lastActivity: time.Now(),
	}

	ss.mu.Lock()
	ss.sessions[session.ID] = session
	ss.mu.Unlock()

	return session
}

// GetSession looks up a session by id.
func (ss *SessionService) GetSession(id string) (*Session, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	session, ok := ss.sessions[id]
	return session, ok
}

// Reset clears the session index and zeroes all counters, returning the
// session to EMPTY.
func (ss *SessionService) Reset(session *Session) {
	session.mu.Lock()
	defer session.mu.Unlock()

	session.chunks = nil
	session.documentsProcessed = 0
	session.queriesAnswered = 0
	session.state = StateEmpty
	session.lastActivity = time.Now()
}

// Stats returns a snapshot of the session counters.
func (ss *SessionService) Stats(session *Session) models.SessionStats {
	session.mu.Lock()
	defer session.mu.Unlock()

	return models.SessionStats{
		State:              session.state,
		DocumentsProcessed: session.documentsProcessed,
		ChunksTotal:        len(session.chunks),
		QueriesAnswered:    session.queriesAnswered,
		QueriesRemaining:   ss.cfg.MaxQueriesPerSession - session.queriesAnswered,
	}
}

// SweepIdle discards sessions with no activity for longer than ttl and
// returns how many were removed.
func (ss *SessionService) SweepIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	ss.mu.Lock()
	defer ss.mu.Unlock()

	removed := 0
	for id, session := range ss.sessions {
		session.mu.Lock()
		idle := session.lastActivity.Before(cutoff)
		session.mu.Unlock()
		if idle {
			delete(ss.sessions, id)
			removed++
		}
	}
	return removed
}

// Ingest runs one all-or-nothing ingestion batch: validate guardrails, chunk
// every viable document, embed every chunk, then commit the whole batch. A
// failure anywhere discards all in-flight embeddings and leaves the
// committed index untouched. The file cap is cumulative across the session:
// every uploaded file counts against it, skipped ones included, until reset.
func (ss *SessionService) Ingest(ctx context.Context, session *Session, documents []models.DocumentInput) (*models.IngestResult, error) {
	tracer := otel.Tracer("session-service")
	ctx, span := tracer.Start(ctx, "session.ingest")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", session.ID),
		attribute.Int("ingest.documents", len(documents)),
	)

	session.mu.Lock()
	session.lastActivity = time.Now()

	if session.documentsProcessed+len(documents) > ss.cfg.MaxFilesPerUpload {
		session.mu.Unlock()
		return nil, guardrail(GuardrailFileCount,
			"upload limit reached: %d of %d files used, got %d more (reset the session to start over)",
			session.documentsProcessed, ss.cfg.MaxFilesPerUpload, len(documents))
	}
	for _, doc := range documents {
		if int64(len(doc.RawText)) > ss.cfg.MaxFileSizeBytes() {
			session.mu.Unlock()
			return nil, guardrail(GuardrailFileSize,
				"%s is too large: maximum %dMB per file", doc.Name, ss.cfg.MaxFileSizeMB)
		}
	}

	// Chunk the viable documents; short extractions are skipped with a
	// warning, not a batch failure.
	var pending []models.Chunk
	var skipped []models.SkippedDocument
	for _, doc := range documents {
		if utf8.RuneCountInString(strings.TrimSpace(doc.RawText)) < ss.cfg.MinExtractedTextLen {
			skipped = append(skipped, models.SkippedDocument{
				Name:   doc.Name,
				Reason: "no text extracted (empty or image-based document)",
			})
			logger.Warn("skipping document with no usable text", "session", session.ID, "document", doc.Name)
			continue
		}
		windows := ss.chunker.ChunkText(doc.RawText)
		for i, window := range windows {
			pending = append(pending, models.Chunk{
				Text:    window,
				Source:  doc.Name,
				ChunkID: i,
			})
		}
	}

	if len(session.chunks)+len(pending) > ss.cfg.MaxChunksTotal {
		session.mu.Unlock()
		return nil, guardrail(GuardrailChunkBudget,
			"too much content: batch of %d chunks would exceed the %d chunk limit", len(pending), ss.cfg.MaxChunksTotal)
	}

	if len(pending) == 0 {
		session.documentsProcessed += len(documents)
		result := &models.IngestResult{
			AcceptedChunks:     0,
			SkippedDocuments:   skipped,
			DocumentsProcessed: session.documentsProcessed,
		}
		session.mu.Unlock()
		return result, nil
	}

	session.state = StateIngesting
	session.mu.Unlock()

	// Embedding runs without the session lock so counter reads and the
	// janitor sweep stay responsive during slow provider calls.
	if err := ss.embedBatch(ctx, pending); err != nil {
		// Abort: the whole in-flight batch is discarded, already-computed
		// embeddings included, so the index never holds a partially
		// embedded document.
		span.RecordError(err)
		session.mu.Lock()
		session.settleStateLocked()
		session.mu.Unlock()
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.lastActivity = time.Now()

	// Re-check both caps at commit: another batch may have committed while
	// the lock was released.
	if session.documentsProcessed+len(documents) > ss.cfg.MaxFilesPerUpload {
		session.settleStateLocked()
		return nil, guardrail(GuardrailFileCount,
			"upload limit reached: %d of %d files used, got %d more (reset the session to start over)",
			session.documentsProcessed, ss.cfg.MaxFilesPerUpload, len(documents))
	}
	if len(session.chunks)+len(pending) > ss.cfg.MaxChunksTotal {
		session.settleStateLocked()
		return nil, guardrail(GuardrailChunkBudget,
			"too much content: batch of %d chunks would exceed the %d chunk limit", len(pending), ss.cfg.MaxChunksTotal)
	}

	session.chunks = append(session.chunks, pending...)
	session.documentsProcessed += len(documents)
	session.state = StateReady

	if ss.metrics != nil {
		ss.metrics.RecordChunksIngested(int64(len(pending)), ss.provider.Name())
	}
	logger.Info("ingestion batch committed",
		"session", session.ID,
		"documents", len(documents),
		"chunks", len(pending),
		"skipped", len(skipped),
	)

	return &models.IngestResult{
		AcceptedChunks:     len(pending),
		SkippedDocuments:   skipped,
		DocumentsProcessed: session.documentsProcessed,
	}, nil
}

// settleStateLocked returns a session left in INGESTING to the state implied
// by its committed index. Caller holds the session mutex.
func (s *Session) settleStateLocked() {
	if len(s.chunks) > 0 {
		s.state = StateReady
	} else {
		s.state = StateEmpty
	}
}

// embedBatch attaches embeddings to every pending chunk using a small worker
// pool. Any worker failure cancels the rest; the caller discards the batch.
func (ss *SessionService) embedBatch(ctx context.Context, pending []models.Chunk) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ss.cfg.EmbedWorkers)

	for i := range pending {
		i := i
		g.Go(func() error {
			vector, err := ss.provider.Embed(gctx, pending[i].Text)
			if err != nil {
				return err
			}
			pending[i].Embedding = vector
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Mixing dimensionalities within one index is undefined behavior;
	// reject the batch before commit.
	dim := len(pending[0].Embedding)
	for i := range pending {
		if len(pending[i].Embedding) != dim {
			return &DimensionMismatchError{A: dim, B: len(pending[i].Embedding)}
		}
	}
	return nil
}

// Ask answers one question against the committed session index. The query
// counter is consumed at acceptance, before any provider call: a downstream
// provider failure still spends quota.
func (ss *SessionService) Ask(ctx context.Context, session *Session, question string) (*models.AnswerResult, error) {
	tracer := otel.Tracer("session-service")
	ctx, span := tracer.Start(ctx, "session.ask")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", session.ID))

	session.mu.Lock()
	session.lastActivity = time.Now()

	if session.queriesAnswered >= ss.cfg.MaxQueriesPerSession {
		session.mu.Unlock()
		return nil, guardrail(GuardrailQueryQuota,
			"query limit reached: %d per session", ss.cfg.MaxQueriesPerSession)
	}
	if utf8.RuneCountInString(strings.TrimSpace(question)) < ss.cfg.MinQuestionLength {
		session.mu.Unlock()
		return nil, guardrail(GuardrailQuestionLength,
			"please ask a more detailed question (minimum %d characters)", ss.cfg.MinQuestionLength)
	}
	if session.state != StateReady || len(session.chunks) == 0 {
		session.mu.Unlock()
		return nil, guardrail(GuardrailEmptyIndex,
			"no documents loaded: upload and process documents first")
	}

	session.queriesAnswered++
	remaining := ss.cfg.MaxQueriesPerSession - session.queriesAnswered
	// Committed chunks are immutable, so queries read the snapshot without
	// holding the lock.
	corpus := session.chunks
	session.mu.Unlock()

	if ss.metrics != nil {
		ss.metrics.RecordQuery(ss.provider.Name())
	}

	queryVector, err := ss.provider.Embed(ctx, question)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	topChunks, err := Retrieve(queryVector, corpus, ss.cfg.TopK)
	if err != nil {
		logger.Error("retrieval failed", "session", session.ID, "error", err)
		span.RecordError(err)
		return nil, err
	}

	contextChunks := make([]models.Chunk, len(topChunks))
	sources := make([]models.RetrievedSource, len(topChunks))
	for i, sc := range topChunks {
		contextChunks[i] = sc.Chunk
		sources[i] = models.RetrievedSource{
			Source:  sc.Chunk.Source,
			ChunkID: sc.Chunk.ChunkID,
			Score:   sc.Score,
		}
	}

	answer, err := ss.answerer.Synthesize(ctx, question, contextChunks)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return &models.AnswerResult{
		Answer:           answer,
		RetrievedSources: sources,
		QueriesRemaining: remaining,
	}, nil
}

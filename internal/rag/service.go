// Package rag implements the retrieval-augmented generation core: tenant-scoped
// document ingestion and query answering with source attribution.
//
// The Service is constructed with injected capabilities (embedder, generator,
// chunk store) so request handlers share one instance and tests substitute
// doubles. There is no package-level state.
//
// Isolation model: chunks carry a tenant tag, queries filter on it inside the
// similarity search. Tagging, not locking, keeps tenants apart; concurrent
// upserts and queries interleave freely (eventual, not linearizable,
// consistency between an in-flight upsert and a query is accepted).
package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"

	"github.com/okanon/oracle/internal/chunk"
	"github.com/okanon/oracle/internal/vecstore"
)

// systemPrompt constrains generation to the retrieved context.
const systemPrompt = "You are a helpful knowledge oracle. " +
	"Answer strictly based on the provided context. " +
	"If the context does not contain the answer, say so."

// maxPassageContextLen caps the text of a single passage handed to
// generation, bounding the assembled context window.
const maxPassageContextLen = 2000

// ChunkStore is the vector store surface the pipelines need.
// *vecstore.Store satisfies it; tests use an in-memory fake.
type ChunkStore interface {
	// Upsert appends embedded chunks (strict append, no dedup).
	Upsert(ctx context.Context, records []vecstore.Record) error

	// Query returns the k nearest chunks for the tenant, most similar first.
	// The tenant filter is applied during the similarity search itself.
	Query(ctx context.Context, vec []float32, tenantID string, k int) ([]vecstore.Passage, error)
}

// Turn is one prior conversation exchange passed along to generation.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// Generator is the opaque generation capability.
type Generator interface {
	// Generate produces an answer from the system instruction, prior turns,
	// the user message and the retrieved context passages.
	Generate(ctx context.Context, system string, history []Turn, message string, contextPassages []string) (string, error)
}

// Source is one cited passage accompanying an answer.
type Source struct {
	FileName     string
	SectionLabel string  // "N/A" when the passage has no section label
	Snippet      string  // at most 200 characters plus the ellipsis marker
	Score        float64 // 0.0 when no similarity score is available
}

// Answer is the result of one query: the generated text and the passages the
// generation was conditioned on, in retrieval rank order.
type Answer struct {
	Text    string
	Sources []Source
}

// Config collects the Service dependencies.
type Config struct {
	Embedder  ai.Embedder
	Generator Generator
	Store     ChunkStore
	Stager    *chunk.Stager
	Splitter  *chunk.Splitter
	TopK      int // passages retrieved per query (<=0 = 4)
	Logger    *slog.Logger

	// EmbedOptions is passed through to every embed request. Providers use
	// it to fix the output dimensionality to the store's column width.
	EmbedOptions any
}

// Service is the RAG core. Safe for concurrent use; each request is an
// independent sequential unit of work.
type Service struct {
	embedder  ai.Embedder
	embedOpts any
	gen       Generator
	store     ChunkStore
	stager    *chunk.Stager
	splitter  *chunk.Splitter
	topK      int
	logger    *slog.Logger
}

// New creates a Service. Embedder, Generator, Store and Stager are required.
func New(cfg Config) (*Service, error) {
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("chunk store is required")
	}
	if cfg.Stager == nil {
		return nil, fmt.Errorf("stager is required")
	}
	splitter := cfg.Splitter
	if splitter == nil {
		splitter = chunk.NewSplitter(0, 0)
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 4
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		embedder:  cfg.Embedder,
		embedOpts: cfg.EmbedOptions,
		gen:       cfg.Generator,
		store:     cfg.Store,
		stager:    cfg.Stager,
		splitter:  splitter,
		topK:      topK,
		logger:    logger,
	}, nil
}

// Ingest stages, loads, chunks, embeds and stores an upload batch for one
// tenant. Returns the number of files processed.
//
// Re-ingesting the same file appends new chunks; nothing is overwritten or
// deduplicated. A failure mid-batch aborts with a single error; chunks
// already upserted stay, since no transaction spans embed and store.
func (s *Service) Ingest(ctx context.Context, tenantID string, files []chunk.File) (int, error) {
	if tenantID == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidTenant)
	}
	prefix := SanitizeTenantID(tenantID)
	if prefix == "" {
		return 0, fmt.Errorf("%w: %q has no filesystem-safe characters", ErrInvalidTenant, tenantID)
	}
	if len(files) == 0 {
		return 0, nil
	}

	dir, cleanup, err := s.stager.Stage(files, prefix)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	// Staging is removed on every exit path; failures inside cleanup are
	// logged by the stager, not surfaced, since the result is decided here.
	defer cleanup()

	units, err := chunk.Load(dir)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLoad, err)
	}

	chunks := s.splitter.SplitAll(units)
	if len(chunks) == 0 {
		s.logger.Debug("upload contained no indexable text", "tenant", tenantID, "files", len(files))
		return len(files), nil
	}

	records := make([]vecstore.Record, 0, len(chunks))
	for _, c := range chunks {
		vec, err := s.embedText(ctx, c.Text)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrEmbedding, err)
		}
		records = append(records, vecstore.Record{
			TenantID:     tenantID,
			Text:         c.Text,
			SourceFile:   c.SourceFile,
			SectionLabel: c.SectionLabel,
			Embedding:    vec,
		})
	}

	if err := s.store.Upsert(ctx, records); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStore, err)
	}

	s.logger.Info("ingested upload batch",
		"tenant", tenantID, "files", len(files), "chunks", len(records))
	return len(files), nil
}

// Query answers a user message from the tenant's indexed documents.
//
// Zero retrieved passages is not an error: generation still runs with an
// empty context and produces an ungrounded answer with an empty source list.
// Callers wanting a hard stop on "no knowledge yet" check Sources themselves.
func (s *Service) Query(ctx context.Context, tenantID, message string, history []Turn) (*Answer, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidTenant)
	}

	vec, err := s.embedText(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	passages, err := s.store.Query(ctx, vec, tenantID, s.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	contexts := make([]string, len(passages))
	for i, p := range passages {
		contexts[i] = boundPassage(p.Text)
	}

	text, err := s.gen.Generate(ctx, systemPrompt, history, message, contexts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	// Sources are exactly the passages generation was conditioned on,
	// in rank order. No re-ranking happens after generation.
	sources := make([]Source, len(passages))
	for i, p := range passages {
		sources[i] = sourceFromPassage(p)
	}

	s.logger.Debug("answered query",
		"tenant", tenantID, "passages", len(passages), "answer_length", len(text))
	return &Answer{Text: text, Sources: sources}, nil
}

// embedText generates the embedding vector for a piece of text.
func (s *Service) embedText(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input:   []*ai.Document{ai.DocumentFromText(text, nil)},
		Options: s.embedOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return resp.Embeddings[0].Embedding, nil
}

// boundPassage caps one passage's contribution to the generation context.
func boundPassage(text string) string {
	if len(text) <= maxPassageContextLen {
		return text
	}
	return text[:maxPassageContextLen]
}

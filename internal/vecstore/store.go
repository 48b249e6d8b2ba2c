// Package vecstore persists embedded chunks in PostgreSQL + pgvector and
// serves tenant-filtered nearest-neighbor queries.
//
// Isolation is enforced inside the similarity query itself: the tenant
// predicate sits in the WHERE clause of the ANN search, so a tenant's top-k
// is computed over that tenant's chunks only. Filtering an unfiltered top-k
// after the fact would under-return whenever a tenant's matches rank below
// other tenants' chunks.
package vecstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// VectorDimension is the embedding dimensionality of the chunks table.
// All records in the collection must share it; the vector(768) column type
// makes PostgreSQL reject anything else.
const VectorDimension int32 = 768

// MaxTopK bounds a single query's result size.
const MaxTopK = 50

// Record is an embedded chunk ready for storage.
type Record struct {
	TenantID     string
	Text         string
	SourceFile   string
	SectionLabel string // empty when the source format has no sections
	Embedding    []float32
}

// Passage is a retrieval result. Rank is implied by slice order
// (most similar first).
type Passage struct {
	Text         string
	SourceFile   string
	SectionLabel string
	Similarity   float64 // cosine similarity in [-1, 1], 1 = identical direction
}

// Store is the vector store adapter. It is safe for concurrent use; upserts
// and queries from different requests interleave without locking, and a query
// may or may not observe a concurrent in-flight upsert.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Upsert appends records to the collection. It is a strict append: ingesting
// identical content twice stores it twice. Content dedup is an explicit
// non-goal of this store.
func (s *Store) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, r := range records {
		if r.TenantID == "" {
			return fmt.Errorf("record %d: tenant ID is required", i)
		}
		if r.Text == "" {
			return fmt.Errorf("record %d: text is required", i)
		}
		batch.Queue(
			`INSERT INTO chunks (tenant_id, content, source_file, section_label, embedding)
			 VALUES ($1, $2, $3, $4, $5)`,
			r.TenantID, r.Text, r.SourceFile, r.SectionLabel, pgvector.NewVector(r.Embedding),
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer func() {
		_ = results.Close()
	}()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}
	}

	s.logger.Debug("upserted chunks", "count", len(records), "tenant", records[0].TenantID)
	return nil
}

// Query returns the k chunks nearest to vec among the tenant's chunks,
// most similar first. The tenant filter is part of the search predicate,
// never a post-filter.
func (s *Store) Query(ctx context.Context, vec []float32, tenantID string, k int) ([]Passage, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant ID is required")
	}
	if k <= 0 {
		k = 5
	}
	if k > MaxTopK {
		k = MaxTopK
	}

	rows, err := s.pool.Query(ctx,
		`SELECT content, source_file, section_label, 1 - (embedding <=> $2) AS similarity
		 FROM chunks
		 WHERE tenant_id = $1
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		tenantID, pgvector.NewVector(vec), k,
	)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var passages []Passage
	for rows.Next() {
		var p Passage
		if err := rows.Scan(&p.Text, &p.SourceFile, &p.SectionLabel, &p.Similarity); err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chunk rows: %w", err)
	}

	return passages, nil
}

// Count returns the number of stored chunks for a tenant.
// An empty tenantID counts the whole collection.
func (s *Store) Count(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	var err error
	if tenantID == "" {
		err = s.pool.QueryRow(ctx, `SELECT count(*) FROM chunks`).Scan(&count)
	} else {
		err = s.pool.QueryRow(ctx, `SELECT count(*) FROM chunks WHERE tenant_id = $1`, tenantID).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// WipeAll destroys the entire collection. Whole-collection rebuild workflows
// only; the tenant-scoped paths never call this.
func (s *Store) WipeAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE chunks`); err != nil {
		return fmt.Errorf("wiping chunks: %w", err)
	}
	s.logger.Info("vector collection wiped")
	return nil
}

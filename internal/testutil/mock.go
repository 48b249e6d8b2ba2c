package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"

	"github.com/okanon/oracle/internal/rag"
	"github.com/okanon/oracle/internal/vecstore"
)

// Embedder is a deterministic ai.Embedder double. Identical text always maps
// to the same vector; SetVector pins an exact vector for chosen text so tests
// can control similarity ordering.
type Embedder struct {
	mu      sync.Mutex
	pinned  map[string][]float32
	Err     error // when set, every Embed call fails with it
	Calls   int
	nameTag string
}

// NewEmbedder creates a deterministic embedder producing vectors of the
// store's dimensionality.
func NewEmbedder() *Embedder {
	return &Embedder{pinned: make(map[string][]float32), nameTag: "test/embedder"}
}

// SetVector pins the vector returned for exactly this text.
func (e *Embedder) SetVector(text string, vec []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pinned[text] = vec
}

func (e *Embedder) Name() string { return e.nameTag }

func (e *Embedder) Register(r api.Registry) {}

func (e *Embedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Calls++
	if e.Err != nil {
		return nil, e.Err
	}

	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		text := DocumentText(doc)
		vec, ok := e.pinned[text]
		if !ok {
			vec = DeterministicVector(text)
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{Embedding: vec})
	}
	return resp, nil
}

// DeterministicVector expands a SHA-256 of the text into a unit-scale vector
// of the store's dimensionality. Equal text gives equal vectors; different
// text gives vectors that are far apart with overwhelming probability.
func DeterministicVector(text string) []float32 {
	dim := int(vecstore.VectorDimension)
	vec := make([]float32, dim)
	sum := sha256.Sum256([]byte(text))
	for i := range vec {
		if i%len(sum) == 0 && i > 0 {
			sum = sha256.Sum256(sum[:])
		}
		b := sum[i%len(sum)]
		vec[i] = float32(b)/255.0 - 0.5
	}
	// Mix in position so rotations of the digest stay distinct.
	var head [4]byte
	copy(head[:], sum[:4])
	seed := binary.BigEndian.Uint32(head[:])
	vec[0] = float32(seed%1000)/1000.0 - 0.5
	return vec
}

// DocumentText flattens a document's text parts.
func DocumentText(doc *ai.Document) string {
	var b strings.Builder
	for _, part := range doc.Content {
		b.WriteString(part.Text)
	}
	return b.String()
}

// MemStore is an in-memory rag.ChunkStore. Ranking is exact-match first:
// a query vector identical to a stored embedding scores 1.0, everything else
// 0.5. That is enough to assert tenant scoping and rank order without a
// database.
type MemStore struct {
	mu      sync.Mutex
	Records []vecstore.Record
}

func (m *MemStore) Upsert(ctx context.Context, records []vecstore.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append(m.Records, records...)
	return nil
}

func (m *MemStore) Query(ctx context.Context, vec []float32, tenantID string, k int) ([]vecstore.Passage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var exact, rest []vecstore.Passage
	for _, r := range m.Records {
		if r.TenantID != tenantID {
			continue
		}
		p := vecstore.Passage{
			Text:         r.Text,
			SourceFile:   r.SourceFile,
			SectionLabel: r.SectionLabel,
			Similarity:   0.5,
		}
		if vectorsEqual(r.Embedding, vec) {
			p.Similarity = 1.0
			exact = append(exact, p)
			continue
		}
		rest = append(rest, p)
	}
	passages := append(exact, rest...)
	if len(passages) > k {
		passages = passages[:k]
	}
	return passages, nil
}

func vectorsEqual(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Generator is a scripted rag.Generator double. With no script it echoes a
// summary of what it received, which is enough for pipeline assertions.
type Generator struct {
	mu        sync.Mutex
	Responses map[string]string // message -> canned answer
	Err       error
	LastCall  GeneratorCall
}

// GeneratorCall records the arguments of the most recent Generate call.
type GeneratorCall struct {
	System   string
	History  []rag.Turn
	Message  string
	Contexts []string
}

func (g *Generator) Generate(ctx context.Context, system string, history []rag.Turn, message string, contextPassages []string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	g.LastCall = GeneratorCall{System: system, History: history, Message: message, Contexts: contextPassages}
	if canned, ok := g.Responses[message]; ok {
		return canned, nil
	}
	return fmt.Sprintf("answer to %q from %d passages", message, len(contextPassages)), nil
}

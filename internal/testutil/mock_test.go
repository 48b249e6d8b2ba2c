package testutil

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/ai"

	"github.com/okanon/oracle/internal/vecstore"
)

func TestDeterministicVector(t *testing.T) {
	a := DeterministicVector("the same text")
	b := DeterministicVector("the same text")
	c := DeterministicVector("different text")

	if len(a) != int(vecstore.VectorDimension) {
		t.Fatalf("vector length = %d, want %d", len(a), vecstore.VectorDimension)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("equal text produced unequal vectors at index %d", i)
		}
	}

	equal := true
	for i := range a {
		if a[i] != c[i] {
			equal = false
			break
		}
	}
	if equal {
		t.Error("different text produced identical vectors")
	}
}

func TestEmbedder_PinnedVector(t *testing.T) {
	e := NewEmbedder()
	pinned := make([]float32, vecstore.VectorDimension)
	pinned[0] = 1.0
	e.SetVector("pinned", pinned)

	resp, err := e.Embed(context.Background(), &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText("pinned", nil)},
	})
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if got := resp.Embeddings[0].Embedding[0]; got != 1.0 {
		t.Errorf("pinned vector not returned, element 0 = %v", got)
	}
}

func TestGenerator_CannedResponse(t *testing.T) {
	g := &Generator{Responses: map[string]string{"hello": "canned"}}

	got, err := g.Generate(context.Background(), "sys", nil, "hello", nil)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if got != "canned" {
		t.Errorf("Generate() = %q, want %q", got, "canned")
	}
	if g.LastCall.System != "sys" {
		t.Errorf("LastCall.System = %q, want %q", g.LastCall.System, "sys")
	}
}

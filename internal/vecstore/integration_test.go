//go:build integration
// +build integration

package vecstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okanon/oracle/internal/log"
	"github.com/okanon/oracle/internal/testutil"
	"github.com/okanon/oracle/internal/vecstore"
)

func newIntegrationStore(t *testing.T) (*vecstore.Store, func()) {
	t.Helper()
	db, cleanup := testutil.SetupTestDB(t)
	store, err := vecstore.NewStore(db.Pool, log.NewNop())
	require.NoError(t, err)
	return store, cleanup
}

func record(tenant, text string) vecstore.Record {
	return vecstore.Record{
		TenantID:   tenant,
		Text:       text,
		SourceFile: "doc.txt",
		Embedding:  testutil.DeterministicVector(text),
	}
}

func TestStore_UpsertAndQuery_Integration(t *testing.T) {
	store, cleanup := newIntegrationStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []vecstore.Record{
		record("u1", "The sky is blue."),
		record("u1", "Grass is green."),
	}))

	passages, err := store.Query(ctx, testutil.DeterministicVector("The sky is blue."), "u1", 2)
	require.NoError(t, err)
	require.Len(t, passages, 2)

	// Exact vector match must rank first with similarity 1.
	assert.Equal(t, "The sky is blue.", passages[0].Text)
	assert.InDelta(t, 1.0, passages[0].Similarity, 1e-6)
	assert.Greater(t, passages[0].Similarity, passages[1].Similarity)
}

func TestStore_TenantIsolation_Integration(t *testing.T) {
	store, cleanup := newIntegrationStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []vecstore.Record{record("u1", "The sky is blue.")}))

	// A different tenant querying with the identical vector gets nothing.
	passages, err := store.Query(ctx, testutil.DeterministicVector("The sky is blue."), "u2", 5)
	require.NoError(t, err)
	assert.Empty(t, passages, "tenant u2 must not see u1's chunks")

	own, err := store.Query(ctx, testutil.DeterministicVector("The sky is blue."), "u1", 5)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "The sky is blue.", own[0].Text)
}

func TestStore_AppendOnly_Integration(t *testing.T) {
	store, cleanup := newIntegrationStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []vecstore.Record{record("u1", "A repeated statement.")}))
	require.NoError(t, store.Upsert(ctx, []vecstore.Record{record("u1", "A repeated statement.")}))

	count, err := store.Count(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count, "identical content ingested twice must be stored twice")
}

func TestStore_WipeAll_Integration(t *testing.T) {
	store, cleanup := newIntegrationStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []vecstore.Record{
		record("u1", "one."),
		record("u2", "two."),
	}))

	require.NoError(t, store.WipeAll(ctx))

	count, err := store.Count(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStore_RejectsWrongDimension_Integration(t *testing.T) {
	store, cleanup := newIntegrationStore(t)
	defer cleanup()

	err := store.Upsert(context.Background(), []vecstore.Record{{
		TenantID:  "u1",
		Text:      "bad vector",
		Embedding: []float32{0.1, 0.2, 0.3},
	}})
	assert.Error(t, err, "vector(768) column must reject a 3-dim embedding")
}

// Package storagetest holds behaviour tests shared by every VectorStore
// backend.
package storagetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/agentmem-go/pkg/storage"
)

// Factory returns a fresh, empty store. The store is closed by the suite.
type Factory func(t *testing.T) storage.VectorStore

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func record(id int64, agentID, content string, emb []float64, created time.Time) *storage.Memory {
	return &storage.Memory{
		ID:             id,
		AgentID:        agentID,
		Content:        content,
		Embedding:      emb,
		Importance:     float64(id) / 10,
		Metadata:       map[string]interface{}{"source": "test"},
		CreatedAt:      created,
		LastAccessedAt: created,
	}
}

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	setup := func(t *testing.T) (storage.VectorStore, func()) {
		store := newStore(t)
		return store, func() { _ = store.Close() }
	}

	t.Run("InsertAndGet", func(t *testing.T) {
		store, cleanup := setup(t)
		defer cleanup()
		ctx := context.Background()

		m := record(1, "alice", "likes green tea", []float64{1, 0, 0}, t0)
		require.NoError(t, store.Insert(ctx, m))

		got, err := store.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.AgentID)
		assert.Equal(t, "likes green tea", got.Content)
		assert.InDelta(t, 0.1, got.Importance, 1e-9)
		assert.True(t, got.CreatedAt.Equal(t0))
		assert.True(t, got.LastAccessedAt.Equal(t0))
		assert.Equal(t, "test", got.Metadata["source"])
		assert.InDeltaSlice(t, []float64{1, 0, 0}, got.Embedding, 1e-6)
	})

	t.Run("GetUnknown", func(t *testing.T) {
		store, cleanup := setup(t)
		defer cleanup()

		_, err := store.Get(context.Background(), 42)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("SearchEmpty", func(t *testing.T) {
		store, cleanup := setup(t)
		defer cleanup()

		got, err := store.Search(context.Background(), []float64{1, 0, 0}, &storage.SearchOptions{AgentID: "alice"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("SearchRanksBySimilarity", func(t *testing.T) {
		store, cleanup := setup(t)
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Insert(ctx,
			record(1, "alice", "far", []float64{0, 1, 0}, t0),
			record(2, "alice", "near", []float64{1, 0.1, 0}, t0),
			record(3, "alice", "exact", []float64{1, 0, 0}, t0),
			record(4, "bob", "other agent", []float64{1, 0, 0}, t0),
		))

		got, err := store.Search(ctx, []float64{1, 0, 0}, &storage.SearchOptions{AgentID: "alice", Limit: 2})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(3), got[0].ID)
		assert.Equal(t, int64(2), got[1].ID)
		assert.InDelta(t, 1.0, got[0].Score, 1e-3)
		assert.Greater(t, got[0].Score, got[1].Score)
	})

	t.Run("SearchFilterAndMinScore", func(t *testing.T) {
		store, cleanup := setup(t)
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Insert(ctx,
			record(1, "alice", "low importance", []float64{1, 0, 0}, t0),
			record(5, "alice", "high importance", []float64{1, 0.2, 0}, t0.Add(time.Hour)),
			record(6, "alice", "orthogonal", []float64{0, 0, 1}, t0.Add(2*time.Hour)),
		))

		got, err := store.Search(ctx, []float64{1, 0, 0}, &storage.SearchOptions{
			AgentID: "alice",
			Filter:  storage.MinImportance(0.5),
		})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(5), got[0].ID)

		got, err = store.Search(ctx, []float64{1, 0, 0}, &storage.SearchOptions{
			AgentID:  "alice",
			MinScore: 0.5,
			Filter:   &storage.Filter{Metadata: map[string]interface{}{"source": "test"}},
		})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(1), got[0].ID)
		assert.Equal(t, int64(5), got[1].ID)
	})

	t.Run("ListOrderAndPaging", func(t *testing.T) {
		store, cleanup := setup(t)
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Insert(ctx,
			record(3, "alice", "c", []float64{1, 0, 0}, t0.Add(2*time.Hour)),
			record(1, "alice", "a", []float64{1, 0, 0}, t0),
			record(2, "alice", "b", []float64{0, 1, 0}, t0.Add(time.Hour)),
			record(4, "bob", "d", []float64{0, 1, 0}, t0),
		))

		all, err := store.List(ctx, &storage.ListOptions{AgentID: "alice"})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"a", "b", "c"}, contents(all))

		page, err := store.List(ctx, &storage.ListOptions{AgentID: "alice", Offset: 1, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, contents(page))

		window, err := store.List(ctx, &storage.ListOptions{
			AgentID: "alice",
			Filter:  storage.CreatedBetween(t0.Add(time.Hour), t0.Add(2*time.Hour)),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, contents(window))

		contains, err := store.List(ctx, &storage.ListOptions{Filter: &storage.Filter{ContentContains: "d"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"d"}, contents(contains))
	})

	t.Run("TouchNeverBeforeCreation", func(t *testing.T) {
		store, cleanup := setup(t)
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Insert(ctx,
			record(1, "alice", "a", []float64{1, 0, 0}, t0),
			record(2, "alice", "b", []float64{0, 1, 0}, t0.Add(3*time.Hour)),
		))

		at := t0.Add(time.Hour)
		require.NoError(t, store.Touch(ctx, at, 1, 2))

		a, err := store.Get(ctx, 1)
		require.NoError(t, err)
		assert.True(t, a.LastAccessedAt.Equal(at))

		b, err := store.Get(ctx, 2)
		require.NoError(t, err)
		assert.True(t, b.LastAccessedAt.Equal(t0.Add(3*time.Hour)))
	})

	t.Run("Count", func(t *testing.T) {
		store, cleanup := setup(t)
		defer cleanup()
		ctx := context.Background()

		n, err := store.Count(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		require.NoError(t, store.Insert(ctx,
			record(1, "alice", "a", []float64{1, 0, 0}, t0),
			record(2, "bob", "b", []float64{0, 1, 0}, t0),
		))
		n, err = store.Count(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = store.Count(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("InsertIsAtomic", func(t *testing.T) {
		store, cleanup := setup(t)
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Insert(ctx, record(1, "alice", "a", []float64{1, 0, 0}, t0)))
		err := store.Insert(ctx,
			record(2, "alice", "b", []float64{0, 1, 0}, t0),
			record(1, "alice", "duplicate", []float64{0, 1, 0}, t0),
		)
		assert.Error(t, err)

		n, err := store.Count(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("ConcurrentInsert", func(t *testing.T) {
		store, cleanup := setup(t)
		defer cleanup()
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 1; i <= 8; i++ {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				assert.NoError(t, store.Insert(ctx, record(id, "alice", "m", []float64{1, float64(id), 0}, t0)))
			}(int64(i))
		}
		wg.Wait()

		n, err := store.Count(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 8, n)
	})
}

func contents(memories []*storage.Memory) []string {
	out := make([]string, len(memories))
	for i, m := range memories {
		out[i] = m.Content
	}
	return out
}

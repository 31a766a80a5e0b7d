package chromem_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/agentmem-go/pkg/storage"
	"github.com/oceanbase/agentmem-go/pkg/storage/chromem"
	"github.com/oceanbase/agentmem-go/pkg/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.VectorStore {
		return chromem.New()
	})
}

func TestStore_ZeroQueryVector(t *testing.T) {
	store := chromem.New()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Insert(ctx, &storage.Memory{
		ID: 1, AgentID: "a", Content: "x", Embedding: []float64{1, 0}, CreatedAt: now,
	}))

	got, err := store.Search(ctx, []float64{0, 0}, &storage.SearchOptions{AgentID: "a"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0.0, got[0].Score)
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := chromem.New()
	ctx := context.Background()

	m := &storage.Memory{ID: 1, AgentID: "a", Content: "x", Embedding: []float64{1, 0}, CreatedAt: time.Now()}
	require.NoError(t, store.Insert(ctx, m))
	m.Content = "mutated"

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Content)

	got.Content = "mutated again"
	again, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "x", again.Content)
}

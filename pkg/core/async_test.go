package core_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/agentmem-go/pkg/core"
	"github.com/oceanbase/agentmem-go/pkg/llm/mock"
)

func TestAsyncManager(t *testing.T) {
	provider := mock.New().
		On(ratingMarker, `{"rating": 5}`).
		On(batchMarker, `{"ratings": [4, 6]}`)
	f := newFixture(t, core.MemoryConfig{}, provider)
	am := core.NewAsyncManager(f.manager)
	ctx := context.Background()

	var results []<-chan *core.IDResult
	for i := 0; i < 5; i++ {
		results = append(results, am.AddMemoryAsync(ctx, fmt.Sprintf("observation %d", i)))
	}
	am.Wait()

	seen := map[int64]bool{}
	for _, ch := range results {
		result := <-ch
		require.NoError(t, result.Error)
		assert.False(t, seen[result.ID], "ids are unique")
		seen[result.ID] = true

		_, open := <-ch
		assert.False(t, open, "channel closed after one result")
	}
	assert.Equal(t, 5, am.Len())

	batch := <-am.AddMemoriesAsync(ctx, "first thing; second thing")
	require.NoError(t, batch.Error)
	assert.Len(t, batch.IDs, 2)

	fetched := <-am.FetchMemoriesAsync(ctx, "observation", core.WithK(3))
	require.NoError(t, fetched.Error)
	assert.Len(t, fetched.Memories, 3)
}

func TestAsyncManager_PauseToReflect(t *testing.T) {
	provider := mock.New().
		On(ratingMarker, `{"rating": 5}`).
		On(topicsMarker, "What does Xiao Li like?").
		On(insightsMarker, "Xiao Li likes tea")
	f := newFixture(t, core.MemoryConfig{}, provider)
	am := core.NewAsyncManager(f.manager)
	ctx := context.Background()

	require.NoError(t, (<-am.AddMemoryAsync(ctx, "Xiao Li drinks tea every morning")).Error)

	result := <-am.PauseToReflectAsync(ctx)
	require.NoError(t, result.Error)
	assert.Equal(t, []string{"Xiao Li likes tea"}, result.Insights)
	assert.Equal(t, 2, am.Len())
}

func TestAsyncManager_Error(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{}, nil)
	am := core.NewAsyncManager(f.manager)

	result := <-am.AddMemoryAsync(context.Background(), "   ")
	assert.ErrorIs(t, result.Error, core.ErrEmptyContent)
	assert.Zero(t, result.ID)
}

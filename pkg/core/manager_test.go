package core_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/agentmem-go/pkg/clock"
	"github.com/oceanbase/agentmem-go/pkg/core"
	mockEmbedder "github.com/oceanbase/agentmem-go/pkg/embedder/mock"
	"github.com/oceanbase/agentmem-go/pkg/intelligence"
	"github.com/oceanbase/agentmem-go/pkg/llm/mock"
	"github.com/oceanbase/agentmem-go/pkg/storage"
	chromemStore "github.com/oceanbase/agentmem-go/pkg/storage/chromem"
	sqliteStore "github.com/oceanbase/agentmem-go/pkg/storage/sqlite"
	"github.com/oceanbase/agentmem-go/pkg/tokenizer"
)

const (
	ratingMarker   = "Memory: "
	batchMarker    = "Memories:\n"
	topicsMarker   = "most salient high-level questions"
	insightsMarker = "high-level novel insights"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func ptr(f float64) *float64 { return &f }

type fixture struct {
	manager *core.Manager
	llm     *mock.Provider
	clock   *clock.Mock
}

func newFixture(t *testing.T, cfg core.MemoryConfig, provider *mock.Provider) *fixture {
	t.Helper()
	return newFixtureWithStore(t, cfg, provider, chromemStore.New())
}

func newFixtureWithStore(t *testing.T, cfg core.MemoryConfig, provider *mock.Provider, store storage.VectorStore) *fixture {
	t.Helper()
	if provider == nil {
		provider = mock.New().On(ratingMarker, `{"rating": 5}`)
	}
	clk := clock.NewMock(t0)
	manager, err := core.NewManager(core.Dependencies{
		LLM:         provider,
		Embedder:    mockEmbedder.New(1024),
		VectorStore: store,
		Tokenizer:   tokenizer.Runes{},
		Clock:       clk,
	}, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })
	return &fixture{manager: manager, llm: provider, clock: clk}
}

func contents(memories []*core.Memory) []string {
	out := make([]string, len(memories))
	for i, m := range memories {
		out[i] = m.Content
	}
	return out
}

func TestNewManager_RequiresCollaborators(t *testing.T) {
	_, err := core.NewManager(core.Dependencies{LLM: mock.New()}, core.MemoryConfig{})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestNewManager_GeneratesAgentID(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{}, nil)
	assert.NotEmpty(t, f.manager.AgentID())
	assert.Equal(t, core.DefaultRetrieverK, f.manager.Config().RetrieverK)
}

func TestAddMemory_ScoresAndStores(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{AgentID: "xiaoli"}, mock.New().On(ratingMarker, `{"rating": 8}`))
	ctx := context.Background()

	id, err := f.manager.AddMemory(ctx, "  Got accepted to graduate school  ",
		core.WithMetadata(map[string]interface{}{"source": "chat"}))
	require.NoError(t, err)
	assert.NotZero(t, id)

	stream := f.manager.Stream()
	require.Len(t, stream, 1)
	m := stream[0]
	assert.Equal(t, id, m.ID)
	assert.Equal(t, "xiaoli", m.AgentID)
	assert.Equal(t, "Got accepted to graduate school", m.Content)
	assert.InDelta(t, 0.8*intelligence.DefaultImportanceWeight, m.Importance, 1e-9)
	assert.True(t, m.CreatedAt.Equal(t0))
	assert.True(t, m.LastAccessedAt.Equal(t0))
	assert.Equal(t, "chat", m.Metadata["source"])
	assert.InDelta(t, m.Importance, f.manager.AggregateImportance(), 1e-9)

	calls := f.llm.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 0.0, calls[0].Options.Temperature)
	assert.True(t, calls[0].Options.JSONResponse)
}

func TestAddMemory_EmptyContent(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{}, nil)
	_, err := f.manager.AddMemory(context.Background(), "   ")
	assert.ErrorIs(t, err, core.ErrEmptyContent)
	assert.Zero(t, f.llm.CallCount(ratingMarker))
}

func TestAddMemory_UnparsableRatingStoresZero(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{}, mock.New().On(ratingMarker, "I cannot rate that"))

	_, err := f.manager.AddMemory(context.Background(), "Brushed teeth")
	require.NoError(t, err)
	stream := f.manager.Stream()
	require.Len(t, stream, 1)
	assert.Equal(t, 0.0, stream[0].Importance)
}

func TestAddMemory_StrictRatingsRejects(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{StrictRatings: true}, mock.New().On(ratingMarker, `{"rating": 42}`))

	_, err := f.manager.AddMemory(context.Background(), "Brushed teeth")
	assert.ErrorIs(t, err, core.ErrUnparsableRating)
	assert.Zero(t, f.manager.Len())
}

func TestAddMemory_LLMFailurePersistsNothing(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{}, mock.New().FailWith(errors.New("rate limited")))

	_, err := f.manager.AddMemory(context.Background(), "Went hiking")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrLLMOperation)

	var memErr *core.MemoryError
	require.ErrorAs(t, err, &memErr)
	assert.Equal(t, "AddMemory", memErr.Op)
	assert.Zero(t, f.manager.Len())
	assert.Zero(t, f.manager.AggregateImportance())
}

func TestAddMemories_Batch(t *testing.T) {
	provider := mock.New().On(batchMarker, `{"ratings": [2, 9, 4]}`)
	f := newFixture(t, core.MemoryConfig{ImportanceWeight: 0.5}, provider)

	ids, err := f.manager.AddMemories(context.Background(), "Bought milk; ; Won the chess final;  Read a book ;")
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Less(t, ids[0], ids[1])
	assert.Less(t, ids[1], ids[2])

	stream := f.manager.Stream()
	assert.Equal(t, []string{"Bought milk", "Won the chess final", "Read a book"}, contents(stream))
	assert.InDelta(t, 0.1, stream[0].Importance, 1e-9)
	assert.InDelta(t, 0.45, stream[1].Importance, 1e-9)
	assert.InDelta(t, 0.2, stream[2].Importance, 1e-9)

	// the aggregate grows by the batch maximum
	assert.InDelta(t, 0.45, f.manager.AggregateImportance(), 1e-9)
	assert.Equal(t, 1, provider.CallCount(batchMarker))
	assert.Zero(t, provider.CallCount(ratingMarker))
}

func TestAddMemories_CountMismatchStoresNothing(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{}, mock.New().On(batchMarker, `{"ratings": [5]}`))

	_, err := f.manager.AddMemories(context.Background(), "first; second")
	assert.ErrorIs(t, err, core.ErrScoreCountMismatch)
	assert.Zero(t, f.manager.Len())
	assert.Zero(t, f.manager.AggregateImportance())
}

func TestAddMemories_CustomDelimiter(t *testing.T) {
	// rate every numbered line the model is shown
	provider := mock.New().OnFunc(batchMarker, func(prompt string) (string, error) {
		lines := strings.Split(prompt[strings.Index(prompt, batchMarker)+len(batchMarker):], "\n")
		ratings := make([]string, len(lines))
		for i := range lines {
			ratings[i] = "3"
		}
		return `{"ratings": [` + strings.Join(ratings, ", ") + `]}`, nil
	})
	f := newFixture(t, core.MemoryConfig{BatchDelimiter: "|"}, provider)

	ids, err := f.manager.AddMemories(context.Background(), "ate rice; then noodles | went home")
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.Equal(t, []string{"ate rice; then noodles", "went home"}, contents(f.manager.Stream()))

	calls := provider.Calls()
	require.Len(t, calls, 1)
	assert.True(t, strings.HasSuffix(calls[0].Prompt, "Memories:\n1. ate rice; then noodles\n2. went home"))
}

func TestAddMemories_OnlyDelimiters(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{}, nil)
	_, err := f.manager.AddMemories(context.Background(), " ; ;")
	assert.ErrorIs(t, err, core.ErrEmptyContent)
}

func TestFetchMemories_EmptyStore(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{}, nil)

	memories, err := f.manager.FetchMemories(context.Background(), "anything")
	require.NoError(t, err)
	assert.NotNil(t, memories)
	assert.Empty(t, memories)
}

func TestFetchMemories_BlankObservation(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{}, nil)
	_, err := f.manager.AddMemory(context.Background(), "planted a tree")
	require.NoError(t, err)

	for _, observation := range []string{"", "   \n"} {
		memories, err := f.manager.FetchMemories(context.Background(), observation)
		assert.ErrorIs(t, err, core.ErrInvalidInput)
		assert.Nil(t, memories)
	}
	assert.True(t, f.manager.Stream()[0].LastAccessedAt.Equal(t0), "nothing is touched")
}

// A memory about Xiao Li's interests, added an hour ago, must outrank an
// unrelated memory from a hundred hours earlier.
func TestFetchMemories_RelevantRecentMemoryRanksFirst(t *testing.T) {
	provider := mock.New().On(ratingMarker, `{"rating": 10}`)
	f := newFixture(t, core.MemoryConfig{ImportanceWeight: 0.3, DecayRate: 0.01}, provider)
	ctx := context.Background()

	_, err := f.manager.AddMemory(ctx, "今天天气很好，适合散步", core.WithNow(t0.Add(-100*time.Hour)))
	require.NoError(t, err)
	id, err := f.manager.AddMemory(ctx, "小李在大学时对数学感兴趣")
	require.NoError(t, err)
	assert.InDelta(t, 0.3, f.manager.Stream()[1].Importance, 1e-9)

	now := t0.Add(time.Hour)
	memories, err := f.manager.FetchMemories(ctx, "小李对什么感兴趣？", core.WithNow(now))
	require.NoError(t, err)
	require.Len(t, memories, 2)
	assert.Equal(t, id, memories[0].ID)
	assert.Greater(t, memories[0].Score, memories[1].Score)
	assert.True(t, memories[0].LastAccessedAt.Equal(now))

	for _, m := range f.manager.Stream() {
		assert.True(t, m.LastAccessedAt.Equal(now), "retrieval refreshes %q", m.Content)
	}
}

func TestFetchMemories_RecencyRefreshChangesRanking(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{DecayRate: 0.5}, nil)
	ctx := context.Background()

	_, err := f.manager.AddMemory(ctx, "alpha beta")
	require.NoError(t, err)
	_, err = f.manager.AddMemory(ctx, "alpha gamma")
	require.NoError(t, err)

	// touch only "alpha gamma" at t0+10h
	got, err := f.manager.FetchMemories(ctx, "gamma", core.WithNow(t0.Add(10*time.Hour)), core.WithK(1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alpha gamma", got[0].Content)

	// both match "alpha" equally; without the refresh the older memory would
	// win the tie, but the refreshed one now wins on recency
	got, err = f.manager.FetchMemories(ctx, "alpha", core.WithNow(t0.Add(11*time.Hour)))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alpha gamma", got[0].Content)
	assert.Equal(t, []string{"alpha beta", "alpha gamma"}, contents(f.manager.Stream()), "stream order is unchanged")
}

func TestFetchMemories_AccessNeverBeforeCreation(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{}, nil)
	ctx := context.Background()

	_, err := f.manager.AddMemory(ctx, "planted a tree")
	require.NoError(t, err)

	got, err := f.manager.FetchMemories(ctx, "tree", core.WithNow(t0.Add(-time.Hour)))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].LastAccessedAt.Equal(t0))
	assert.True(t, f.manager.Stream()[0].LastAccessedAt.Equal(t0))
}

func TestFetchMemories_RespectsK(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{RetrieverK: 2}, nil)
	ctx := context.Background()
	for _, c := range []string{"one apple", "two apples", "three apples", "four apples"} {
		_, err := f.manager.AddMemory(ctx, c)
		require.NoError(t, err)
	}

	got, err := f.manager.FetchMemories(ctx, "apples")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.manager.FetchMemories(ctx, "apples", core.WithK(3))
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestFetchMemories_NewestMemoriesAlwaysCandidates(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{RetrieverK: 2, FetchK: 2}, nil)
	ctx := context.Background()

	long := t0.Add(-1000 * time.Hour)
	for _, c := range []string{"apple pie", "apple tart"} {
		_, err := f.manager.AddMemory(ctx, c, core.WithNow(long))
		require.NoError(t, err)
	}
	_, err := f.manager.AddMemory(ctx, "went home")
	require.NoError(t, err)

	// "went home" is outside the two most similar results but is among the
	// newest, and its recency outweighs the stale matches
	got, err := f.manager.FetchMemories(ctx, "apple", core.WithNow(t0))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "went home", got[0].Content)
	assert.Contains(t, []string{"apple pie", "apple tart"}, got[1].Content)
}

// With threshold 0.5 and three memories of importance 0.2, the third
// addition triggers exactly one reflection.
func TestReflection_TriggersOnceAfterThreshold(t *testing.T) {
	provider := mock.New().
		On(topicsMarker, "1. What does Xiao Li study?\n2. Where does Xiao Li live?\n3. What does Xiao Li enjoy?\n4. Extra question").
		On(insightsMarker, "Xiao Li studies maths (because of 1)\nXiao Li lives in Hangzhou (because of 2)").
		On(ratingMarker, `{"rating": 10}`)
	f := newFixture(t, core.MemoryConfig{ImportanceWeight: 0.2, ReflectionThreshold: ptr(0.5)}, provider)
	ctx := context.Background()

	for i, c := range []string{"Xiao Li studies maths", "Xiao Li lives in Hangzhou", "Xiao Li enjoys hiking"} {
		_, err := f.manager.AddMemory(ctx, c)
		require.NoError(t, err)
		if i < 2 {
			assert.Zero(t, provider.CallCount(topicsMarker), "no reflection after %d memories", i+1)
		}
	}

	assert.Equal(t, 1, provider.CallCount(topicsMarker))
	insightCalls := provider.CallCount(insightsMarker)
	assert.LessOrEqual(t, insightCalls, intelligence.DefaultMaxTopics)
	assert.Equal(t, 3, insightCalls)

	reflections := f.manager.Query(&storage.Filter{Metadata: map[string]interface{}{"source": "reflection"}})
	assert.LessOrEqual(t, len(reflections), intelligence.DefaultMaxTopics*intelligence.DefaultMaxInsights)
	assert.Len(t, reflections, 6)
	assert.Equal(t, 3+len(reflections), f.manager.Len())

	assert.Zero(t, f.manager.AggregateImportance())
	assert.Equal(t, intelligence.ReflectionIdle, f.manager.ReflectionState())

	_, err := f.manager.AddMemory(ctx, "Xiao Li bought a bike")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.CallCount(topicsMarker))
	assert.InDelta(t, 0.2, f.manager.AggregateImportance(), 1e-9)
}

func TestReflection_DisabledWithoutThreshold(t *testing.T) {
	provider := mock.New().On(ratingMarker, `{"rating": 10}`)
	f := newFixture(t, core.MemoryConfig{}, provider)

	for i := 0; i < 5; i++ {
		_, err := f.manager.AddMemory(context.Background(), "huge news")
		require.NoError(t, err)
	}
	assert.Zero(t, provider.CallCount(topicsMarker))
	assert.InDelta(t, 5*0.15, f.manager.AggregateImportance(), 1e-9)
}

func TestReflection_EmptyTopicsStillResets(t *testing.T) {
	provider := mock.New().On(topicsMarker, "").On(ratingMarker, `{"rating": 10}`)
	f := newFixture(t, core.MemoryConfig{ReflectionThreshold: ptr(0.1)}, provider)

	_, err := f.manager.AddMemory(context.Background(), "moved to a new city")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.CallCount(topicsMarker))
	assert.Zero(t, provider.CallCount(insightsMarker))
	assert.Zero(t, f.manager.AggregateImportance())
	assert.Equal(t, 1, f.manager.Len())
}

func TestReflection_FailureKeepsMemoryAndAggregate(t *testing.T) {
	attempts := 0
	provider := mock.New().
		OnFunc(topicsMarker, func(string) (string, error) {
			attempts++
			if attempts == 1 {
				return "", errors.New("model overloaded")
			}
			return "", nil
		}).
		On(ratingMarker, `{"rating": 10}`)
	f := newFixture(t, core.MemoryConfig{ReflectionThreshold: ptr(0.1)}, provider)
	ctx := context.Background()

	id, err := f.manager.AddMemory(ctx, "lost my keys")
	require.Error(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, 1, f.manager.Len())
	assert.Equal(t, intelligence.ReflectionIdle, f.manager.ReflectionState())
	assert.InDelta(t, 0.15, f.manager.AggregateImportance(), 1e-9)

	// the next addition retries
	_, err = f.manager.AddMemory(ctx, "found my keys")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.CallCount(topicsMarker))
	assert.Zero(t, f.manager.AggregateImportance())
}

func TestReflection_Cooldown(t *testing.T) {
	provider := mock.New().On(topicsMarker, "").On(ratingMarker, `{"rating": 10}`)
	f := newFixture(t, core.MemoryConfig{
		ReflectionThreshold: ptr(0.1),
		ReflectionCooldown:  core.Duration(time.Hour),
	}, provider)
	ctx := context.Background()

	_, err := f.manager.AddMemory(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.CallCount(topicsMarker))
	assert.Equal(t, intelligence.ReflectionCooldown, f.manager.ReflectionState())

	f.clock.Advance(10 * time.Minute)
	_, err = f.manager.AddMemory(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.CallCount(topicsMarker), "cooldown suppresses reflection")
	assert.InDelta(t, 0.15, f.manager.AggregateImportance(), 1e-9)

	f.clock.Advance(time.Hour)
	assert.Equal(t, intelligence.ReflectionIdle, f.manager.ReflectionState())
	_, err = f.manager.AddMemory(ctx, "third")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.CallCount(topicsMarker))
}

func TestPauseToReflect(t *testing.T) {
	provider := mock.New().
		On(topicsMarker, "What happened?").
		On(insightsMarker, "Something happened (because of 1)").
		On(ratingMarker, `{"rating": 3}`)
	f := newFixture(t, core.MemoryConfig{}, provider)
	ctx := context.Background()

	_, err := f.manager.AddMemory(ctx, "something happened")
	require.NoError(t, err)

	insights, err := f.manager.PauseToReflect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Something happened (because of 1)"}, insights)
	assert.Equal(t, 2, f.manager.Len())
	assert.Zero(t, f.manager.AggregateImportance())

	calls := provider.Calls()
	var insightPrompt string
	for _, c := range calls {
		if strings.Contains(c.Prompt, insightsMarker) {
			insightPrompt = c.Prompt
		}
	}
	assert.Contains(t, insightPrompt, "1. [2024-05-01 09:00:00] something happened")
}

func TestPauseToReflect_RejectsConcurrentPass(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	provider := mock.New().
		OnFunc(topicsMarker, func(string) (string, error) {
			close(started)
			<-release
			return "", nil
		}).
		On(ratingMarker, `{"rating": 3}`)
	f := newFixture(t, core.MemoryConfig{}, provider)
	ctx := context.Background()

	_, err := f.manager.AddMemory(ctx, "a quiet day")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.manager.PauseToReflect(ctx)
		done <- err
	}()

	<-started
	assert.Equal(t, intelligence.ReflectionReflecting, f.manager.ReflectionState())
	_, err = f.manager.PauseToReflect(ctx)
	assert.ErrorIs(t, err, core.ErrReflectionInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, intelligence.ReflectionIdle, f.manager.ReflectionState())
}

func TestMemoriesUntilTokenLimit(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{MaxTokensLimit: 10}, nil)
	ctx := context.Background()
	for _, c := range []string{"abc", "defg", "hij"} {
		_, err := f.manager.AddMemory(ctx, c)
		require.NoError(t, err)
	}

	assert.Equal(t, "hij; defg", f.manager.MemoriesUntilTokenLimit(0))
	assert.Equal(t, "hij", f.manager.MemoriesUntilTokenLimit(5))
	assert.Equal(t, "", f.manager.MemoriesUntilTokenLimit(10))
}

func TestMemoriesUntilTokenLimit_EmptyStream(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{}, nil)
	assert.Equal(t, "", f.manager.MemoriesUntilTokenLimit(0))
}

func TestLoadMemoryVariables(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{MaxTokensLimit: 1000}, nil)
	ctx := context.Background()

	_, err := f.manager.SaveContext(ctx, "Xiao Li likes green tea")
	require.NoError(t, err)
	id, err := f.manager.SaveContext(ctx, "  ")
	require.NoError(t, err)
	assert.Zero(t, id)

	vars, err := f.manager.LoadMemoryVariables(ctx, []string{"green tea", ""})
	require.NoError(t, err)
	assert.Equal(t, "[2024-05-01 09:00:00] Xiao Li likes green tea", vars.RelevantMemories)
	assert.Equal(t, "Xiao Li likes green tea", vars.RelevantMemoriesSimple)
	assert.Equal(t, "Xiao Li likes green tea", vars.MostRecentMemories)
}

func TestQuery(t *testing.T) {
	provider := mock.New().On(batchMarker, `{"ratings": [1, 10]}`)
	f := newFixture(t, core.MemoryConfig{}, provider)
	ctx := context.Background()

	_, err := f.manager.AddMemories(ctx, "made coffee; got promoted")
	require.NoError(t, err)

	assert.Equal(t, []string{"got promoted"}, contents(f.manager.Query(storage.MinImportance(0.1))))
	assert.Equal(t, []string{"made coffee"}, contents(f.manager.Query(&storage.Filter{ContentContains: "coffee"})))
	assert.Len(t, f.manager.Query(nil), 2)
	assert.Empty(t, f.manager.Query(storage.CreatedBetween(t0.Add(time.Hour), t0.Add(2*time.Hour))))
}

func TestStreamIsACopy(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{}, nil)
	_, err := f.manager.AddMemory(context.Background(), "original")
	require.NoError(t, err)

	stream := f.manager.Stream()
	stream[0].Content = "changed"
	assert.Equal(t, "original", f.manager.Stream()[0].Content)
}

func TestLoad_ResumesStreamFromSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "agentmem.db")
	ctx := context.Background()

	open := func() storage.VectorStore {
		store, err := sqliteStore.NewClient(&sqliteStore.Config{DBPath: dbPath})
		require.NoError(t, err)
		return store
	}

	first := newFixtureWithStore(t, core.MemoryConfig{AgentID: "xiaoli"}, nil, open())
	_, err := first.manager.AddMemory(ctx, "first day at school")
	require.NoError(t, err)
	_, err = first.manager.AddMemory(ctx, "joined the maths club")
	require.NoError(t, err)
	require.NoError(t, first.manager.Close())

	second := newFixtureWithStore(t, core.MemoryConfig{AgentID: "xiaoli"}, nil, open())
	require.NoError(t, second.manager.Load(ctx))
	assert.Equal(t, []string{"first day at school", "joined the maths club"}, contents(second.manager.Stream()))

	got, err := second.manager.FetchMemories(ctx, "maths club")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "joined the maths club", got[0].Content)

	other := newFixtureWithStore(t, core.MemoryConfig{AgentID: "someone-else"}, nil, open())
	require.NoError(t, other.manager.Load(ctx))
	assert.Zero(t, other.manager.Len())
}

func TestConcurrentOperations(t *testing.T) {
	f := newFixture(t, core.MemoryConfig{}, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.manager.AddMemory(ctx, "walked the dog")
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := f.manager.FetchMemories(ctx, "dog")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stream := f.manager.Stream()
	assert.Len(t, stream, 8)
	for i := 1; i < len(stream); i++ {
		assert.Less(t, stream[i-1].ID, stream[i].ID)
	}
}

package intelligence_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/agentmem-go/pkg/intelligence"
	"github.com/oceanbase/agentmem-go/pkg/llm/mock"
)

func TestImportanceScorer_Score(t *testing.T) {
	provider := mock.New().On("Memory:", `{"rating": 8}`)
	scorer := intelligence.NewImportanceScorer(provider, 0.15)

	got, err := scorer.Score(context.Background(), "Got into graduate school")
	require.NoError(t, err)
	assert.InDelta(t, 0.12, got, 1e-9)

	calls := provider.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "Got into graduate school")
	assert.Equal(t, 0.0, calls[0].Options.Temperature)
	assert.True(t, calls[0].Options.JSONResponse)
}

func TestImportanceScorer_Bounds(t *testing.T) {
	ctx := context.Background()
	for _, response := range []string{`{"rating": 1}`, `{"rating": 10}`, "7", "0", "12", "nothing", `{"rating": -3}`} {
		provider := mock.New().Default(response)
		scorer := intelligence.NewImportanceScorer(provider, 0.3)

		got, err := scorer.Score(ctx, "anything")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, 0.0, response)
		assert.LessOrEqual(t, got, 0.3, response)
	}
}

func TestImportanceScorer_Unparsable(t *testing.T) {
	ctx := context.Background()
	provider := mock.New().Default("no idea")

	got, err := intelligence.NewImportanceScorer(provider, 0.15).Score(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	_, err = intelligence.NewImportanceScorer(provider, 0.15, intelligence.WithStrictRatings(true)).Score(ctx, "x")
	assert.ErrorIs(t, err, intelligence.ErrUnparsableRating)

	_, err = intelligence.NewImportanceScorer(mock.New().Default("11"), 0.15,
		intelligence.WithStrictRatings(true)).Score(ctx, "x")
	assert.ErrorIs(t, err, intelligence.ErrUnparsableRating)
}

func TestImportanceScorer_DefaultWeight(t *testing.T) {
	assert.Equal(t, intelligence.DefaultImportanceWeight, intelligence.NewImportanceScorer(mock.New(), 0).Weight())
	assert.Equal(t, intelligence.DefaultImportanceWeight, intelligence.NewImportanceScorer(mock.New(), 1.5).Weight())
	assert.Equal(t, 1.0, intelligence.NewImportanceScorer(mock.New(), 1).Weight())
}

func TestImportanceScorer_LLMFailure(t *testing.T) {
	boom := errors.New("boom")
	scorer := intelligence.NewImportanceScorer(mock.New().FailWith(boom), 0.15)

	_, err := scorer.Score(context.Background(), "x")
	assert.ErrorIs(t, err, boom)

	_, err = scorer.ScoreBatch(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, boom)
}

func TestImportanceScorer_ScoreBatch(t *testing.T) {
	ctx := context.Background()
	provider := mock.New().On("Memories:", `{"ratings": [2, 10, 5]}`)
	scorer := intelligence.NewImportanceScorer(provider, 1)

	got, err := scorer.ScoreBatch(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.2, 1.0, 0.5}, got, 1e-9)
	assert.Contains(t, provider.Calls()[0].Prompt, "following 3 memories")
	assert.Contains(t, provider.Calls()[0].Prompt, "Memories:\n1. a\n2. b\n3. c")

	got, err = intelligence.NewImportanceScorer(mock.New().Default("4;x"), 1).ScoreBatch(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.4, 0}, got, 1e-9)

	got, err = scorer.ScoreBatch(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Len(t, provider.Calls(), 1)
}

func TestImportanceScorer_ScoreBatchKeepsItemsWhole(t *testing.T) {
	provider := mock.New().OnFunc("Memories:", func(prompt string) (string, error) {
		// one rating per numbered line of the prompt
		body := prompt[strings.Index(prompt, "Memories:\n")+len("Memories:\n"):]
		ratings := make([]string, 0)
		for range strings.Split(body, "\n") {
			ratings = append(ratings, "6")
		}
		return `{"ratings": [` + strings.Join(ratings, ", ") + `]}`, nil
	})
	scorer := intelligence.NewImportanceScorer(provider, 1)

	got, err := scorer.ScoreBatch(context.Background(), []string{"ate rice; then noodles", "went\nhome"})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.6, 0.6}, got, 1e-9)
	assert.True(t, strings.HasSuffix(provider.Calls()[0].Prompt, "Memories:\n1. ate rice; then noodles\n2. went home"))
}

func TestImportanceScorer_ScoreBatchMismatch(t *testing.T) {
	scorer := intelligence.NewImportanceScorer(mock.New().Default(`{"ratings": [2, 3]}`), 0.15)

	_, err := scorer.ScoreBatch(context.Background(), []string{"a", "b", "c"})
	assert.ErrorIs(t, err, intelligence.ErrScoreCountMismatch)
}

// Package intelligence holds the language-model driven parts of agent memory:
// importance rating, recency decay and ranking, and reflection.
package intelligence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oceanbase/agentmem-go/pkg/llm"
	"github.com/oceanbase/agentmem-go/pkg/logging"
)

// DefaultImportanceWeight scales ratings so that recency and relevance usually
// dominate importance when ranking.
const DefaultImportanceWeight = 0.15

// Rating bounds accepted from the model.
const (
	MinRating = 1
	MaxRating = 10
)

var (
	// ErrUnparsableRating is returned in strict mode when a rating is missing
	// or outside MinRating..MaxRating.
	ErrUnparsableRating = errors.New("unparsable importance rating")

	// ErrScoreCountMismatch is returned when a batch response does not hold
	// exactly one rating per memory.
	ErrScoreCountMismatch = errors.New("importance score count does not match memory count")
)

// ImportanceScorer rates memory content with a language model.
//
// A rating N in 1..10 becomes importance (N/10)*weight. Missing or out of
// range ratings become 0 and are logged, unless strict mode turns them into
// ErrUnparsableRating. The scorer keeps no state between calls.
//
// Example usage:
//
//	scorer := NewImportanceScorer(provider, 0.15)
//	importance, err := scorer.Score(ctx, "Got accepted to graduate school")
type ImportanceScorer struct {
	llm    llm.Provider
	weight float64
	strict bool
	logger logging.Logger
}

// ScorerOption configures an ImportanceScorer.
type ScorerOption func(*ImportanceScorer)

// WithStrictRatings makes unparsable ratings an error instead of 0.
func WithStrictRatings(strict bool) ScorerOption {
	return func(s *ImportanceScorer) {
		s.strict = strict
	}
}

// WithScorerLogger sets the logger for rating warnings.
func WithScorerLogger(l logging.Logger) ScorerOption {
	return func(s *ImportanceScorer) {
		s.logger = logging.OrNoOp(l)
	}
}

// NewImportanceScorer creates a scorer. A weight outside (0, 1] falls back to
// DefaultImportanceWeight.
func NewImportanceScorer(provider llm.Provider, weight float64, opts ...ScorerOption) *ImportanceScorer {
	if weight <= 0 || weight > 1 {
		weight = DefaultImportanceWeight
	}
	s := &ImportanceScorer{
		llm:    provider,
		weight: weight,
		logger: logging.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weight returns the importance weight.
func (s *ImportanceScorer) Weight() float64 {
	return s.weight
}

// Score rates a single memory.
func (s *ImportanceScorer) Score(ctx context.Context, content string) (float64, error) {
	response, err := s.generate(ctx, fmt.Sprintf(ratingPromptTemplate, content))
	if err != nil {
		return 0, err
	}
	rating, ok := ParseRating(response)
	return s.scale(rating, ok, response)
}

// ScoreBatch rates memories in one call. The result is index-aligned with
// contents. A response with a different number of ratings yields
// ErrScoreCountMismatch.
func (s *ImportanceScorer) ScoreBatch(ctx context.Context, contents []string) ([]float64, error) {
	if len(contents) == 0 {
		return []float64{}, nil
	}
	response, err := s.generate(ctx, fmt.Sprintf(batchRatingPromptTemplate, len(contents), numberLines(contents)))
	if err != nil {
		return nil, err
	}

	ratings, ok := ParseRatings(response)
	if len(ratings) != len(contents) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrScoreCountMismatch, len(ratings), len(contents))
	}

	scores := make([]float64, len(ratings))
	for i := range ratings {
		score, err := s.scale(ratings[i], ok[i], response)
		if err != nil {
			return nil, fmt.Errorf("memory %d: %w", i+1, err)
		}
		scores[i] = score
	}
	return scores, nil
}

// numberLines renders items as "1. item" lines. Line breaks inside an item
// are folded into spaces so every item stays on its own numbered line.
func numberLines(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, strings.Join(strings.Fields(item), " "))
	}
	return strings.Join(lines, "\n")
}

func (s *ImportanceScorer) generate(ctx context.Context, prompt string) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: ratingSystemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	}
	return s.llm.GenerateWithMessages(ctx, messages,
		llm.WithTemperature(0),
		llm.WithMaxTokens(256),
		llm.WithJSONResponse(),
	)
}

func (s *ImportanceScorer) scale(rating float64, ok bool, response string) (float64, error) {
	if !ok || rating < MinRating || rating > MaxRating {
		if s.strict {
			return 0, fmt.Errorf("%w: %q", ErrUnparsableRating, response)
		}
		s.logger.Warn("importance rating unusable, defaulting to 0",
			"response", response, "parsed", ok, "rating", rating)
		return 0, nil
	}
	return (rating / 10.0) * s.weight, nil
}

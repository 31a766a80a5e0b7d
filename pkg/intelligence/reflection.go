package intelligence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oceanbase/agentmem-go/pkg/llm"
	"github.com/oceanbase/agentmem-go/pkg/logging"
)

// Reflection defaults.
const (
	DefaultReflectionLastK = 50
	DefaultMaxTopics       = 3
	DefaultMaxInsights     = 5
)

// ErrReflectionInProgress is returned when a pass is requested while another
// one is running.
var ErrReflectionInProgress = errors.New("reflection already in progress")

// ReflectionGate tracks aggregate importance and the reflection state of one
// memory stream. It is safe for concurrent use.
type ReflectionGate struct {
	mu         sync.Mutex
	cooldown   time.Duration
	state      ReflectionState
	aggregate  float64
	finishedAt time.Time
}

// NewReflectionGate creates an idle gate. A zero cooldown skips the Cooldown
// state.
func NewReflectionGate(cooldown time.Duration) *ReflectionGate {
	return &ReflectionGate{cooldown: cooldown}
}

// Accumulate adds importance to the running total.
func (g *ReflectionGate) Accumulate(importance float64) {
	g.mu.Lock()
	g.aggregate += importance
	g.mu.Unlock()
}

// Aggregate returns the importance added since the last completed pass.
func (g *ReflectionGate) Aggregate() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.aggregate
}

// State returns the state at now, letting an expired cooldown lapse to Idle.
func (g *ReflectionGate) State(now time.Time) ReflectionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lapse(now)
	return g.state
}

func (g *ReflectionGate) lapse(now time.Time) {
	if g.state == ReflectionCooldown && !now.Before(g.finishedAt.Add(g.cooldown)) {
		g.state = ReflectionIdle
	}
}

// TryBegin enters Reflecting when threshold is set, the aggregate exceeds it
// and the gate is Idle. It reports whether the caller now owns the pass.
func (g *ReflectionGate) TryBegin(threshold *float64, now time.Time) bool {
	if threshold == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lapse(now)
	if g.state != ReflectionIdle || g.aggregate <= *threshold {
		return false
	}
	g.state = ReflectionReflecting
	return true
}

// Begin enters Reflecting unconditionally, for explicitly requested passes.
// It fails with ErrReflectionInProgress while a pass is running.
func (g *ReflectionGate) Begin(now time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lapse(now)
	if g.state == ReflectionReflecting {
		return ErrReflectionInProgress
	}
	g.state = ReflectionReflecting
	return nil
}

// Finish completes a pass: the aggregate resets to 0 and the gate enters
// Cooldown, or Idle when no cooldown is configured.
func (g *ReflectionGate) Finish(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.aggregate = 0
	g.finishedAt = now
	if g.cooldown > 0 {
		g.state = ReflectionCooldown
	} else {
		g.state = ReflectionIdle
	}
}

// Abort returns to Idle after a failed pass and keeps the aggregate, so the
// next addition retries.
func (g *ReflectionGate) Abort() {
	g.mu.Lock()
	g.state = ReflectionIdle
	g.mu.Unlock()
}

// ReflectionSource is the memory stream a Reflector reads from and writes
// insights back to.
type ReflectionSource interface {
	// RecentObservations returns the last k memories formatted one per line.
	RecentObservations(k int) string

	// Related returns formatted memories relevant to topic, most relevant
	// first. Retrieval refreshes their recency at now.
	Related(ctx context.Context, topic string, now time.Time) ([]string, error)

	// Remember stores an insight as a new memory.
	Remember(ctx context.Context, insight string, now time.Time) error
}

// Reflector synthesizes higher-level insights from recent memories.
//
// A pass asks for the most salient questions about the last LastK memories,
// then for each question asks for insights backed by the related memories,
// and stores every insight back into the stream.
type Reflector struct {
	llm         llm.Provider
	logger      logging.Logger
	LastK       int
	MaxTopics   int
	MaxInsights int
}

// NewReflector creates a Reflector with the default limits. lastK <= 0 uses
// DefaultReflectionLastK.
func NewReflector(provider llm.Provider, lastK int, logger logging.Logger) *Reflector {
	if lastK <= 0 {
		lastK = DefaultReflectionLastK
	}
	return &Reflector{
		llm:         provider,
		logger:      logging.OrNoOp(logger),
		LastK:       lastK,
		MaxTopics:   DefaultMaxTopics,
		MaxInsights: DefaultMaxInsights,
	}
}

// Topics asks for the most salient high-level questions answerable from
// observations. At most MaxTopics are returned.
func (r *Reflector) Topics(ctx context.Context, observations string) ([]string, error) {
	prompt := fmt.Sprintf(topicsPromptTemplate, observations, r.MaxTopics)
	response, err := r.llm.Generate(ctx, prompt, llm.WithTemperature(0))
	if err != nil {
		return nil, fmt.Errorf("topics: %w", err)
	}
	return limit(ParseList(response), r.MaxTopics), nil
}

// Insights asks for insights answering topic from statements, which are
// numbered from 1 in the prompt so insights can cite them. At most
// MaxInsights are returned.
func (r *Reflector) Insights(ctx context.Context, topic string, statements []string) ([]string, error) {
	prompt := fmt.Sprintf(insightsPromptTemplate, topic, numberLines(statements), r.MaxInsights, topic)
	response, err := r.llm.Generate(ctx, prompt, llm.WithTemperature(0))
	if err != nil {
		return nil, fmt.Errorf("insights: %w", err)
	}
	return limit(ParseList(response), r.MaxInsights), nil
}

// Reflect runs one pass over source and returns every insight it stored.
// The caller owns the ReflectionGate transitions.
func (r *Reflector) Reflect(ctx context.Context, source ReflectionSource, now time.Time) ([]string, error) {
	topics, err := r.Topics(ctx, source.RecentObservations(r.LastK))
	if err != nil {
		return nil, err
	}
	r.logger.Debug("reflection topics", "count", len(topics), "topics", topics)

	insights := []string{}
	for _, topic := range topics {
		related, err := source.Related(ctx, topic, now)
		if err != nil {
			return insights, fmt.Errorf("related memories: %w", err)
		}
		found, err := r.Insights(ctx, topic, related)
		if err != nil {
			return insights, err
		}
		for _, insight := range found {
			if err := source.Remember(ctx, insight, now); err != nil {
				return insights, fmt.Errorf("remember insight: %w", err)
			}
			insights = append(insights, insight)
		}
	}
	r.logger.Debug("reflection finished", "insights", len(insights))
	return insights, nil
}

func limit(items []string, n int) []string {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

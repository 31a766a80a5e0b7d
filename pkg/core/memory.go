package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oceanbase/agentmem-go/pkg/clock"
	"github.com/oceanbase/agentmem-go/pkg/embedder"
	"github.com/oceanbase/agentmem-go/pkg/intelligence"
	"github.com/oceanbase/agentmem-go/pkg/llm"
	"github.com/oceanbase/agentmem-go/pkg/logging"
	"github.com/oceanbase/agentmem-go/pkg/storage"
	"github.com/oceanbase/agentmem-go/pkg/tokenizer"
)

// Dependencies are the collaborators of a Manager. LLM, Embedder and
// VectorStore are required.
type Dependencies struct {
	LLM         llm.Provider
	Embedder    embedder.Provider
	VectorStore storage.VectorStore

	// Tokenizer defaults to tiktoken for MemoryConfig.TokenizerModel,
	// falling back to an estimate when the encoding cannot be loaded.
	Tokenizer tokenizer.Counter

	// Clock defaults to the wall clock.
	Clock clock.Clock

	// Logger defaults to a no-op logger.
	Logger logging.Logger
}

// Manager is the long-term memory of one agent.
//
// It scores new memories for importance, stores them in an ordered stream,
// retrieves them by similarity and recency, and reflects on recent memories
// once enough importance has accumulated. Public operations are serialized;
// reflection runs inside the operation that triggered it.
//
// Example usage:
//
//	manager, _ := core.NewManager(core.Dependencies{
//	    LLM:         llmProvider,
//	    Embedder:    embedderProvider,
//	    VectorStore: store,
//	}, core.MemoryConfig{ReflectionThreshold: &threshold})
//	defer manager.Close()
//
//	_, _ = manager.AddMemory(ctx, "Xiao Li liked maths at university")
//	memories, _ := manager.FetchMemories(ctx, "What is Xiao Li interested in?")
type Manager struct {
	// config holds the validated memory settings.
	config MemoryConfig

	llm      llm.Provider
	embedder embedder.Provider
	vectors  storage.VectorStore
	tokens   tokenizer.Counter
	clock    clock.Clock
	logger   logging.Logger

	scorer    *intelligence.ImportanceScorer
	reflector *intelligence.Reflector
	gate      *intelligence.ReflectionGate
	store     *Store
	retriever *Retriever

	// mu serializes public operations.
	mu sync.Mutex
}

// NewManager creates a Manager over the given collaborators.
func NewManager(deps Dependencies, cfg MemoryConfig) (*Manager, error) {
	if deps.LLM == nil || deps.Embedder == nil || deps.VectorStore == nil {
		return nil, NewMemoryError("NewManager", fmt.Errorf("%w: llm, embedder and vector store are required", ErrInvalidConfig))
	}
	if err := cfg.Validate(); err != nil {
		return nil, NewMemoryError("NewManager", err)
	}
	if cfg.AgentID == "" {
		cfg.AgentID = uuid.NewString()
	}

	logger := logging.OrNoOp(deps.Logger).With("agent_id", cfg.AgentID)

	counter := deps.Tokenizer
	if counter == nil {
		var err error
		counter, err = tokenizer.New(cfg.TokenizerModel)
		if err != nil {
			logger.Warn("tiktoken unavailable, estimating token counts", "error", err)
		}
	}

	clk := deps.Clock
	if clk == nil {
		clk = clock.System()
	}

	cached, err := embedder.NewCached(deps.Embedder, cfg.QueryCacheSize)
	if err != nil {
		return nil, NewMemoryError("NewManager", err)
	}

	store, err := NewStore(cfg.AgentID, deps.VectorStore, cached)
	if err != nil {
		return nil, err
	}

	ranker := &intelligence.Ranker{
		Decay:             intelligence.NewDecayFunc(cfg.DecayModel, cfg.DecayRate),
		IncludeImportance: cfg.IncludeImportanceInScore,
	}

	m := &Manager{
		config:   cfg,
		llm:      deps.LLM,
		embedder: cached,
		vectors:  deps.VectorStore,
		tokens:   counter,
		clock:    clk,
		logger:   logger,
		scorer: intelligence.NewImportanceScorer(deps.LLM, cfg.ImportanceWeight,
			intelligence.WithStrictRatings(cfg.StrictRatings),
			intelligence.WithScorerLogger(logger),
		),
		reflector: intelligence.NewReflector(deps.LLM, cfg.ReflectionLastK, logger),
		gate:      intelligence.NewReflectionGate(time.Duration(cfg.ReflectionCooldown)),
		store:     store,
		retriever: NewRetriever(store, cached, ranker, cfg.FetchK, logger),
	}
	return m, nil
}

// NewManagerFromConfig builds the providers named in cfg and a Manager over
// them. The agent's existing memories are loaded from the vector store.
//
// Example:
//
//	config, _ := core.LoadConfigFromEnv()
//	manager, err := core.NewManagerFromConfig(ctx, config)
func NewManagerFromConfig(ctx context.Context, cfg *Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	llmProvider, err := initLLM(cfg.LLM)
	if err != nil {
		return nil, err
	}

	embedderProvider, err := initEmbedder(cfg.Embedder)
	if err != nil {
		_ = llmProvider.Close()
		return nil, err
	}

	store, err := initStorage(cfg.VectorStore, embedderProvider.Dimensions())
	if err != nil {
		_ = llmProvider.Close()
		_ = embedderProvider.Close()
		return nil, err
	}

	m, err := NewManager(Dependencies{
		LLM:         llmProvider,
		Embedder:    embedderProvider,
		VectorStore: store,
		Logger:      logger,
	}, cfg.Memory)
	if err != nil {
		_ = llmProvider.Close()
		_ = embedderProvider.Close()
		_ = store.Close()
		return nil, err
	}

	if err := m.Load(ctx); err != nil {
		_ = m.Close()
		return nil, err
	}
	return m, nil
}

// AgentID returns the id of the agent whose stream this Manager holds.
func (m *Manager) AgentID() string {
	return m.config.AgentID
}

// Config returns the validated memory settings.
func (m *Manager) Config() MemoryConfig {
	return m.config
}

// Load replaces the in-process stream with the agent's stored memories, so a
// Manager can resume a stream after a restart.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Load(ctx); err != nil {
		return NewMemoryError("Load", err)
	}
	m.logger.Debug("memory stream loaded", "count", m.store.Len())
	return nil
}

// AddMemory scores content, stores it and reflects when the accumulated
// importance crosses the reflection threshold.
//
// Nothing is stored when scoring or embedding fails. When the memory was
// stored but the reflection it triggered failed, the new ID is returned
// together with the error.
func (m *Manager) AddMemory(ctx context.Context, content string, opts ...Option) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	options := applyOptions(opts)
	now := clock.Resolve(m.clock, options.Now)

	content = strings.TrimSpace(content)
	if content == "" {
		return 0, NewMemoryError("AddMemory", ErrEmptyContent)
	}

	id, err := m.addMemory(ctx, content, options.Metadata, now)
	if err != nil {
		return 0, NewMemoryError("AddMemory", err)
	}
	if _, err := m.maybeReflect(ctx, now); err != nil {
		return id, NewMemoryError("AddMemory", err)
	}
	return id, nil
}

// AddMemories adds several memories separated by the batch delimiter (";"
// by default) with a single rating call. Empty items are dropped. The
// accumulated importance grows by the highest importance in the batch.
//
// A rating response with the wrong number of ratings yields
// ErrScoreCountMismatch and nothing is stored.
func (m *Manager) AddMemories(ctx context.Context, batch string, opts ...Option) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	options := applyOptions(opts)
	now := clock.Resolve(m.clock, options.Now)

	contents := splitBatch(batch, m.config.BatchDelimiter)
	if len(contents) == 0 {
		return nil, NewMemoryError("AddMemories", ErrEmptyContent)
	}

	scores, err := m.scorer.ScoreBatch(ctx, contents)
	if err != nil {
		return nil, NewMemoryError("AddMemories", scoringError(err))
	}

	memories := make([]*Memory, len(contents))
	maxScore := 0.0
	for i, content := range contents {
		memories[i] = newMemory(content, scores[i], options.Metadata, now)
		if scores[i] > maxScore {
			maxScore = scores[i]
		}
	}

	ids, err := m.store.Add(ctx, memories...)
	if err != nil {
		return nil, NewMemoryError("AddMemories", err)
	}
	m.gate.Accumulate(maxScore)
	m.logger.Debug("memories added", "count", len(ids), "max_importance", maxScore)

	if _, err := m.maybeReflect(ctx, now); err != nil {
		return ids, NewMemoryError("AddMemories", err)
	}
	return ids, nil
}

// FetchMemories returns the memories most relevant to observation, ranked by
// similarity plus recency, and marks them accessed at now. A blank
// observation yields ErrInvalidInput.
func (m *Manager) FetchMemories(ctx context.Context, observation string, opts ...Option) ([]*Memory, error) {
	if strings.TrimSpace(observation) == "" {
		return nil, NewMemoryError("FetchMemories", fmt.Errorf("%w: empty observation", ErrInvalidInput))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	options := applyOptions(opts)
	now := clock.Resolve(m.clock, options.Now)

	k := options.K
	if k <= 0 {
		k = m.config.RetrieverK
	}
	memories, err := m.retriever.Retrieve(ctx, observation, k, now)
	if err != nil {
		return nil, NewMemoryError("FetchMemories", err)
	}
	return memories, nil
}

// PauseToReflect runs a reflection pass now, regardless of the accumulated
// importance or a running cooldown, and returns the insights it stored.
// It fails with ErrReflectionInProgress while another pass is running.
func (m *Manager) PauseToReflect(ctx context.Context, opts ...Option) ([]string, error) {
	options := applyOptions(opts)
	now := clock.Resolve(m.clock, options.Now)

	if m.gate.State(now) == intelligence.ReflectionReflecting {
		return nil, NewMemoryError("PauseToReflect", ErrReflectionInProgress)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.gate.Begin(now); err != nil {
		return nil, NewMemoryError("PauseToReflect", err)
	}
	insights, err := m.reflect(ctx, now)
	if err != nil {
		return insights, NewMemoryError("PauseToReflect", err)
	}
	return insights, nil
}

// MemoriesUntilTokenLimit formats the newest memories whose tokens, added
// to consumed, stay below the configured max tokens limit. Memories are
// listed newest first.
func (m *Manager) MemoriesUntilTokenLimit(consumed int) string {
	stream := m.store.Stream()
	return FormatSimple(untilTokenLimit(stream, m.tokens, consumed, m.config.MaxTokensLimit))
}

// AggregateImportance returns the importance accumulated since the last
// completed reflection.
func (m *Manager) AggregateImportance() float64 {
	return m.gate.Aggregate()
}

// ReflectionState returns the current reflection state.
func (m *Manager) ReflectionState() intelligence.ReflectionState {
	return m.gate.State(m.clock.Now())
}

// Stream returns copies of every memory in insertion order.
func (m *Manager) Stream() []*Memory {
	return m.store.Stream()
}

// Query returns copies of the memories matching filter, in insertion order.
//
// Example:
//
//	important := manager.Query(storage.MinImportance(0.1))
func (m *Manager) Query(filter *storage.Filter) []*Memory {
	return m.store.Query(filter)
}

// Len returns the number of memories in the stream.
func (m *Manager) Len() int {
	return m.store.Len()
}

// Close closes the vector store, the LLM provider and the embedder.
//
// Returns the first error encountered during cleanup.
func (m *Manager) Close() error {
	var errs []error

	if m.vectors != nil {
		if err := m.vectors.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.llm != nil {
		if err := m.llm.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.embedder != nil {
		if err := m.embedder.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// addMemory scores and stores one memory. Caller holds m.mu.
func (m *Manager) addMemory(ctx context.Context, content string, metadata map[string]interface{}, now time.Time) (int64, error) {
	importance, err := m.scorer.Score(ctx, content)
	if err != nil {
		return 0, scoringError(err)
	}

	ids, err := m.store.Add(ctx, newMemory(content, importance, metadata, now))
	if err != nil {
		return 0, err
	}
	m.gate.Accumulate(importance)
	m.logger.Debug("memory added", "id", ids[0], "importance", importance)
	return ids[0], nil
}

// maybeReflect runs a pass when the gate opens. Caller holds m.mu.
func (m *Manager) maybeReflect(ctx context.Context, now time.Time) ([]string, error) {
	if !m.gate.TryBegin(m.config.ReflectionThreshold, now) {
		return nil, nil
	}
	m.logger.Info("reflection triggered", "aggregate_importance", m.gate.Aggregate())
	return m.reflect(ctx, now)
}

// reflect runs a pass the caller has begun on the gate. Caller holds m.mu.
func (m *Manager) reflect(ctx context.Context, now time.Time) ([]string, error) {
	insights, err := m.reflector.Reflect(ctx, streamSource{m}, now)
	if err != nil {
		m.gate.Abort()
		m.logger.Warn("reflection failed", "error", err, "insights_stored", len(insights))
		return insights, fmt.Errorf("reflection: %w", err)
	}
	m.gate.Finish(now)
	m.logger.Info("reflection finished", "insights", len(insights))
	return insights, nil
}

// streamSource exposes the Manager's stream to the Reflector without taking
// m.mu, which the reflecting operation already holds.
type streamSource struct {
	m *Manager
}

func (s streamSource) RecentObservations(k int) string {
	return FormatDetail(s.m.store.Recent(k), "")
}

func (s streamSource) Related(ctx context.Context, topic string, now time.Time) ([]string, error) {
	memories, err := s.m.retriever.Retrieve(ctx, topic, s.m.config.RetrieverK, now)
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(memories))
	for i, mem := range memories {
		lines[i] = formatMemoryDetail(mem, "")
	}
	return lines, nil
}

func (s streamSource) Remember(ctx context.Context, insight string, now time.Time) error {
	_, err := s.m.addMemory(ctx, insight, map[string]interface{}{"source": "reflection"}, now)
	return err
}

func newMemory(content string, importance float64, metadata map[string]interface{}, now time.Time) *Memory {
	return &Memory{
		Content:        content,
		Importance:     importance,
		Metadata:       metadata,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
}

func splitBatch(batch, delimiter string) []string {
	contents := []string{}
	for _, item := range strings.Split(batch, delimiter) {
		if item = strings.TrimSpace(item); item != "" {
			contents = append(contents, item)
		}
	}
	return contents
}

// scoringError tags provider failures as LLM errors. Rating contract
// violations keep their own sentinels.
func scoringError(err error) error {
	if errors.Is(err, ErrScoreCountMismatch) || errors.Is(err, ErrUnparsableRating) {
		return err
	}
	return wrapKind(ErrLLMOperation, err)
}

package core

import (
	"context"
	"strings"
)

// LoadMemoryVariables gathers the memory text injected into an agent's
// prompt: the memories relevant to each query (in query order) and the newest
// memories that fit in the token budget left after them.
//
// Example:
//
//	vars, _ := manager.LoadMemoryVariables(ctx, []string{"What does Xiao Li like?"})
//	prompt := fmt.Sprintf(template, vars.RelevantMemories, vars.MostRecentMemories)
func (m *Manager) LoadMemoryVariables(ctx context.Context, queries []string, opts ...Option) (*MemoryVariables, error) {
	relevant := []*Memory{}
	for _, query := range queries {
		if strings.TrimSpace(query) == "" {
			continue
		}
		memories, err := m.FetchMemories(ctx, query, opts...)
		if err != nil {
			return nil, err
		}
		relevant = append(relevant, memories...)
	}

	vars := &MemoryVariables{
		RelevantMemories:       FormatDetail(relevant, ""),
		RelevantMemoriesSimple: FormatSimple(relevant),
	}
	consumed := 0
	if vars.RelevantMemories != "" {
		consumed = m.tokens.CountTokens(vars.RelevantMemories)
	}
	vars.MostRecentMemories = m.MemoriesUntilTokenLimit(consumed)
	return vars, nil
}

// SaveContext records an agent's observation as a memory. Blank
// observations are ignored and return 0.
func (m *Manager) SaveContext(ctx context.Context, observation string, opts ...Option) (int64, error) {
	if strings.TrimSpace(observation) == "" {
		return 0, nil
	}
	return m.AddMemory(ctx, observation, opts...)
}

package core

import "time"

// Memory is one record of an agent's memory stream.
//
// Content, Importance and CreatedAt are set once when the memory is added.
// Only LastAccessedAt changes afterwards, when a retrieval returns the
// memory, and it is never earlier than CreatedAt.
//
// Example:
//
//	memory := &core.Memory{
//	    Content: "Xiao Li liked maths at university",
//	    Metadata: map[string]interface{}{
//	        "source": "conversation",
//	    },
//	}
type Memory struct {
	// ID is the snowflake id. IDs increase with insertion order.
	ID int64 `json:"id"`

	// AgentID identifies the stream this memory belongs to.
	AgentID string `json:"agent_id"`

	// Content is the text content of the memory.
	Content string `json:"content"`

	// Importance is the scaled importance in [0, importance_weight].
	Importance float64 `json:"importance"`

	// Metadata contains additional structured information about the memory.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// CreatedAt is when the memory was added.
	CreatedAt time.Time `json:"created_at"`

	// LastAccessedAt is when a retrieval last returned the memory.
	LastAccessedAt time.Time `json:"last_accessed_at"`

	// Embedding is the vector embedding of Content.
	// Omitted from JSON to reduce payload size.
	Embedding []float64 `json:"-"`

	// Score is the combined time-weighted score of the retrieval that
	// returned this memory. Zero elsewhere.
	Score float64 `json:"score,omitempty"`
}

// Clone returns a copy that shares no mutable state with m.
func (m *Memory) Clone() *Memory {
	if m == nil {
		return nil
	}
	c := *m
	if m.Embedding != nil {
		c.Embedding = append([]float64(nil), m.Embedding...)
	}
	if m.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(m.Metadata))
		for k, v := range m.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// MemoryVariables are the memory-derived values injected into an agent's
// prompt.
type MemoryVariables struct {
	// RelevantMemories lists the memories retrieved for the queries, one
	// detailed line each.
	RelevantMemories string `json:"relevant_memories"`

	// RelevantMemoriesSimple is the same memories joined with "; ".
	RelevantMemoriesSimple string `json:"relevant_memories_simple"`

	// MostRecentMemories is the newest memories that fit the token budget
	// left after RelevantMemories.
	MostRecentMemories string `json:"most_recent_memories"`
}

// IDResult is the result of AsyncManager.AddMemoryAsync.
type IDResult struct {
	ID    int64
	Error error
}

// IDsResult is the result of AsyncManager.AddMemoriesAsync.
type IDsResult struct {
	IDs   []int64
	Error error
}

// MemoriesResult is the result of AsyncManager.FetchMemoriesAsync.
type MemoriesResult struct {
	Memories []*Memory
	Error    error
}

// InsightsResult is the result of AsyncManager.PauseToReflectAsync.
type InsightsResult struct {
	Insights []string
	Error    error
}

package core

import (
	"github.com/oceanbase/agentmem-go/pkg/storage"
)

// toStorageMemory converts a core.Memory to storage.Memory.
//
// Storage backends do not import core, so records cross the package
// boundary through these conversions.
func toStorageMemory(m *Memory) *storage.Memory {
	return &storage.Memory{
		ID:             m.ID,
		AgentID:        m.AgentID,
		Content:        m.Content,
		Embedding:      m.Embedding,
		Importance:     m.Importance,
		Metadata:       m.Metadata,
		CreatedAt:      m.CreatedAt,
		LastAccessedAt: m.LastAccessedAt,
	}
}

// fromStorageMemory converts a storage.Memory to core.Memory. Score is not
// carried over: a storage score is a cosine similarity, not a combined score.
func fromStorageMemory(m *storage.Memory) *Memory {
	return &Memory{
		ID:             m.ID,
		AgentID:        m.AgentID,
		Content:        m.Content,
		Embedding:      m.Embedding,
		Importance:     m.Importance,
		Metadata:       m.Metadata,
		CreatedAt:      m.CreatedAt,
		LastAccessedAt: m.LastAccessedAt,
	}
}

// fromStorageMemories converts a slice of storage.Memory to core.Memory.
func fromStorageMemories(memories []*storage.Memory) []*Memory {
	result := make([]*Memory, len(memories))
	for i, m := range memories {
		result[i] = fromStorageMemory(m)
	}
	return result
}

// cloneAll returns deep copies of memories.
func cloneAll(memories []*Memory) []*Memory {
	out := make([]*Memory, len(memories))
	for i, m := range memories {
		out[i] = m.Clone()
	}
	return out
}

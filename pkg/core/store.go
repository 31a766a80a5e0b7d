package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/oceanbase/agentmem-go/pkg/embedder"
	"github.com/oceanbase/agentmem-go/pkg/storage"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
	nodeErr  error
)

// idNode returns the process-wide snowflake node. Managers sharing one
// database must not hand out the same id, so they share a node.
func idNode() (*snowflake.Node, error) {
	nodeOnce.Do(func() {
		node, nodeErr = snowflake.NewNode(1)
	})
	return node, nodeErr
}

// Store is the ordered memory stream of one agent, backed by a vector store.
//
// The stream is append-only and kept in insertion order. Records are
// persisted before they become visible in the stream, so a failed Add leaves
// the stream untouched. Only LastAccessedAt changes after insertion.
type Store struct {
	agentID  string
	vectors  storage.VectorStore
	embedder embedder.Provider
	node     *snowflake.Node

	mu     sync.RWMutex
	stream []*Memory
	index  map[int64]int
}

// NewStore creates an empty stream for agentID.
func NewStore(agentID string, vectors storage.VectorStore, emb embedder.Provider) (*Store, error) {
	n, err := idNode()
	if err != nil {
		return nil, NewMemoryError("NewStore", err)
	}
	return &Store{
		agentID:  agentID,
		vectors:  vectors,
		embedder: emb,
		node:     n,
		index:    make(map[int64]int),
	}, nil
}

// AgentID returns the stream's agent.
func (s *Store) AgentID() string {
	return s.agentID
}

// Add embeds memories in one batch, persists them and appends them to the
// stream. IDs, AgentID and a missing LastAccessedAt are filled in; the
// caller sets Content, Importance, Metadata and CreatedAt.
func (s *Store) Add(ctx context.Context, memories ...*Memory) ([]int64, error) {
	if len(memories) == 0 {
		return []int64{}, nil
	}

	contents := make([]string, len(memories))
	for i, m := range memories {
		contents[i] = m.Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, contents)
	if err != nil {
		return nil, wrapKind(ErrEmbeddingFailed, err)
	}
	if len(vectors) != len(memories) {
		return nil, fmt.Errorf("%w: got %d vectors for %d memories", ErrEmbeddingFailed, len(vectors), len(memories))
	}

	records := make([]*Memory, len(memories))
	rows := make([]*storage.Memory, len(memories))
	ids := make([]int64, len(memories))
	for i, m := range memories {
		r := m.Clone()
		r.ID = s.node.Generate().Int64()
		r.AgentID = s.agentID
		r.Embedding = vectors[i]
		r.Score = 0
		if r.LastAccessedAt.Before(r.CreatedAt) {
			r.LastAccessedAt = r.CreatedAt
		}
		records[i] = r
		rows[i] = toStorageMemory(r)
		ids[i] = r.ID
	}

	if err := s.vectors.Insert(ctx, rows...); err != nil {
		return nil, wrapKind(ErrStorageOperation, err)
	}

	s.mu.Lock()
	for _, r := range records {
		s.index[r.ID] = len(s.stream)
		s.stream = append(s.stream, r)
	}
	s.mu.Unlock()
	return ids, nil
}

// Load replaces the in-process stream with the agent's records from the
// vector store, in insertion order.
func (s *Store) Load(ctx context.Context) error {
	rows, err := s.vectors.List(ctx, &storage.ListOptions{AgentID: s.agentID})
	if err != nil {
		return wrapKind(ErrStorageOperation, err)
	}
	stream := fromStorageMemories(rows)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stream = stream
	s.index = make(map[int64]int, len(stream))
	for i, m := range stream {
		s.index[m.ID] = i
	}
	return nil
}

// Len returns the number of memories in the stream.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stream)
}

// Stream returns copies of every memory in insertion order.
func (s *Store) Stream() []*Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.stream)
}

// Recent returns copies of the last k memories in insertion order.
func (s *Store) Recent(k int) []*Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if k <= 0 {
		return []*Memory{}
	}
	start := len(s.stream) - k
	if start < 0 {
		start = 0
	}
	return cloneAll(s.stream[start:])
}

// Query returns copies of the memories matching filter, in insertion order.
// A nil filter returns the whole stream.
func (s *Store) Query(filter *storage.Filter) []*Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*Memory{}
	for _, m := range s.stream {
		if filter.Match(toStorageMemory(m)) {
			out = append(out, m.Clone())
		}
	}
	return out
}

// Get returns a copy of one memory of the stream.
func (s *Store) Get(id int64) (*Memory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.stream[i].Clone(), true
}

// touch sets LastAccessedAt of the given memories to at, never earlier than
// their CreatedAt. The stream order is unchanged.
func (s *Store) touch(ctx context.Context, at time.Time, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.vectors.Touch(ctx, at, ids...); err != nil {
		return wrapKind(ErrStorageOperation, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		i, ok := s.index[id]
		if !ok {
			continue
		}
		m := s.stream[i]
		if at.Before(m.CreatedAt) {
			m.LastAccessedAt = m.CreatedAt
		} else {
			m.LastAccessedAt = at
		}
	}
	return nil
}

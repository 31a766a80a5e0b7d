// Package chromem provides an in-memory VectorStore backed by chromem-go.
//
// chromem-go ranks documents by cosine similarity. Records themselves are kept
// in a map so List, Touch and structured filters work without round-tripping
// through string metadata.
package chromem

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/oceanbase/agentmem-go/pkg/embedder"
	"github.com/oceanbase/agentmem-go/pkg/storage"
)

// Store implements storage.VectorStore on chromem-go. Each agent gets its own
// collection.
type Store struct {
	db          *chromem.DB
	mu          sync.RWMutex
	collections map[string]*chromem.Collection
	records     map[int64]*storage.Memory
	ids         []int64 // ascending
}

// New creates an empty store.
func New() *Store {
	return &Store{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
		records:     make(map[int64]*storage.Memory),
	}
}

// collection returns the agent's collection. Caller holds s.mu for writing.
func (s *Store) collection(agentID string) (*chromem.Collection, error) {
	if col, ok := s.collections[agentID]; ok {
		return col, nil
	}
	name := "agent_" + agentID
	if agentID == "" {
		name = "global"
	}
	// embeddings are always supplied, so no embedding func is needed
	col, err := s.db.CreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	s.collections[agentID] = col
	return col, nil
}

// Insert adds memories. Documents are written to chromem first and the
// records become visible only after every document was accepted.
func (s *Store) Insert(ctx context.Context, memories ...*storage.Memory) error {
	if len(memories) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range memories {
		if _, exists := s.records[m.ID]; exists {
			return fmt.Errorf("Insert: duplicate id %d", m.ID)
		}
	}

	for _, m := range memories {
		col, err := s.collection(m.AgentID)
		if err != nil {
			return fmt.Errorf("Insert: %w", err)
		}
		doc := chromem.Document{
			ID:        strconv.FormatInt(m.ID, 10),
			Content:   m.Content,
			Embedding: embedder.ToFloat32(m.Embedding),
		}
		if err := col.AddDocument(ctx, doc); err != nil {
			s.rollback(memories)
			return fmt.Errorf("Insert: add document: %w", err)
		}
	}

	for _, m := range memories {
		c := m.Clone()
		c.Score = 0
		if c.LastAccessedAt.Before(c.CreatedAt) {
			c.LastAccessedAt = c.CreatedAt
		}
		s.records[c.ID] = c
		s.ids = append(s.ids, c.ID)
	}
	sort.Slice(s.ids, func(i, j int) bool { return s.ids[i] < s.ids[j] })
	return nil
}

// rollback removes documents of a failed batch. Caller holds s.mu.
func (s *Store) rollback(memories []*storage.Memory) {
	for _, m := range memories {
		if col, ok := s.collections[m.AgentID]; ok {
			_ = col.Delete(context.Background(), nil, nil, strconv.FormatInt(m.ID, 10))
		}
	}
}

// Search ranks documents by cosine similarity.
func (s *Store) Search(ctx context.Context, embedding []float64, opts *storage.SearchOptions) ([]*storage.Memory, error) {
	if opts == nil {
		opts = &storage.SearchOptions{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	cols := make(map[string]*chromem.Collection)
	if opts.AgentID != "" {
		if col, ok := s.collections[opts.AgentID]; ok {
			cols[opts.AgentID] = col
		}
	} else {
		for agentID, col := range s.collections {
			cols[agentID] = col
		}
	}

	query := embedder.ToFloat32(embedding)
	zeroQuery := isZero(query)

	memories := []*storage.Memory{}
	for agentID, col := range cols {
		n := col.Count()
		if n == 0 {
			continue
		}
		if zeroQuery {
			// chromem normalizes the query; a zero vector would yield NaN
			for _, id := range s.ids {
				m := s.records[id]
				if m.AgentID == agentID && opts.Filter.Match(m) && opts.MinScore <= 0 {
					memories = append(memories, m.Clone())
				}
			}
			continue
		}
		if opts.Filter == nil && opts.SearchLimit() < n {
			n = opts.SearchLimit()
		}
		results, err := col.QueryEmbedding(ctx, query, n, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("Search: %w", err)
		}
		for _, r := range results {
			id, err := strconv.ParseInt(r.ID, 10, 64)
			if err != nil {
				continue
			}
			rec, ok := s.records[id]
			if !ok || !opts.Filter.Match(rec) {
				continue
			}
			m := rec.Clone()
			m.Score = float64(r.Similarity)
			if math.IsNaN(m.Score) {
				m.Score = 0
			}
			if m.Score < opts.MinScore {
				continue
			}
			memories = append(memories, m)
		}
	}
	return storage.SortByScore(memories, opts.SearchLimit()), nil
}

// Get returns one record.
func (s *Store) Get(_ context.Context, id int64) (*storage.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return m.Clone(), nil
}

// List returns records in ascending id order.
func (s *Store) List(_ context.Context, opts *storage.ListOptions) ([]*storage.Memory, error) {
	if opts == nil {
		opts = &storage.ListOptions{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	memories := []*storage.Memory{}
	for _, id := range s.ids {
		m := s.records[id]
		if opts.AgentID != "" && m.AgentID != opts.AgentID {
			continue
		}
		if opts.Filter.Match(m) {
			memories = append(memories, m.Clone())
		}
	}
	return storage.Paginate(memories, opts.Offset, opts.Limit), nil
}

// Touch bumps LastAccessedAt, never below CreatedAt. Unknown ids are ignored.
func (s *Store) Touch(_ context.Context, at time.Time, ids ...int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		m, ok := s.records[id]
		if !ok {
			continue
		}
		if at.Before(m.CreatedAt) {
			m.LastAccessedAt = m.CreatedAt
		} else {
			m.LastAccessedAt = at
		}
	}
	return nil
}

// Count returns the number of records for agentID ("" counts all).
func (s *Store) Count(_ context.Context, agentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if agentID == "" {
		return len(s.records), nil
	}
	if col, ok := s.collections[agentID]; ok {
		return col.Count(), nil
	}
	return 0, nil
}

// Close releases nothing; chromem keeps everything in memory.
func (s *Store) Close() error {
	return nil
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Package storage defines the persistence collaborator for memory records.
//
// A VectorStore keeps every record with its embedding and answers similarity
// queries. Backends: sqlite (embedded, in-process similarity), postgres
// (pgvector), oceanbase (native vector type) and chromem (in-memory).
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("storage: memory not found")

// Memory is the persisted form of a memory record.
//
// It lives here rather than in core so backends do not import core.
type Memory struct {
	// ID is the snowflake id assigned by the memory store. IDs increase with
	// insertion order.
	ID int64

	// AgentID scopes the record to one agent's stream.
	AgentID string

	// Content is the memory text.
	Content string

	// Embedding is the dense vector of Content.
	Embedding []float64

	// Importance is the scaled importance score, set once at insertion.
	Importance float64

	// Metadata holds caller-supplied attributes.
	Metadata map[string]interface{}

	// CreatedAt is set once at insertion.
	CreatedAt time.Time

	// LastAccessedAt is bumped by Touch. Never earlier than CreatedAt.
	LastAccessedAt time.Time

	// Score is the cosine similarity from Search; zero elsewhere.
	Score float64
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

// VectorStore persists memory records and answers similarity queries.
//
// Implementations must be safe for concurrent use.
type VectorStore interface {
	// Insert stores memories atomically: either all are stored or none.
	Insert(ctx context.Context, memories ...*Memory) error

	// Search returns the records most similar to embedding, highest cosine
	// similarity first, with Score set. An empty store yields an empty slice.
	Search(ctx context.Context, embedding []float64, opts *SearchOptions) ([]*Memory, error)

	// Get returns one record or ErrNotFound.
	Get(ctx context.Context, id int64) (*Memory, error)

	// List returns records in ascending ID (insertion) order.
	List(ctx context.Context, opts *ListOptions) ([]*Memory, error)

	// Touch sets LastAccessedAt of the given records to at, or to their
	// CreatedAt when at is earlier.
	Touch(ctx context.Context, at time.Time, ids ...int64) error

	// Count returns the number of records for agentID ("" counts all).
	Count(ctx context.Context, agentID string) (int, error)

	// Close releases the store.
	Close() error
}

// SearchOptions contains options for Search.
type SearchOptions struct {
	// AgentID restricts results to one agent. Empty means all agents.
	AgentID string

	// Limit caps the number of results. Zero means 10.
	Limit int

	// MinScore drops results with a lower cosine similarity.
	MinScore float64

	// Filter applies structured conditions before ranking.
	Filter *Filter
}

// ListOptions contains options for List.
type ListOptions struct {
	// AgentID restricts results to one agent. Empty means all agents.
	AgentID string

	// Filter applies structured conditions.
	Filter *Filter

	// Limit caps the number of results. Zero means no limit.
	Limit int

	// Offset skips that many matching records.
	Offset int
}

// DefaultSearchLimit is used when SearchOptions.Limit is zero.
const DefaultSearchLimit = 10

// SearchLimit returns the effective search limit.
func (o *SearchOptions) SearchLimit() int {
	if o == nil || o.Limit <= 0 {
		return DefaultSearchLimit
	}
	return o.Limit
}

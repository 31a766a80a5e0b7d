package core

import (
	"context"
	"time"

	"github.com/oceanbase/agentmem-go/pkg/embedder"
	"github.com/oceanbase/agentmem-go/pkg/intelligence"
	"github.com/oceanbase/agentmem-go/pkg/logging"
	"github.com/oceanbase/agentmem-go/pkg/storage"
)

// Retriever ranks an agent's memories for a query by semantic similarity
// plus recency, and refreshes the recency of what it returns.
//
// The vector store supplies the FetchK most similar candidates and the k
// newest memories of the stream join them with similarity 0, so a fresh
// memory can surface on recency alone. The Ranker adds a decayed recency
// score (and optionally importance) and keeps the top k. Every returned
// memory gets LastAccessedAt = now.
type Retriever struct {
	store    *Store
	vectors  storage.VectorStore
	embedder embedder.Provider
	ranker   *intelligence.Ranker
	fetchK   int
	logger   logging.Logger
}

// NewRetriever creates a Retriever over store. Query embeddings go through
// emb, which is usually an embedder.Cached.
func NewRetriever(store *Store, emb embedder.Provider, ranker *intelligence.Ranker, fetchK int, logger logging.Logger) *Retriever {
	if fetchK <= 0 {
		fetchK = DefaultFetchK
	}
	return &Retriever{
		store:    store,
		vectors:  store.vectors,
		embedder: emb,
		ranker:   ranker,
		fetchK:   fetchK,
		logger:   logging.OrNoOp(logger),
	}
}

// Retrieve returns up to k memories for query ranked by combined score,
// highest first, with Score set to the combined score. An empty stream
// yields an empty slice.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, now time.Time) ([]*Memory, error) {
	if r.store.Len() == 0 {
		return []*Memory{}, nil
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, wrapKind(ErrEmbeddingFailed, err)
	}

	results, err := r.vectors.Search(ctx, vector, &storage.SearchOptions{
		AgentID: r.store.AgentID(),
		Limit:   r.fetchK,
	})
	if err != nil {
		return nil, wrapKind(ErrStorageOperation, err)
	}

	// the in-process stream holds the authoritative access times
	seen := make(map[int64]bool, len(results))
	for _, res := range results {
		seen[res.ID] = true
		if m, ok := r.store.Get(res.ID); ok {
			res.LastAccessedAt = m.LastAccessedAt
		}
	}
	for _, m := range r.store.Recent(k) {
		if !seen[m.ID] {
			results = append(results, toStorageMemory(m))
		}
	}

	ranked := r.ranker.Rank(results, now, k)
	ids := make([]int64, len(ranked))
	memories := make([]*Memory, len(ranked))
	for i, c := range ranked {
		ids[i] = c.Memory.ID
		m := fromStorageMemory(c.Memory)
		m.Score = c.Combined
		if now.Before(m.CreatedAt) {
			m.LastAccessedAt = m.CreatedAt
		} else {
			m.LastAccessedAt = now
		}
		memories[i] = m
		r.logger.Debug("retrieved memory",
			"id", m.ID,
			"similarity", c.Similarity,
			"recency", c.Recency,
			"score", c.Combined)
	}

	if err := r.store.touch(ctx, now, ids...); err != nil {
		return nil, err
	}
	return memories, nil
}

package intelligence

import (
	"sort"
	"time"

	"github.com/oceanbase/agentmem-go/pkg/storage"
)

// Candidate is a memory with the parts of its time-weighted score.
type Candidate struct {
	Memory     *storage.Memory
	Similarity float64
	Recency    float64
	Combined   float64
}

// Ranker blends semantic similarity with recency (and optionally importance)
// into one score.
//
// Example usage:
//
//	ranker := &Ranker{Decay: ExponentialDecay(0.01)}
//	top := ranker.Rank(results, time.Now(), 4)
type Ranker struct {
	// Decay scores time since last access. Nil means ExponentialDecay
	// with DefaultDecayRate.
	Decay DecayFunc

	// IncludeImportance adds the memory's importance to the combined score.
	IncludeImportance bool
}

// Score computes the combined score of m at now, given its similarity to the
// query.
func (r *Ranker) Score(m *storage.Memory, similarity float64, now time.Time) Candidate {
	decay := r.Decay
	if decay == nil {
		decay = ExponentialDecay(DefaultDecayRate)
	}
	recency := decay(now.Sub(m.LastAccessedAt))
	combined := similarity + recency
	if r.IncludeImportance {
		combined += m.Importance
	}
	return Candidate{
		Memory:     m,
		Similarity: similarity,
		Recency:    recency,
		Combined:   combined,
	}
}

// Rank scores results (whose Score holds the similarity from the vector
// store) and returns the top k by combined score, ties broken by insertion
// order. k <= 0 returns every candidate.
func (r *Ranker) Rank(results []*storage.Memory, now time.Time, k int) []Candidate {
	candidates := make([]Candidate, 0, len(results))
	for _, m := range results {
		candidates = append(candidates, r.Score(m, m.Score, now))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Combined != candidates[j].Combined {
			return candidates[i].Combined > candidates[j].Combined
		}
		return candidates[i].Memory.ID < candidates[j].Memory.ID
	})

	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

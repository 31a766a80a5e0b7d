package storage

import (
	"math"
	"sort"
)

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// the lengths differ or either vector is zero.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SortByScore orders memories by Score descending (ties by ascending ID) and
// truncates to limit when limit > 0.
func SortByScore(memories []*Memory, limit int) []*Memory {
	sort.SliceStable(memories, func(i, j int) bool {
		if memories[i].Score != memories[j].Score {
			return memories[i].Score > memories[j].Score
		}
		return memories[i].ID < memories[j].ID
	})
	if limit > 0 && len(memories) > limit {
		memories = memories[:limit]
	}
	return memories
}

// Paginate applies offset and limit (0 = unlimited) to an ordered slice.
func Paginate(memories []*Memory, offset, limit int) []*Memory {
	if offset > 0 {
		if offset >= len(memories) {
			return []*Memory{}
		}
		memories = memories[offset:]
	}
	if limit > 0 && len(memories) > limit {
		memories = memories[:limit]
	}
	return memories
}

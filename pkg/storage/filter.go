package storage

import (
	"fmt"
	"strings"
	"time"
)

// Filter selects memories by structured attributes. Zero-valued fields do not
// constrain. All set conditions must hold.
type Filter struct {
	// MinImportance keeps records with Importance >= *MinImportance.
	MinImportance *float64

	// MaxImportance keeps records with Importance <= *MaxImportance.
	MaxImportance *float64

	// CreatedAfter keeps records created at or after this time.
	CreatedAfter *time.Time

	// CreatedBefore keeps records created strictly before this time.
	CreatedBefore *time.Time

	// ContentContains keeps records whose content contains the substring.
	ContentContains string

	// Metadata keeps records whose metadata has equal values for every key.
	// Values compare by their fmt %v rendering, so 1 and "1" are equal.
	Metadata map[string]interface{}
}

// MinImportance returns a Filter for Importance >= min.
func MinImportance(min float64) *Filter {
	return &Filter{MinImportance: &min}
}

// CreatedBetween returns a Filter for from <= CreatedAt < to.
func CreatedBetween(from, to time.Time) *Filter {
	return &Filter{CreatedAfter: &from, CreatedBefore: &to}
}

// Match reports whether m satisfies every condition of f. A nil Filter matches
// everything.
func (f *Filter) Match(m *Memory) bool {
	if f == nil {
		return true
	}
	if f.MinImportance != nil && m.Importance < *f.MinImportance {
		return false
	}
	if f.MaxImportance != nil && m.Importance > *f.MaxImportance {
		return false
	}
	if f.CreatedAfter != nil && m.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && !m.CreatedAt.Before(*f.CreatedBefore) {
		return false
	}
	if f.ContentContains != "" && !strings.Contains(m.Content, f.ContentContains) {
		return false
	}
	return f.MatchMetadata(m.Metadata)
}

// MatchMetadata checks only the Metadata conditions.
func (f *Filter) MatchMetadata(md map[string]interface{}) bool {
	if f == nil {
		return true
	}
	for k, want := range f.Metadata {
		got, ok := md[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// HasMetadata reports whether f has conditions SQL backends check in Go.
func (f *Filter) HasMetadata() bool {
	return f != nil && len(f.Metadata) > 0
}

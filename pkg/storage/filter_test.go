package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oceanbase/agentmem-go/pkg/storage"
)

func TestFilterMatch(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := &storage.Memory{
		Content:    "Tommie likes dogs",
		Importance: 0.3,
		CreatedAt:  t0,
		Metadata:   map[string]interface{}{"kind": "observation", "turn": 3},
	}

	var nilFilter *storage.Filter
	assert.True(t, nilFilter.Match(m))

	assert.True(t, storage.MinImportance(0.3).Match(m))
	assert.False(t, storage.MinImportance(0.31).Match(m))

	maxImp := 0.2
	assert.False(t, (&storage.Filter{MaxImportance: &maxImp}).Match(m))

	assert.True(t, storage.CreatedBetween(t0, t0.Add(time.Second)).Match(m))
	assert.False(t, storage.CreatedBetween(t0.Add(-time.Hour), t0).Match(m))

	assert.True(t, (&storage.Filter{ContentContains: "dogs"}).Match(m))
	assert.False(t, (&storage.Filter{ContentContains: "cats"}).Match(m))

	assert.True(t, (&storage.Filter{Metadata: map[string]interface{}{"turn": "3"}}).Match(m))
	assert.False(t, (&storage.Filter{Metadata: map[string]interface{}{"kind": "reflection"}}).Match(m))
	assert.False(t, (&storage.Filter{Metadata: map[string]interface{}{"missing": 1}}).Match(m))
}

func TestFilterHasMetadata(t *testing.T) {
	var f *storage.Filter
	assert.False(t, f.HasMetadata())
	assert.False(t, storage.MinImportance(1).HasMetadata())
	assert.True(t, (&storage.Filter{Metadata: map[string]interface{}{"a": 1}}).HasMetadata())
}

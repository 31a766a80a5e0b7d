package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oceanbase/agentmem-go/pkg/core"
)

func TestFormatDetail(t *testing.T) {
	memories := []*core.Memory{
		{Content: "  Xiao Li moved to Hangzhou ", CreatedAt: t0},
		{Content: "Xiao Li adopted a cat", CreatedAt: t0.Add(90 * time.Minute)},
	}

	tests := []struct {
		name     string
		prefix   string
		expected string
	}{
		{
			name:     "no prefix",
			expected: "[2024-05-01 09:00:00] Xiao Li moved to Hangzhou\n[2024-05-01 10:30:00] Xiao Li adopted a cat",
		},
		{
			name:     "with prefix",
			prefix:   "- ",
			expected: "- [2024-05-01 09:00:00] Xiao Li moved to Hangzhou\n- [2024-05-01 10:30:00] Xiao Li adopted a cat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, core.FormatDetail(memories, tt.prefix))
		})
	}
}

func TestFormatDetail_Empty(t *testing.T) {
	assert.Equal(t, "", core.FormatDetail(nil, "- "))
	assert.Equal(t, "", core.FormatSimple(nil))
}

func TestFormatSimple(t *testing.T) {
	memories := []*core.Memory{
		{Content: "likes tea"},
		{Content: "lives in Hangzhou"},
		{Content: "has a cat"},
	}
	assert.Equal(t, "likes tea; lives in Hangzhou; has a cat", core.FormatSimple(memories))
}

package core

import (
	"strings"

	"github.com/oceanbase/agentmem-go/pkg/tokenizer"
)

// DetailTimeLayout is the timestamp layout used by FormatDetail.
const DetailTimeLayout = "2006-01-02 15:04:05"

// FormatDetail renders one line per memory:
//
//	<prefix>[2024-05-01 09:00:00] content
func FormatDetail(memories []*Memory, prefix string) string {
	lines := make([]string, len(memories))
	for i, m := range memories {
		lines[i] = formatMemoryDetail(m, prefix)
	}
	return strings.Join(lines, "\n")
}

func formatMemoryDetail(m *Memory, prefix string) string {
	return prefix + "[" + m.CreatedAt.Format(DetailTimeLayout) + "] " + strings.TrimSpace(m.Content)
}

// FormatSimple joins memory contents with "; ".
func FormatSimple(memories []*Memory) string {
	contents := make([]string, len(memories))
	for i, m := range memories {
		contents[i] = m.Content
	}
	return strings.Join(contents, "; ")
}

// untilTokenLimit walks stream newest to oldest, adding each memory's tokens
// to consumed. A memory is kept while the total stays below limit; the walk
// stops once the total reaches it.
func untilTokenLimit(stream []*Memory, counter tokenizer.Counter, consumed, limit int) []*Memory {
	kept := []*Memory{}
	for i := len(stream) - 1; i >= 0; i-- {
		if consumed >= limit {
			break
		}
		consumed += counter.CountTokens(stream[i].Content)
		if consumed < limit {
			kept = append(kept, stream[i])
		}
	}
	return kept
}

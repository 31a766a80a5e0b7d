package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/oceanbase/agentmem-go/pkg/storage"
)

const selectColumns = `id, agent_id, content, embedding::text, importance, metadata, created_at, last_accessed_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanMemory scans one row. When score is non-nil a trailing similarity
// column is scanned into it.
func scanMemory(s scanner, score *float64) (*storage.Memory, error) {
	var memory storage.Memory
	var embeddingStr string
	var metadataStr []byte

	dest := []interface{}{
		&memory.ID,
		&memory.AgentID,
		&memory.Content,
		&embeddingStr,
		&memory.Importance,
		&metadataStr,
		&memory.CreatedAt,
		&memory.LastAccessedAt,
	}
	if score != nil {
		dest = append(dest, score)
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	embedding, err := parseVectorString(embeddingStr)
	if err != nil {
		return nil, fmt.Errorf("parse embedding: %w", err)
	}
	memory.Embedding = embedding

	if len(metadataStr) > 0 && string(metadataStr) != "null" {
		if err := json.Unmarshal(metadataStr, &memory.Metadata); err != nil {
			return nil, fmt.Errorf("parse metadata: %w", err)
		}
	}
	memory.CreatedAt = memory.CreatedAt.UTC()
	memory.LastAccessedAt = memory.LastAccessedAt.UTC()
	if score != nil {
		memory.Score = *score
	}
	return &memory, nil
}

func scanMemories(rows *sql.Rows, hasScore bool) ([]*storage.Memory, error) {
	memories := []*storage.Memory{}
	for rows.Next() {
		var score *float64
		if hasScore {
			score = new(float64)
		}
		m, err := scanMemory(rows, score)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return memories, nil
}

// vectorToString converts a vector to pgvector's text format "[0.1,0.2]".
func vectorToString(vector []float64) string {
	if len(vector) == 0 {
		return "[]"
	}
	parts := make([]string, len(vector))
	for i, v := range vector {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// parseVectorString parses pgvector's text format.
func parseVectorString(s string) ([]float64, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return []float64{}, nil
	}

	parts := strings.Split(s, ",")
	result := make([]float64, len(parts))
	for i, part := range parts {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		result[i] = val
	}
	return result, nil
}

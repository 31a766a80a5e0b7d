package oceanbase

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/oceanbase/agentmem-go/pkg/storage"
)

const selectColumns = `id, agent_id, document, embedding, importance, metadata, created_at, last_accessed_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanMemory scans one row. When distance is non-nil a trailing
// cosine_distance column is scanned and converted to Score.
func scanMemory(s scanner, distance *float64) (*storage.Memory, error) {
	var memory storage.Memory
	var embeddingStr sql.NullString
	var metadataJSON []byte

	dest := []interface{}{
		&memory.ID,
		&memory.AgentID,
		&memory.Content,
		&embeddingStr,
		&memory.Importance,
		&metadataJSON,
		&memory.CreatedAt,
		&memory.LastAccessedAt,
	}
	if distance != nil {
		dest = append(dest, distance)
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	if embeddingStr.Valid && embeddingStr.String != "" {
		embedding, err := stringToVector(embeddingStr.String)
		if err != nil {
			return nil, err
		}
		memory.Embedding = embedding
	}
	if len(metadataJSON) > 0 && string(metadataJSON) != "null" {
		if err := json.Unmarshal(metadataJSON, &memory.Metadata); err != nil {
			return nil, err
		}
	}
	memory.CreatedAt = memory.CreatedAt.UTC()
	memory.LastAccessedAt = memory.LastAccessedAt.UTC()
	if distance != nil {
		memory.Score = 1.0 - *distance
	}
	return &memory, nil
}

func scanMemories(rows *sql.Rows, hasScore bool) ([]*storage.Memory, error) {
	memories := []*storage.Memory{}
	for rows.Next() {
		var distance *float64
		if hasScore {
			distance = new(float64)
		}
		m, err := scanMemory(rows, distance)
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

// vectorToString converts a float64 slice to an OceanBase VECTOR literal.
// Example: [0.1, 0.2, 0.3] -> "[0.1,0.2,0.3]"
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

// stringToVector parses an OceanBase VECTOR literal.
func stringToVector(s string) ([]float64, error) {
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

// generateHash returns the md5 hex digest of content.
func generateHash(content string) string {
	hash := md5.Sum([]byte(content))
	return hex.EncodeToString(hash[:])
}

package sqlite

import (
	"encoding/json"
	"time"

	"github.com/oceanbase/agentmem-go/pkg/storage"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMemory(s scanner) (*storage.Memory, error) {
	var (
		m              storage.Memory
		embeddingJSON  string
		metadataJSON   *string
		createdAt      int64
		lastAccessedAt int64
	)
	if err := s.Scan(
		&m.ID,
		&m.AgentID,
		&m.Content,
		&embeddingJSON,
		&m.Importance,
		&metadataJSON,
		&createdAt,
		&lastAccessedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(embeddingJSON), &m.Embedding); err != nil {
		return nil, err
	}
	if metadataJSON != nil && *metadataJSON != "" && *metadataJSON != "null" {
		if err := json.Unmarshal([]byte(*metadataJSON), &m.Metadata); err != nil {
			return nil, err
		}
	}
	m.CreatedAt = time.Unix(0, createdAt).UTC()
	m.LastAccessedAt = time.Unix(0, lastAccessedAt).UTC()
	return &m, nil
}

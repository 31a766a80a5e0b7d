// Package postgres provides a PostgreSQL + pgvector VectorStore.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/oceanbase/agentmem-go/pkg/storage"
)

// Client is a PostgreSQL + pgvector client.
type Client struct {
	db             *sql.DB
	collectionName string
	dimensions     int
}

// Config contains PostgreSQL configuration.
type Config struct {
	Host               string
	Port               int
	User               string
	Password           string
	DBName             string
	CollectionName     string
	EmbeddingModelDims int
	SSLMode            string
}

// NewClient creates a new PostgreSQL client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("NewPostgresClient: config is required")
	}
	if cfg.EmbeddingModelDims <= 0 {
		return nil, errors.New("NewPostgresClient: embedding dimensions must be positive")
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	name := cfg.CollectionName
	if name == "" {
		name = "memories"
	}
	client := &Client{
		db:             db,
		collectionName: name,
		dimensions:     cfg.EmbeddingModelDims,
	}
	if err := client.initTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return client, nil
}

func (c *Client) initTables(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("initTables: create extension: %w", err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGINT PRIMARY KEY,
			agent_id VARCHAR(255) NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			importance DOUBLE PRECISION NOT NULL DEFAULT 0,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			last_accessed_at TIMESTAMPTZ NOT NULL
		)
	`, c.collectionName, c.dimensions)
	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("initTables: create table: %w", err)
	}

	indexQuery := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_agent ON %s(agent_id, id)
	`, c.collectionName, c.collectionName)
	if _, err := c.db.ExecContext(ctx, indexQuery); err != nil {
		return fmt.Errorf("initTables: create index: %w", err)
	}

	hnswQuery := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_embedding ON %s
		USING hnsw (embedding vector_cosine_ops)
	`, c.collectionName, c.collectionName)
	if _, err := c.db.ExecContext(ctx, hnswQuery); err != nil {
		return fmt.Errorf("initTables: create vector index: %w", err)
	}
	return nil
}

// Insert stores memories in one transaction.
func (c *Client) Insert(ctx context.Context, memories ...*storage.Memory) error {
	if len(memories) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`
		INSERT INTO %s
		(id, agent_id, content, embedding, importance, metadata, created_at, last_accessed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.collectionName)

	for _, m := range memories {
		if len(m.Embedding) != c.dimensions {
			return fmt.Errorf("Insert: embedding has %d dimensions, want %d", len(m.Embedding), c.dimensions)
		}
		metadataJSON, err := json.Marshal(m.Metadata)
		if err != nil {
			return fmt.Errorf("Insert: %w", err)
		}
		lastAccessed := m.LastAccessedAt
		if lastAccessed.Before(m.CreatedAt) {
			lastAccessed = m.CreatedAt
		}
		if _, err := tx.ExecContext(ctx, query,
			m.ID,
			m.AgentID,
			m.Content,
			vectorToString(m.Embedding),
			m.Importance,
			string(metadataJSON),
			m.CreatedAt.UTC(),
			lastAccessed.UTC(),
		); err != nil {
			return fmt.Errorf("Insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Insert: %w", err)
	}
	return nil
}

// Search performs vector search using pgvector's cosine distance operator.
func (c *Client) Search(ctx context.Context, embedding []float64, opts *storage.SearchOptions) ([]*storage.Memory, error) {
	if opts == nil {
		opts = &storage.SearchOptions{}
	}
	// $1 is the query vector
	whereClause, filterArgs := storage.WhereClause(storage.PostgresDialect, opts.AgentID, opts.Filter, 1)

	limitClause := ""
	args := append([]interface{}{vectorToString(embedding)}, filterArgs...)
	if !opts.Filter.HasMetadata() {
		limitClause = fmt.Sprintf("LIMIT $%d", len(args)+1)
		args = append(args, opts.SearchLimit())
	}

	query := fmt.Sprintf(`
		SELECT %s, 1 - (embedding <=> $1) AS similarity
		FROM %s
		%s
		ORDER BY embedding <=> $1, id
		%s
	`, selectColumns, c.collectionName, whereClause, limitClause)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	memories, err := scanMemories(rows, true)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}

	kept := memories[:0]
	for _, m := range memories {
		if m.Score >= opts.MinScore && opts.Filter.MatchMetadata(m.Metadata) {
			kept = append(kept, m)
		}
	}
	return storage.SortByScore(kept, opts.SearchLimit()), nil
}

// Get retrieves a memory by ID.
func (c *Client) Get(ctx context.Context, id int64) (*storage.Memory, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, selectColumns, c.collectionName)

	memory, err := scanMemory(c.db.QueryRowContext(ctx, query, id), nil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return memory, nil
}

// List returns memories in ascending id order.
func (c *Client) List(ctx context.Context, opts *storage.ListOptions) ([]*storage.Memory, error) {
	if opts == nil {
		opts = &storage.ListOptions{}
	}
	whereClause, args := storage.WhereClause(storage.PostgresDialect, opts.AgentID, opts.Filter, 0)

	pageClause := ""
	if !opts.Filter.HasMetadata() {
		if opts.Limit > 0 {
			pageClause = fmt.Sprintf("LIMIT $%d ", len(args)+1)
			args = append(args, opts.Limit)
		}
		if opts.Offset > 0 {
			pageClause += fmt.Sprintf("OFFSET $%d", len(args)+1)
			args = append(args, opts.Offset)
		}
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		%s
		ORDER BY id ASC
		%s
	`, selectColumns, c.collectionName, whereClause, pageClause)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	memories, err := scanMemories(rows, false)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	if !opts.Filter.HasMetadata() {
		return memories, nil
	}

	kept := memories[:0]
	for _, m := range memories {
		if opts.Filter.MatchMetadata(m.Metadata) {
			kept = append(kept, m)
		}
	}
	return storage.Paginate(kept, opts.Offset, opts.Limit), nil
}

// Touch bumps last_accessed_at, never below created_at.
func (c *Client) Touch(ctx context.Context, at time.Time, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	in, args := storage.InClause(storage.PostgresDialect, ids, 1)
	query := fmt.Sprintf(
		`UPDATE %s SET last_accessed_at = GREATEST(created_at, $1) WHERE id IN %s`,
		c.collectionName, in)

	if _, err := c.db.ExecContext(ctx, query, append([]interface{}{at.UTC()}, args...)...); err != nil {
		return fmt.Errorf("Touch: %w", err)
	}
	return nil
}

// Count returns the number of rows for agentID.
func (c *Client) Count(ctx context.Context, agentID string) (int, error) {
	whereClause, args := storage.WhereClause(storage.PostgresDialect, agentID, nil, 0)
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", c.collectionName, whereClause)
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

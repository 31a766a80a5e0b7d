// Package oceanbase provides an OceanBase (MySQL mode) VectorStore using the
// native VECTOR type and cosine_distance.
package oceanbase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/oceanbase/agentmem-go/pkg/storage"
)

// Client is an OceanBase client.
type Client struct {
	db             *sql.DB
	config         *Config
	collectionName string
}

// Config contains OceanBase configuration.
type Config struct {
	Host               string
	Port               int
	User               string
	Password           string
	DBName             string
	CollectionName     string
	EmbeddingModelDims int
}

// NewClient creates a new OceanBase client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("NewOceanBaseClient: config is required")
	}
	if cfg.EmbeddingModelDims <= 0 {
		return nil, errors.New("NewOceanBaseClient: embedding dimensions must be positive")
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewOceanBaseClient: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("NewOceanBaseClient: %w", err)
	}

	name := cfg.CollectionName
	if name == "" {
		name = "memories"
	}
	client := &Client{
		db:             db,
		config:         cfg,
		collectionName: name,
	}
	if err := client.initTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return client, nil
}

func (c *Client) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGINT PRIMARY KEY,
			agent_id VARCHAR(128) NOT NULL,
			document LONGTEXT NOT NULL,
			embedding VECTOR(%d),
			importance DOUBLE NOT NULL DEFAULT 0,
			metadata JSON,
			hash VARCHAR(32),
			created_at DATETIME(6) NOT NULL,
			last_accessed_at DATETIME(6) NOT NULL,
			INDEX idx_agent (agent_id, id)
		)
	`, c.collectionName, c.config.EmbeddingModelDims)

	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}
	return nil
}

// Insert stores memories in one transaction. Content goes to the document
// column together with its md5 hash.
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
		(id, agent_id, document, embedding, importance, metadata, hash, created_at, last_accessed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.collectionName)

	for _, m := range memories {
		if len(m.Embedding) != c.config.EmbeddingModelDims {
			return fmt.Errorf("Insert: embedding has %d dimensions, want %d",
				len(m.Embedding), c.config.EmbeddingModelDims)
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
			metadataJSON,
			generateHash(m.Content),
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

// Search performs vector search ordered by cosine distance.
func (c *Client) Search(ctx context.Context, embedding []float64, opts *storage.SearchOptions) ([]*storage.Memory, error) {
	if opts == nil {
		opts = &storage.SearchOptions{}
	}
	whereClause, filterArgs := storage.WhereClause(storage.MySQLDialect, opts.AgentID, opts.Filter, 1)

	limitClause := ""
	args := append([]interface{}{vectorToString(embedding)}, filterArgs...)
	if !opts.Filter.HasMetadata() {
		limitClause = "LIMIT ?"
		args = append(args, opts.SearchLimit())
	}

	query := fmt.Sprintf(`
		SELECT %s, cosine_distance(embedding, ?) AS distance
		FROM %s
		%s
		ORDER BY distance ASC, id ASC
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
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, selectColumns, c.collectionName)

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
	whereClause, args := storage.WhereClause(storage.MySQLDialect, opts.AgentID, opts.Filter, 0)

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		%s
		ORDER BY id ASC
	`, selectColumns, c.collectionName, whereClause)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	memories, err := scanMemories(rows, false)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
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
	in, args := storage.InClause(storage.MySQLDialect, ids, 1)
	query := fmt.Sprintf(
		`UPDATE %s SET last_accessed_at = GREATEST(created_at, ?) WHERE id IN %s`,
		c.collectionName, in)

	if _, err := c.db.ExecContext(ctx, query, append([]interface{}{at.UTC()}, args...)...); err != nil {
		return fmt.Errorf("Touch: %w", err)
	}
	return nil
}

// Count returns the number of rows for agentID.
func (c *Client) Count(ctx context.Context, agentID string) (int, error) {
	whereClause, args := storage.WhereClause(storage.MySQLDialect, agentID, nil, 0)
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

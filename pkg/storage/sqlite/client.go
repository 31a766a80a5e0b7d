// Package sqlite provides a SQLite VectorStore.
//
// Vectors are stored as JSON text and similarity is computed in process, so
// this backend suits a single agent's stream on local disk. Timestamps are
// stored as unix nanoseconds to keep them lossless.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/oceanbase/agentmem-go/pkg/storage"
)

// Client implements storage.VectorStore on SQLite.
type Client struct {
	db             *sql.DB
	collectionName string
}

// Config configures a SQLite store.
type Config struct {
	// DBPath is the database file. ":memory:" keeps everything in RAM.
	DBPath string

	// CollectionName is the table name. Defaults to "memories".
	CollectionName string
}

// NewClient opens (and if needed creates) the database and table.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.DBPath == "" {
		return nil, errors.New("NewSQLiteClient: db path is required")
	}
	if cfg.DBPath != ":memory:" {
		if dir := filepath.Dir(cfg.DBPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}
	if cfg.DBPath == ":memory:" {
		// every pooled connection would get its own empty in-memory database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	name := cfg.CollectionName
	if name == "" {
		name = "memories"
	}
	client := &Client{db: db, collectionName: name}
	if err := client.initTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return client, nil
}

func (c *Client) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY,
			agent_id TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding TEXT NOT NULL,
			importance REAL NOT NULL DEFAULT 0,
			metadata TEXT,
			created_at INTEGER NOT NULL,
			last_accessed_at INTEGER NOT NULL
		)
	`, c.collectionName)
	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	indexQuery := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS idx_%s_agent ON %s(agent_id, id)`,
		c.collectionName, c.collectionName)
	if _, err := c.db.ExecContext(ctx, indexQuery); err != nil {
		return fmt.Errorf("initTables: %w", err)
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.collectionName)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, m := range memories {
		embeddingJSON, err := json.Marshal(m.Embedding)
		if err != nil {
			return fmt.Errorf("Insert: %w", err)
		}
		metadataJSON, err := json.Marshal(m.Metadata)
		if err != nil {
			return fmt.Errorf("Insert: %w", err)
		}
		lastAccessed := m.LastAccessedAt
		if lastAccessed.Before(m.CreatedAt) {
			lastAccessed = m.CreatedAt
		}
		if _, err := stmt.ExecContext(ctx,
			m.ID,
			m.AgentID,
			m.Content,
			string(embeddingJSON),
			m.Importance,
			string(metadataJSON),
			m.CreatedAt.UnixNano(),
			lastAccessed.UnixNano(),
		); err != nil {
			return fmt.Errorf("Insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Insert: %w", err)
	}
	return nil
}

// Search scores every matching row by cosine similarity in process.
func (c *Client) Search(ctx context.Context, embedding []float64, opts *storage.SearchOptions) ([]*storage.Memory, error) {
	if opts == nil {
		opts = &storage.SearchOptions{}
	}
	whereClause, args := storage.WhereClause(storage.SQLiteDialect, opts.AgentID, opts.Filter, 0)
	query := fmt.Sprintf(`
		SELECT id, agent_id, content, embedding, importance, metadata, created_at, last_accessed_at
		FROM %s
		%s
		ORDER BY id
	`, c.collectionName, whereClause)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	memories := []*storage.Memory{}
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("Search: %w", err)
		}
		if !opts.Filter.MatchMetadata(m.Metadata) {
			continue
		}
		m.Score = storage.CosineSimilarity(embedding, m.Embedding)
		if m.Score < opts.MinScore {
			continue
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}

	return storage.SortByScore(memories, opts.SearchLimit()), nil
}

// Get returns one record.
func (c *Client) Get(ctx context.Context, id int64) (*storage.Memory, error) {
	query := fmt.Sprintf(`
		SELECT id, agent_id, content, embedding, importance, metadata, created_at, last_accessed_at
		FROM %s
		WHERE id = ?
	`, c.collectionName)

	m, err := scanMemory(c.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return m, nil
}

// List returns records in insertion order.
func (c *Client) List(ctx context.Context, opts *storage.ListOptions) ([]*storage.Memory, error) {
	if opts == nil {
		opts = &storage.ListOptions{}
	}
	whereClause, args := storage.WhereClause(storage.SQLiteDialect, opts.AgentID, opts.Filter, 0)
	query := fmt.Sprintf(`
		SELECT id, agent_id, content, embedding, importance, metadata, created_at, last_accessed_at
		FROM %s
		%s
		ORDER BY id ASC
	`, c.collectionName, whereClause)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	memories := []*storage.Memory{}
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		if opts.Filter.MatchMetadata(m.Metadata) {
			memories = append(memories, m)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return storage.Paginate(memories, opts.Offset, opts.Limit), nil
}

// Touch bumps last_accessed_at, never below created_at.
func (c *Client) Touch(ctx context.Context, at time.Time, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	in, args := storage.InClause(storage.SQLiteDialect, ids, 1)
	query := fmt.Sprintf(
		`UPDATE %s SET last_accessed_at = MAX(created_at, ?) WHERE id IN %s`,
		c.collectionName, in)

	if _, err := c.db.ExecContext(ctx, query, append([]interface{}{at.UnixNano()}, args...)...); err != nil {
		return fmt.Errorf("Touch: %w", err)
	}
	return nil
}

// Count returns the number of rows for agentID.
func (c *Client) Count(ctx context.Context, agentID string) (int, error) {
	whereClause, args := storage.WhereClause(storage.SQLiteDialect, agentID, nil, 0)
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", c.collectionName, whereClause)
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

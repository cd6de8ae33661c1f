package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	_ "github.com/lib/pq"
)

// DefaultTable holds one row per conversation.
const DefaultTable = "parley_conversations"

var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Store implements ports.StateStore on PostgreSQL. The state is a JSONB column.
type Store struct {
	db    *sql.DB
	table string
}

// Option configures a Store.
type Option func(*Store)

// WithTable overrides the table name. Invalid identifiers are ignored.
func WithTable(name string) Option {
	return func(s *Store) {
		if tableName.MatchString(name) {
			s.table = name
		}
	}
}

// Open connects with the lib/pq driver and configures the pool.
func Open(dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return NewFromDB(db, opts...), nil
}

// NewFromDB creates a Store over an existing connection pool.
func NewFromDB(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, table: DefaultTable}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema creates the table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	conversation_id TEXT PRIMARY KEY,
	state JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// Save upserts the conversation row.
func (s *Store) Save(ctx context.Context, conversationID string, state *domain.ConversationState) error {
	if conversationID == "" {
		return domain.ErrEmptyConversationID
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (conversation_id, state, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (conversation_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`, s.table)
	if _, err := s.db.ExecContext(ctx, query, conversationID, data, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// Load reads the conversation row.
func (s *Store) Load(ctx context.Context, conversationID string) (*domain.ConversationState, error) {
	query := fmt.Sprintf(`SELECT state FROM %s WHERE conversation_id = $1`, s.table)

	var data []byte
	if err := s.db.QueryRowContext(ctx, query, conversationID).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	var state domain.ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &state, nil
}

// Delete removes the conversation row.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE conversation_id = $1`, s.table)
	if _, err := s.db.ExecContext(ctx, query, conversationID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// List returns every conversation ID, most recently updated first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT conversation_id FROM %s ORDER BY updated_at DESC`, s.table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan conversation id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return ids, nil
}

// Ping tests the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/aretw0/auraflow/pkg/domain"
)

// Schema creates the conversations table. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS conversations (
	session_id  TEXT PRIMARY KEY,
	state       JSONB NOT NULL,
	transcript  JSONB NOT NULL,
	last_seen   JSONB,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS conversations_updated_at_idx ON conversations (updated_at);
`

// Store implements ports.ConversationStore on PostgreSQL.
type Store struct {
	db *sqlx.DB
}

// Open connects to dsn and applies Schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, errx.Wrap(err, "failed to connect to postgres", errx.TypeExternal)
	}
	s := NewStore(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an existing connection pool.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Migrate applies Schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return errx.Wrap(err, "failed to migrate conversations table", errx.TypeInternal)
	}
	return nil
}

// dbConversation is the row layout of a conversation.
type dbConversation struct {
	SessionID  string          `db:"session_id"`
	State      json.RawMessage `db:"state"`
	Transcript json.RawMessage `db:"transcript"`
	LastSeen   []byte          `db:"last_seen"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

func toRow(sessionID string, conv *domain.Conversation) (*dbConversation, error) {
	state, err := json.Marshal(conv.State)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	transcript := []byte("[]")
	if len(conv.Transcript) > 0 {
		if transcript, err = json.Marshal(conv.Transcript); err != nil {
			return nil, fmt.Errorf("failed to marshal transcript: %w", err)
		}
	}
	var lastSeen []byte
	if conv.LastSeen != nil {
		if lastSeen, err = json.Marshal(conv.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to marshal version: %w", err)
		}
	}
	updated := conv.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	return &dbConversation{
		SessionID:  sessionID,
		State:      state,
		Transcript: transcript,
		LastSeen:   lastSeen,
		UpdatedAt:  updated.UTC(),
	}, nil
}

func (r *dbConversation) toDomain() (*domain.Conversation, error) {
	conv := &domain.Conversation{SessionID: r.SessionID, UpdatedAt: r.UpdatedAt}
	if err := json.Unmarshal(r.State, &conv.State); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if err := json.Unmarshal(r.Transcript, &conv.Transcript); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}
	if len(r.LastSeen) > 0 && string(r.LastSeen) != "null" {
		var v domain.GraphVersion
		if err := json.Unmarshal(r.LastSeen, &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal version: %w", err)
		}
		conv.LastSeen = &v
	}
	return conv, nil
}

// Save upserts the conversation.
func (s *Store) Save(ctx context.Context, sessionID string, conv *domain.Conversation) error {
	row, err := toRow(sessionID, conv)
	if err != nil {
		return errx.Wrap(err, "failed to convert conversation", errx.TypeInternal).
			WithDetail("session_id", sessionID)
	}

	query := `
		INSERT INTO conversations (session_id, state, transcript, last_seen, updated_at)
		VALUES (:session_id, :state, :transcript, :last_seen, :updated_at)
		ON CONFLICT (session_id) DO UPDATE SET
			state = EXCLUDED.state,
			transcript = EXCLUDED.transcript,
			last_seen = EXCLUDED.last_seen,
			updated_at = EXCLUDED.updated_at`

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return errx.Wrap(err, "failed to save conversation", errx.TypeInternal).
			WithDetail("session_id", sessionID)
	}
	return nil
}

// Load retrieves the conversation.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	query := `
		SELECT session_id, state, transcript, last_seen, updated_at
		FROM conversations
		WHERE session_id = $1`

	var row dbConversation
	if err := s.db.GetContext(ctx, &row, query, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, errx.Wrap(err, "failed to load conversation", errx.TypeInternal).
			WithDetail("session_id", sessionID)
	}
	return row.toDomain()
}

// Delete removes the conversation.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE session_id = $1`, sessionID); err != nil {
		return errx.Wrap(err, "failed to delete conversation", errx.TypeInternal).
			WithDetail("session_id", sessionID)
	}
	return nil
}

// List returns session ids, most recently updated first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := s.db.SelectContext(ctx, &ids, `SELECT session_id FROM conversations ORDER BY updated_at DESC`); err != nil {
		return nil, errx.Wrap(err, "failed to list conversations", errx.TypeInternal)
	}
	return ids, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

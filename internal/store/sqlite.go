// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides chat/message/user persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// newMessageID returns a fresh ID for a message row.
func newMessageID() string {
	return uuid.New().String()
}

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Foreign keys make chat deletion cascade to its messages
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

		CREATE TABLE IF NOT EXISTS chats (
			id         TEXT PRIMARY KEY,
			owner_id   TEXT NOT NULL,
			title      TEXT NOT NULL DEFAULT 'New Chat',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_chats_owner_updated
			ON chats(owner_id, updated_at DESC);

		CREATE TABLE IF NOT EXISTS messages (
			id         TEXT PRIMARY KEY,
			chat_id    TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at TEXT NOT NULL,

			CHECK (role IN ('user', 'assistant'))
		);

		CREATE INDEX IF NOT EXISTS idx_messages_chat_created
			ON messages(chat_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

// CreateChat inserts a new chat row. The chat's Messages are ignored;
// new chats always start empty.
func (s *SQLiteStore) CreateChat(ctx context.Context, chat *Chat) error {
	query := `
		INSERT INTO chats (id, owner_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		chat.ID,
		chat.OwnerID,
		chat.Title,
		chat.CreatedAt.UTC().Format(time.RFC3339Nano),
		chat.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting chat: %w", err)
	}

	s.logger.Debug("created chat", "id", chat.ID, "owner_id", chat.OwnerID)
	return nil
}

// GetChat retrieves a chat with its full message sequence, scoped to the
// given owner. Returns ErrNotFound if the chat does not exist or belongs
// to a different owner.
func (s *SQLiteStore) GetChat(ctx context.Context, chatID, ownerID string) (*Chat, error) {
	query := `
		SELECT id, owner_id, title, created_at, updated_at
		FROM chats
		WHERE id = ? AND owner_id = ?
	`

	var chat Chat
	var createdAtStr, updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, chatID, ownerID).Scan(
		&chat.ID,
		&chat.OwnerID,
		&chat.Title,
		&createdAtStr,
		&updatedAtStr,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying chat: %w", err)
	}

	chat.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	chat.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	chat.Messages, err = s.chatMessages(ctx, s.db, chatID)
	if err != nil {
		return nil, err
	}

	return &chat, nil
}

// querier covers *sql.DB and *sql.Tx for shared read helpers.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// chatMessages loads the full message sequence for a chat in insertion
// order. rowid breaks ties between messages appended at the same instant.
func (s *SQLiteStore) chatMessages(ctx context.Context, q querier, chatID string) ([]Message, error) {
	query := `
		SELECT role, content, created_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := q.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		var createdAtStr string

		if err := rows.Scan(&msg.Role, &msg.Content, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}

		msg.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing message created_at: %w", err)
		}

		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}

	return messages, nil
}

// ListChats returns summaries of every chat owned by ownerID, most recently
// active first. Message bodies are not loaded.
func (s *SQLiteStore) ListChats(ctx context.Context, ownerID string) ([]ChatSummary, error) {
	query := `
		SELECT id, title, created_at, updated_at
		FROM chats
		WHERE owner_id = ?
		ORDER BY updated_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying chats: %w", err)
	}
	defer rows.Close()

	summaries := []ChatSummary{}
	for rows.Next() {
		var sum ChatSummary
		var createdAtStr, updatedAtStr string

		if err := rows.Scan(&sum.ID, &sum.Title, &createdAtStr, &updatedAtStr); err != nil {
			return nil, fmt.Errorf("scanning chat row: %w", err)
		}

		sum.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		sum.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}

		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat rows: %w", err)
	}

	return summaries, nil
}

// AppendMessages atomically appends messages to a chat, advances
// updated_at, and conditionally applies a derived title. The ownership
// check, the inserts, and the chat row update run in one transaction so
// concurrent appends to the same chat cannot lose each other's messages.
// The title update is keyed off "title still equals the sentinel", which
// makes derivation idempotent under retries.
func (s *SQLiteStore) AppendMessages(ctx context.Context, req *AppendRequest) (*Chat, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning append transaction: %w", err)
	}
	defer tx.Rollback()

	var chat Chat
	var createdAtStr, updatedAtStr string
	err = tx.QueryRowContext(ctx, `
		SELECT id, owner_id, title, created_at, updated_at
		FROM chats
		WHERE id = ? AND owner_id = ?
	`, req.ChatID, req.OwnerID).Scan(
		&chat.ID, &chat.OwnerID, &chat.Title, &createdAtStr, &updatedAtStr,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying chat for append: %w", err)
	}

	chat.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	now := time.Now()
	for i, msg := range req.Messages {
		// Timestamps within one append never move backward
		ts := msg.CreatedAt
		if ts.IsZero() {
			ts = now
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO messages (id, chat_id, role, content, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, newMessageID(), req.ChatID, msg.Role, msg.Content, ts.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return nil, fmt.Errorf("inserting message %d: %w", i, err)
		}
	}

	chat.UpdatedAt = now
	_, err = tx.ExecContext(ctx, `
		UPDATE chats SET updated_at = ? WHERE id = ?
	`, now.UTC().Format(time.RFC3339Nano), req.ChatID)
	if err != nil {
		return nil, fmt.Errorf("updating chat timestamp: %w", err)
	}

	if req.Title != "" {
		result, err := tx.ExecContext(ctx, `
			UPDATE chats SET title = ? WHERE id = ? AND title = ?
		`, req.Title, req.ChatID, DefaultTitle)
		if err != nil {
			return nil, fmt.Errorf("updating chat title: %w", err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			chat.Title = req.Title
			s.logger.Debug("derived chat title", "chat_id", req.ChatID, "title", req.Title)
		}
	}

	chat.Messages, err = s.chatMessages(ctx, tx, req.ChatID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing append: %w", err)
	}

	s.logger.Debug("appended messages", "chat_id", req.ChatID, "count", len(req.Messages))
	return &chat, nil
}

// DeleteChat removes a chat and all its messages, scoped to the owner.
// Returns ErrNotFound if the chat does not exist or is not owned.
func (s *SQLiteStore) DeleteChat(ctx context.Context, chatID, ownerID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM chats WHERE id = ? AND owner_id = ?
	`, chatID, ownerID)
	if err != nil {
		return fmt.Errorf("deleting chat: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted chat", "id", chatID, "owner_id", ownerID)
	return nil
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)

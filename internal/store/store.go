// Package store provides durable persistence for voice assistant
// conversations, messages, and tool invocations on SQLite.
//
// Every write operation runs inside its own short-lived transaction and
// commits before returning: a crash between two statements of the same
// logical operation is never observable from another caller.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Conversation is one persisted record of a single live interaction.
type Conversation struct {
	ID                  int64
	SessionID           string
	StartTime           time.Time
	EndTime             *time.Time
	ParticipantIdentity string
	ParticipantName     string
	MessageCount        int
	DurationSeconds     int
	Transcript          string
	Cost                float64
	Status              string
}

// Conversation status values.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Message is one recorded utterance within a conversation. Messages are
// immutable once written.
type Message struct {
	ID             int64
	ConversationID int64
	Timestamp      time.Time
	Role           string
	Content        string
}

// ToolCall is one recorded invocation of an auxiliary function during a
// conversation. Read-only after creation.
type ToolCall struct {
	ID             int64
	ConversationID int64
	MessageID      *int64
	ToolName       string
	Parameters     map[string]any
	Result         json.RawMessage
	Success        bool
	Timestamp      time.Time
}

// Options configures store behavior.
type Options struct {
	// UniqueSessions rejects CreateConversation for a session id that
	// already has a conversation row. Off by default: a reconnect for the
	// same session id opens a new conversation.
	UniqueSessions bool
}

// Store is a SQLite-backed conversation store.
type Store struct {
	db   *sql.DB
	path string
	opts Options
}

// Open opens (creating if needed) the store at path with default options.
// The path is an explicit constructor parameter; there is no process-wide
// default location.
func Open(path string) (*Store, error) {
	return OpenOptions(path, Options{})
}

// OpenOptions opens the store at path with the given options.
func OpenOptions(path string, opts Options) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_fk=1")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, path: path, opts: opts}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME,
		participant_identity TEXT NOT NULL DEFAULT '',
		participant_name TEXT NOT NULL DEFAULT '',
		message_count INTEGER NOT NULL DEFAULT 0,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		transcript TEXT,
		cost REAL NOT NULL DEFAULT 0.0,
		status TEXT NOT NULL DEFAULT 'active'
	);

	CREATE INDEX IF NOT EXISTS idx_conversations_session ON conversations(session_id);
	CREATE INDEX IF NOT EXISTS idx_conversations_participant ON conversations(participant_identity, start_time DESC);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id INTEGER NOT NULL,
		timestamp DATETIME NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, timestamp);

	CREATE TABLE IF NOT EXISTS tool_calls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id INTEGER NOT NULL,
		message_id INTEGER,
		tool_name TEXT NOT NULL,
		parameters TEXT NOT NULL DEFAULT '{}',
		result TEXT,
		success INTEGER NOT NULL DEFAULT 1,
		timestamp DATETIME NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id)
	);

	CREATE INDEX IF NOT EXISTS idx_tool_calls_conversation ON tool_calls(conversation_id, timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DB exposes the underlying handle for read-only accessors.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateConversation inserts a new active conversation row and returns its
// numeric id. Repeated calls for the same session id each create a new row
// unless the store was opened with UniqueSessions.
func (s *Store) CreateConversation(ctx context.Context, sessionID, participantIdentity, participantName string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, NewStorageError("create conversation", err)
	}
	defer tx.Rollback()

	if s.opts.UniqueSessions {
		var n int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM conversations WHERE session_id = ?`, sessionID).Scan(&n)
		if err != nil {
			return 0, NewStorageError("create conversation", err)
		}
		if n > 0 {
			return 0, NewStorageError("create conversation", fmt.Errorf("%w: %s", ErrDuplicateSession, sessionID))
		}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO conversations (session_id, start_time, participant_identity, participant_name)
		VALUES (?, ?, ?, ?)
	`, sessionID, time.Now(), participantIdentity, participantName)
	if err != nil {
		return 0, NewStorageError("create conversation", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, NewStorageError("create conversation", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, NewStorageError("create conversation", err)
	}
	return id, nil
}

// AddMessage inserts a message stamped with the current time and increments
// the parent conversation's message count. Both writes are part of the same
// transaction: a crash between them is not observable.
func (s *Store) AddMessage(ctx context.Context, conversationID int64, role, content string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError("add message", err)
	}
	defer tx.Rollback()

	// Atomic count increment doubles as the existence check.
	res, err := tx.ExecContext(ctx, `
		UPDATE conversations SET message_count = message_count + 1 WHERE id = ?
	`, conversationID)
	if err != nil {
		return NewStorageError("add message", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return NewStorageError("add message", err)
	}
	if affected == 0 {
		return NewNotFoundError("conversation", conversationID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, timestamp, role, content)
		VALUES (?, ?, ?, ?)
	`, conversationID, time.Now(), role, content)
	if err != nil {
		return NewStorageError("add message", err)
	}

	if err := tx.Commit(); err != nil {
		return NewStorageError("add message", err)
	}
	return nil
}

// AddToolCall records a tool invocation against an existing conversation.
func (s *Store) AddToolCall(ctx context.Context, conversationID int64, call ToolCall) error {
	params, err := json.Marshal(call.Parameters)
	if err != nil {
		return fmt.Errorf("marshal parameters: %w", err)
	}
	var result any
	if call.Result != nil {
		result = string(call.Result)
	}
	ts := call.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError("add tool call", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE id = ?`, conversationID).Scan(&n); err != nil {
		return NewStorageError("add tool call", err)
	}
	if n == 0 {
		return NewNotFoundError("conversation", conversationID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tool_calls (conversation_id, message_id, tool_name, parameters, result, success, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, conversationID, call.MessageID, call.ToolName, string(params), result, call.Success, ts)
	if err != nil {
		return NewStorageError("add tool call", err)
	}

	if err := tx.Commit(); err != nil {
		return NewStorageError("add tool call", err)
	}
	return nil
}

// EndConversation closes a conversation: it computes the elapsed duration,
// materializes a transcript snapshot ordered by message timestamp, and writes
// end time, duration, transcript, cost, and completed status in one update.
// A second call overwrites the end metadata with a later timestamp; an
// unknown id is a no-op.
func (s *Store) EndConversation(ctx context.Context, conversationID int64, cost float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError("end conversation", err)
	}
	defer tx.Rollback()

	var start time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT start_time FROM conversations WHERE id = ?`, conversationID).Scan(&start)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return NewStorageError("end conversation", err)
	}

	now := time.Now()
	duration := int(now.Sub(start).Seconds())

	rows, err := tx.QueryContext(ctx, `
		SELECT timestamp, role, content FROM messages
		WHERE conversation_id = ? ORDER BY timestamp ASC, id ASC
	`, conversationID)
	if err != nil {
		return NewStorageError("end conversation", err)
	}
	var lines []string
	for rows.Next() {
		var ts time.Time
		var role, content string
		if err := rows.Scan(&ts, &role, &content); err != nil {
			rows.Close()
			return NewStorageError("end conversation", err)
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", ts.Format(time.RFC3339), role, content))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return NewStorageError("end conversation", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE conversations
		SET end_time = ?, duration_seconds = ?, transcript = ?, cost = ?, status = ?
		WHERE id = ?
	`, now, duration, strings.Join(lines, "\n"), cost, StatusCompleted, conversationID)
	if err != nil {
		return NewStorageError("end conversation", err)
	}

	if err := tx.Commit(); err != nil {
		return NewStorageError("end conversation", err)
	}
	return nil
}

// GetConversation looks up a conversation by id. Returns (nil, nil) when the
// id is unknown.
func (s *Store) GetConversation(ctx context.Context, conversationID int64) (*Conversation, error) {
	var c Conversation
	var endTime sql.NullTime
	var transcript sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, start_time, end_time, participant_identity, participant_name,
		       message_count, duration_seconds, transcript, cost, status
		FROM conversations WHERE id = ?
	`, conversationID).Scan(
		&c.ID, &c.SessionID, &c.StartTime, &endTime, &c.ParticipantIdentity, &c.ParticipantName,
		&c.MessageCount, &c.DurationSeconds, &transcript, &c.Cost, &c.Status,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, NewStorageError("get conversation", err)
	}

	if endTime.Valid {
		t := endTime.Time
		c.EndTime = &t
	}
	if transcript.Valid {
		c.Transcript = transcript.String
	}
	return &c, nil
}

// DeleteSessionData removes all conversations matching the session id along
// with their messages and tool calls in one transaction. An unknown session
// id deletes nothing and is not an error.
func (s *Store) DeleteSessionData(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError("delete session data", err)
	}
	defer tx.Rollback()

	// Dependent rows first so a failure mid-way cannot orphan them.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM tool_calls WHERE conversation_id IN
			(SELECT id FROM conversations WHERE session_id = ?)
	`, sessionID)
	if err != nil {
		return NewStorageError("delete session data", err)
	}
	_, err = tx.ExecContext(ctx, `
		DELETE FROM messages WHERE conversation_id IN
			(SELECT id FROM conversations WHERE session_id = ?)
	`, sessionID)
	if err != nil {
		return NewStorageError("delete session data", err)
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM conversations WHERE session_id = ?`, sessionID)
	if err != nil {
		return NewStorageError("delete session data", err)
	}

	if err := tx.Commit(); err != nil {
		return NewStorageError("delete session data", err)
	}
	return nil
}

// ToolUsageStats aggregates tool invocation counts by tool name, globally or
// scoped to one session when sessionID is non-empty.
func (s *Store) ToolUsageStats(ctx context.Context, sessionID string) (map[string]int, error) {
	q := `
		SELECT t.tool_name, COUNT(*) FROM tool_calls t
		GROUP BY t.tool_name
	`
	args := []any{}
	if sessionID != "" {
		q = `
			SELECT t.tool_name, COUNT(*) FROM tool_calls t
			JOIN conversations c ON c.id = t.conversation_id
			WHERE c.session_id = ?
			GROUP BY t.tool_name
		`
		args = append(args, sessionID)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, NewStorageError("tool usage stats", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, NewStorageError("tool usage stats", err)
		}
		stats[name] = count
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("tool usage stats", err)
	}
	return stats, nil
}

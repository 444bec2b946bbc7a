// Package query provides read-oriented views over the conversation store.
// All accessors are side-effect free and restartable: repeated calls reflect
// store state at call time.
package query

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/amanp27/voice-assistant/internal/store"
)

// SessionSummary is a lightweight listing entry for one conversation row.
type SessionSummary struct {
	ConversationID      int64
	SessionID           string
	ParticipantIdentity string
	Status              string
	StartTime           time.Time
	EndTime             *time.Time
	MessageCount        int
	Cost                float64
}

// Accessor exposes typed read operations over the store.
type Accessor struct {
	db *sql.DB
}

// New creates an accessor over the store's database handle.
func New(db *sql.DB) *Accessor {
	return &Accessor{db: db}
}

// ActiveSessions lists all conversation rows, newest first.
func (a *Accessor) ActiveSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, session_id, participant_identity, status, start_time, end_time, message_count, cost
		FROM conversations ORDER BY start_time DESC, id DESC
	`)
	if err != nil {
		return nil, store.NewStorageError("list sessions", err)
	}
	defer rows.Close()

	var sessions []SessionSummary
	for rows.Next() {
		var s SessionSummary
		var endTime sql.NullTime
		if err := rows.Scan(&s.ConversationID, &s.SessionID, &s.ParticipantIdentity,
			&s.Status, &s.StartTime, &endTime, &s.MessageCount, &s.Cost); err != nil {
			return nil, store.NewStorageError("list sessions", err)
		}
		if endTime.Valid {
			t := endTime.Time
			s.EndTime = &t
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ConversationHistory returns every turn recorded under the session id,
// ordered by timestamp ascending (insertion order breaks ties).
func (a *Accessor) ConversationHistory(ctx context.Context, sessionID string) ([]store.Message, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT m.id, m.conversation_id, m.timestamp, m.role, m.content
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.session_id = ?
		ORDER BY m.timestamp ASC, m.id ASC
	`, sessionID)
	if err != nil {
		return nil, store.NewStorageError("conversation history", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// RecentConversations returns the participant's most recent turns, newest
// first, bounded to limit entries. A non-positive limit yields an empty
// result, not an error.
func (a *Accessor) RecentConversations(ctx context.Context, participantID string, limit int) ([]store.Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT m.id, m.conversation_id, m.timestamp, m.role, m.content
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.participant_identity = ?
		ORDER BY m.timestamp DESC, m.id DESC
		LIMIT ?
	`, participantID, limit)
	if err != nil {
		return nil, store.NewStorageError("recent conversations", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ToolCallsForConversation returns the conversation's tool invocations in
// timestamp order.
func (a *Accessor) ToolCallsForConversation(ctx context.Context, conversationID int64) ([]store.ToolCall, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, conversation_id, message_id, tool_name, parameters, result, success, timestamp
		FROM tool_calls WHERE conversation_id = ?
		ORDER BY timestamp ASC, id ASC
	`, conversationID)
	if err != nil {
		return nil, store.NewStorageError("tool calls", err)
	}
	defer rows.Close()

	var calls []store.ToolCall
	for rows.Next() {
		var tc store.ToolCall
		var messageID sql.NullInt64
		var params string
		var result sql.NullString
		if err := rows.Scan(&tc.ID, &tc.ConversationID, &messageID, &tc.ToolName,
			&params, &result, &tc.Success, &tc.Timestamp); err != nil {
			return nil, store.NewStorageError("tool calls", err)
		}
		if messageID.Valid {
			id := messageID.Int64
			tc.MessageID = &id
		}
		tc.Parameters = decodeParams(params)
		if result.Valid {
			tc.Result = []byte(result.String)
		}
		calls = append(calls, tc)
	}
	return calls, rows.Err()
}

// SessionMessageCount returns the number of turns recorded under a session.
func (a *Accessor) SessionMessageCount(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := a.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.session_id = ?
	`, sessionID).Scan(&n)
	if err != nil {
		return 0, store.NewStorageError("session message count", err)
	}
	return n, nil
}

func decodeParams(s string) map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}

func scanMessages(rows *sql.Rows) ([]store.Message, error) {
	var messages []store.Message
	for rows.Next() {
		var m store.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Timestamp, &m.Role, &m.Content); err != nil {
			return nil, store.NewStorageError("scan message", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

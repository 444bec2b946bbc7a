// Package export builds and writes session export documents.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/amanp27/voice-assistant/internal/query"
)

// Turn is one exported message with any tool calls it carried.
type Turn struct {
	ID        int64      `json:"id"`
	Speaker   string     `json:"speaker"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is one exported tool invocation.
type ToolCall struct {
	ToolName   string          `json:"tool_name"`
	Parameters map[string]any  `json:"parameters"`
	Result     json.RawMessage `json:"result,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Success    bool            `json:"success"`
}

// Document is the top-level export file shape.
type Document struct {
	SessionID     string `json:"session_id"`
	ExportDate    string `json:"export_date"`
	Conversations []Turn `json:"conversations"`
}

// Build assembles the export document for a session: every turn in timestamp
// order, each carrying the tool calls of its conversation on the first turn
// that belongs to it.
func Build(ctx context.Context, acc *query.Accessor, sessionID string) (*Document, error) {
	history, err := acc.ConversationHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		SessionID:     sessionID,
		ExportDate:    time.Now().UTC().Format(time.RFC3339),
		Conversations: make([]Turn, 0, len(history)),
	}

	seen := make(map[int64]bool)
	for _, m := range history {
		turn := Turn{
			ID:        m.ID,
			Speaker:   m.Role,
			Message:   m.Content,
			Timestamp: m.Timestamp,
		}

		if !seen[m.ConversationID] {
			seen[m.ConversationID] = true
			calls, err := acc.ToolCallsForConversation(ctx, m.ConversationID)
			if err != nil {
				return nil, err
			}
			for _, tc := range calls {
				turn.ToolCalls = append(turn.ToolCalls, ToolCall{
					ToolName:   tc.ToolName,
					Parameters: tc.Parameters,
					Result:     tc.Result,
					Timestamp:  tc.Timestamp,
					Success:    tc.Success,
				})
			}
		}

		doc.Conversations = append(doc.Conversations, turn)
	}
	return doc, nil
}

// Write serializes the document as indented UTF-8 JSON to path.
func Write(doc *Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

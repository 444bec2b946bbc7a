package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanp27/voice-assistant/internal/query"
	"github.com/amanp27/voice-assistant/internal/store"
)

func seedSession(t *testing.T) (*store.Store, *query.Accessor) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	id, err := s.CreateConversation(ctx, "s1", "p1", "Pat")
	require.NoError(t, err)
	require.NoError(t, s.AddMessage(ctx, id, "user", "hello"))
	require.NoError(t, s.AddMessage(ctx, id, "assistant", "hi there"))
	require.NoError(t, s.AddToolCall(ctx, id, store.ToolCall{
		ToolName:   "get_weather",
		Parameters: map[string]any{"city": "Pune"},
		Result:     json.RawMessage(`"It's Sunny"`),
		Success:    true,
	}))
	return s, query.New(s.DB())
}

func TestBuild(t *testing.T) {
	_, acc := seedSession(t)

	doc, err := Build(context.Background(), acc, "s1")
	require.NoError(t, err)

	assert.Equal(t, "s1", doc.SessionID)
	_, err = time.Parse(time.RFC3339, doc.ExportDate)
	assert.NoError(t, err)

	require.Len(t, doc.Conversations, 2)
	assert.Equal(t, "user", doc.Conversations[0].Speaker)
	assert.Equal(t, "hello", doc.Conversations[0].Message)
	assert.Equal(t, "assistant", doc.Conversations[1].Speaker)
	assert.Equal(t, "hi there", doc.Conversations[1].Message)

	// Tool calls attach to the conversation's first turn only.
	require.Len(t, doc.Conversations[0].ToolCalls, 1)
	assert.Equal(t, "get_weather", doc.Conversations[0].ToolCalls[0].ToolName)
	assert.Empty(t, doc.Conversations[1].ToolCalls)
}

func TestBuildEmptySession(t *testing.T) {
	_, acc := seedSession(t)

	doc, err := Build(context.Background(), acc, "no-such-session")
	require.NoError(t, err)
	assert.Empty(t, doc.Conversations)
}

func TestWriteRoundTrip(t *testing.T) {
	_, acc := seedSession(t)
	ctx := context.Background()

	doc, err := Build(ctx, acc, "s1")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, Write(doc, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var parsed Document
	require.NoError(t, json.Unmarshal(data, &parsed))

	// Parsed file reproduces the same ordered message sequence as the
	// conversation history.
	history, err := acc.ConversationHistory(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, parsed.Conversations, len(history))
	for i, m := range history {
		assert.Equal(t, m.Role, parsed.Conversations[i].Speaker)
		assert.Equal(t, m.Content, parsed.Conversations[i].Message)
	}
}

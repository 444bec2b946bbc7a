package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/amanp27/voice-assistant/internal/query"
	"github.com/amanp27/voice-assistant/internal/store"
)

func TestStatsEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf).Stats("", nil)

	out := buf.String()
	assert.Contains(t, out, "TOOL USAGE STATISTICS - All Sessions")
	assert.Contains(t, out, "No tool calls recorded")
}

func TestStats(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf).Stats("s1", map[string]int{
		"get_weather": 3,
		"get_news":    1,
	})

	out := buf.String()
	assert.Contains(t, out, "TOOL USAGE STATISTICS - Session: s1")
	assert.Contains(t, out, "Total tool calls: 4")
	assert.Contains(t, out, "(75.0%)")
	assert.Contains(t, out, "(25.0%)")
	// Most used tool listed first.
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("get_weather")), bytes.Index(buf.Bytes(), []byte("get_news")))
}

func TestSessionsEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf).Sessions(nil)

	assert.Contains(t, buf.String(), "No sessions found")
}

func TestSessions(t *testing.T) {
	end := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
	sessions := []query.SessionSummary{
		{SessionID: "s2", ParticipantIdentity: "p2", Status: store.StatusActive, StartTime: end.Add(-time.Minute), MessageCount: 1},
		{SessionID: "s1", ParticipantIdentity: "p1", Status: store.StatusCompleted, StartTime: end.Add(-time.Hour), EndTime: &end, MessageCount: 4, Cost: 0.02},
	}

	var buf bytes.Buffer
	NewWriter(&buf).Sessions(sessions)

	out := buf.String()
	assert.Contains(t, out, "Session ID: s2")
	assert.Contains(t, out, "ACTIVE")
	assert.Contains(t, out, "Session ID: s1")
	assert.Contains(t, out, "ENDED")
	assert.Contains(t, out, "End: 2026-08-28 10:30:00")
	assert.Contains(t, out, "Cost: $0.0200")
}

func TestSessionEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf).Session("s1", nil, nil)

	assert.Contains(t, buf.String(), "No conversations found for session: s1")
}

func TestSessionView(t *testing.T) {
	ts := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	turns := []store.Message{
		{ID: 1, ConversationID: 1, Timestamp: ts, Role: "user", Content: "hello"},
		{ID: 2, ConversationID: 1, Timestamp: ts.Add(time.Second), Role: "assistant", Content: "hi there"},
	}
	toolCalls := map[int64][]store.ToolCall{
		1: {{ToolName: "get_weather", Parameters: map[string]any{"city": "Pune"}, Success: true, Timestamp: ts}},
	}

	var buf bytes.Buffer
	NewWriter(&buf).Session("s1", turns, toolCalls)

	out := buf.String()
	assert.Contains(t, out, "SESSION: s1")
	assert.Contains(t, out, "Total messages: 2")
	assert.Contains(t, out, "USER")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "ASSISTANT")
	assert.Contains(t, out, "hi there")
	assert.Contains(t, out, "TOOL: get_weather")
}

func TestRecentEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf).Recent("p1", nil)

	assert.Contains(t, buf.String(), "No conversations found for participant: p1")
}

func TestTurnCustomRole(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf).Turn(store.Message{Timestamp: time.Now(), Role: "tool", Content: "done"})

	assert.Contains(t, buf.String(), "TOOL")
}

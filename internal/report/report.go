// Package report formats query results for the CLI.
// Separates presentation from store and query logic.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/amanp27/voice-assistant/internal/query"
	"github.com/amanp27/voice-assistant/internal/store"
)

const rule = "============================================================"

// Writer renders reports to an io.Writer.
type Writer struct {
	out io.Writer
}

// NewWriter creates a Writer that writes to the given io.Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: w}
}

// Stdout returns a Writer that writes to os.Stdout.
func Stdout() *Writer {
	return NewWriter(os.Stdout)
}

func (w *Writer) printf(format string, args ...any) {
	fmt.Fprintf(w.out, format, args...)
}

func (w *Writer) header(title string) {
	fmt.Fprintf(w.out, "\n%s\n%s\n%s\n", rule, title, rule)
}

// Sessions renders the session listing.
func (w *Writer) Sessions(sessions []query.SessionSummary) {
	w.header("ALL SESSIONS")

	if len(sessions) == 0 {
		w.printf("No sessions found\n")
		return
	}

	for _, s := range sessions {
		status := statusLabel(s.Status, s.EndTime)
		w.printf("\nSession ID: %s\n", s.SessionID)
		w.printf("  Participant: %s\n", s.ParticipantIdentity)
		w.printf("  Status: %s\n", status)
		w.printf("  Start: %s\n", s.StartTime.Format("2006-01-02 15:04:05"))
		if s.EndTime != nil {
			w.printf("  End: %s\n", s.EndTime.Format("2006-01-02 15:04:05"))
		}
		w.printf("  Messages: %d\n", s.MessageCount)
		if s.Cost > 0 {
			w.printf("  Cost: $%.4f\n", s.Cost)
		}
	}
}

// Session renders a full session view: every turn with its tool calls.
func (w *Writer) Session(sessionID string, turns []store.Message, toolCalls map[int64][]store.ToolCall) {
	if len(turns) == 0 {
		w.printf("No conversations found for session: %s\n", sessionID)
		return
	}

	w.header(fmt.Sprintf("SESSION: %s\nTotal messages: %d", sessionID, len(turns)))

	seen := make(map[int64]bool)
	for _, m := range turns {
		w.Turn(m)
		if !seen[m.ConversationID] {
			seen[m.ConversationID] = true
			for _, tc := range toolCalls[m.ConversationID] {
				w.ToolCall(tc)
			}
		}
	}
	w.printf("\n%s\n\n", rule)
}

// Turn renders a single message.
func (w *Writer) Turn(m store.Message) {
	label := "USER"
	if m.Role == "assistant" {
		label = "ASSISTANT"
	} else if m.Role != "user" {
		label = strings.ToUpper(m.Role)
	}
	w.printf("\n[%s] %s\n", m.Timestamp.Format("2006-01-02 15:04:05"), label)
	w.printf("  %s\n", m.Content)
}

// ToolCall renders a single tool invocation.
func (w *Writer) ToolCall(tc store.ToolCall) {
	mark := color.GreenString("✓")
	if !tc.Success {
		mark = color.RedString("✗")
	}
	w.printf("\n[%s] %s TOOL: %s\n", tc.Timestamp.Format("2006-01-02 15:04:05"), mark, tc.ToolName)

	params, err := json.MarshalIndent(tc.Parameters, "  ", "    ")
	if err == nil {
		w.printf("  Parameters: %s\n", params)
	}
	if len(tc.Result) > 0 {
		w.printf("  Result: %s\n", tc.Result)
	}
}

// Recent renders a participant's recent turns.
func (w *Writer) Recent(participantID string, turns []store.Message) {
	if len(turns) == 0 {
		w.printf("No conversations found for participant: %s\n", participantID)
		return
	}

	w.header("RECENT CONVERSATIONS - " + participantID)
	for _, m := range turns {
		w.Turn(m)
	}
}

// Stats renders tool usage statistics with a percentage bar per tool.
func (w *Writer) Stats(sessionID string, stats map[string]int) {
	scope := "All Sessions"
	if sessionID != "" {
		scope = "Session: " + sessionID
	}
	w.header("TOOL USAGE STATISTICS - " + scope)
	w.printf("\n")

	if len(stats) == 0 {
		w.printf("No tool calls recorded\n")
		return
	}

	total := 0
	names := make([]string, 0, len(stats))
	for name, count := range stats {
		total += count
		names = append(names, name)
	}
	// Most used first, name breaks ties.
	sort.Slice(names, func(i, j int) bool {
		if stats[names[i]] != stats[names[j]] {
			return stats[names[i]] > stats[names[j]]
		}
		return names[i] < names[j]
	})

	w.printf("Total tool calls: %d\n\n", total)
	for _, name := range names {
		count := stats[name]
		pct := float64(count) / float64(total) * 100
		bar := strings.Repeat("█", int(pct/2))
		w.printf("%-20s %s %3d (%.1f%%)\n", name, bar, count, pct)
	}
}

func statusLabel(status string, endTime *time.Time) string {
	if status == store.StatusActive && endTime == nil {
		return color.GreenString("ACTIVE")
	}
	return "ENDED"
}

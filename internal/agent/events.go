// Package agent bridges the hosted voice runtime to the conversation store.
// It consumes session-lifecycle events from the runtime's feed, persists
// them, and rebroadcasts transcript and cost payloads to UI observers on a
// best-effort basis.
package agent

import (
	"encoding/json"
	"fmt"
)

// Event type discriminators on the runtime feed.
const (
	EventSessionStarted  = "session_started"
	EventSpeechCommitted = "speech_committed"
	EventToolInvoked     = "tool_invoked"
	EventCostUpdate      = "cost_update"
	EventSessionEnded    = "session_ended"
)

// Envelope is the wire shape of one runtime event. Only the fields relevant
// to the event's type are populated.
type Envelope struct {
	Type                string          `json:"type"`
	SessionID           string          `json:"session_id"`
	ParticipantIdentity string          `json:"participant_identity,omitempty"`
	ParticipantName     string          `json:"participant_name,omitempty"`
	Role                string          `json:"role,omitempty"`
	Text                string          `json:"text,omitempty"`
	ToolName            string          `json:"tool_name,omitempty"`
	Parameters          map[string]any  `json:"parameters,omitempty"`
	Result              json.RawMessage `json:"result,omitempty"`
	Success             *bool           `json:"success,omitempty"`
	Total               float64         `json:"total,omitempty"`
}

// Decode parses one feed frame into an envelope.
func Decode(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if e.Type == "" {
		return nil, fmt.Errorf("decode event: missing type")
	}
	if e.SessionID == "" {
		return nil, fmt.Errorf("decode event: missing session_id")
	}
	return &e, nil
}

// TranscriptPayload is the data-channel document sent to UI observers for
// each committed turn.
type TranscriptPayload struct {
	Type    string `json:"type"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// CostPayload is the data-channel document carrying the running cost estimate.
type CostPayload struct {
	Type  string  `json:"type"`
	Total float64 `json:"total"`
}

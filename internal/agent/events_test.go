package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		check   func(t *testing.T, e *Envelope)
	}{
		{
			name: "session started",
			data: `{"type":"session_started","session_id":"s1","participant_identity":"p1","participant_name":"Pat"}`,
			check: func(t *testing.T, e *Envelope) {
				assert.Equal(t, EventSessionStarted, e.Type)
				assert.Equal(t, "s1", e.SessionID)
				assert.Equal(t, "p1", e.ParticipantIdentity)
				assert.Equal(t, "Pat", e.ParticipantName)
			},
		},
		{
			name: "speech committed",
			data: `{"type":"speech_committed","session_id":"s1","role":"assistant","text":"hi there"}`,
			check: func(t *testing.T, e *Envelope) {
				assert.Equal(t, "assistant", e.Role)
				assert.Equal(t, "hi there", e.Text)
			},
		},
		{
			name: "tool invoked",
			data: `{"type":"tool_invoked","session_id":"s1","tool_name":"get_weather","parameters":{"city":"Pune"},"result":"sunny","success":false}`,
			check: func(t *testing.T, e *Envelope) {
				assert.Equal(t, "get_weather", e.ToolName)
				assert.Equal(t, map[string]any{"city": "Pune"}, e.Parameters)
				require.NotNil(t, e.Success)
				assert.False(t, *e.Success)
			},
		},
		{
			name: "cost update",
			data: `{"type":"cost_update","session_id":"s1","total":0.0134}`,
			check: func(t *testing.T, e *Envelope) {
				assert.Equal(t, 0.0134, e.Total)
			},
		},
		{
			name:    "not json",
			data:    `transcript: hello`,
			wantErr: true,
		},
		{
			name:    "missing type",
			data:    `{"session_id":"s1"}`,
			wantErr: true,
		},
		{
			name:    "missing session id",
			data:    `{"type":"session_started"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Decode([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, e)
		})
	}
}

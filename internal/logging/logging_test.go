package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoEvent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("recorder", &buf)

	log.Info("session_started", map[string]any{"conversation_id": 7})

	var e Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &e))
	assert.Equal(t, LevelInfo, e.Level)
	assert.Equal(t, "recorder", e.Component)
	assert.Equal(t, "session_started", e.Event)
	assert.EqualValues(t, 7, e.Extra["conversation_id"])
	assert.Empty(t, e.Error)
}

func TestErrorEvent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("broadcast", &buf)

	log.Error("publish_failed", errors.New("channel down"), nil)

	var e Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &e))
	assert.Equal(t, LevelError, e.Level)
	assert.Equal(t, "channel down", e.Error)
}

func TestWithSession(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("feed", &buf).WithSession("s1")

	log.Warn("bad_frame", nil)

	var e Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &e))
	assert.Equal(t, "s1", e.Session)
	assert.Equal(t, "feed", e.Component)
}

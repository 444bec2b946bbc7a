package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	t.Setenv("VOICE_ASSISTANT_DB", "")
	t.Setenv("VOICE_ASSISTANT_ROOM_PREFIX", "")

	env := Get()
	assert.Equal(t, DefaultDBPath, env.DBPath)
	assert.Equal(t, "voice-assistant", env.RoomPrefix)
}

func TestOverrides(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	t.Setenv("VOICE_ASSISTANT_DB", "/tmp/custom.sqlite")
	t.Setenv("AGENT_FEED_URL", "ws://localhost:9000/events")

	env := Get()
	assert.Equal(t, "/tmp/custom.sqlite", env.DBPath)
	assert.Equal(t, "ws://localhost:9000/events", env.FeedURL)
}

func TestSingleton(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	assert.Same(t, Get(), Get())
}

// Package config provides centralized configuration for the voice assistant
// tools. All environment lookups live here.
package config

import (
	"os"
	"sync"
)

// DefaultDBPath is the store location used when --db is omitted.
const DefaultDBPath = "voice_assistant.sqlite"

// Env holds all environment-driven settings.
type Env struct {
	// DBPath is the conversation store path (VOICE_ASSISTANT_DB)
	DBPath string

	// FeedURL is the agent runtime event feed websocket URL (AGENT_FEED_URL)
	FeedURL string

	// BroadcastURL is the data-channel publish endpoint (AGENT_BROADCAST_URL)
	BroadcastURL string

	// LiveKitURL is the media server URL (LIVEKIT_URL); informational only,
	// media transport is owned by the hosted runtime.
	LiveKitURL string

	// RoomPrefix prefixes minted room names (VOICE_ASSISTANT_ROOM_PREFIX)
	RoomPrefix string
}

var (
	env     *Env
	envOnce sync.Once
)

// Get returns the singleton environment configuration.
// Thread-safe, loads once on first call.
func Get() *Env {
	envOnce.Do(func() {
		env = &Env{
			DBPath:       getEnvDefault("VOICE_ASSISTANT_DB", DefaultDBPath),
			FeedURL:      os.Getenv("AGENT_FEED_URL"),
			BroadcastURL: os.Getenv("AGENT_BROADCAST_URL"),
			LiveKitURL:   os.Getenv("LIVEKIT_URL"),
			RoomPrefix:   getEnvDefault("VOICE_ASSISTANT_ROOM_PREFIX", "voice-assistant"),
		}
	})
	return env
}

// Reset clears the cached environment (for testing).
func Reset() {
	envOnce = sync.Once{}
	env = nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

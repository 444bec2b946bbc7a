// Package main provides agentd, the daemon that records the hosted voice
// runtime's session events into the conversation store and rebroadcasts
// transcript and cost payloads to UI observers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/amanp27/voice-assistant/internal/agent"
	"github.com/amanp27/voice-assistant/internal/config"
	"github.com/amanp27/voice-assistant/internal/logging"
	"github.com/amanp27/voice-assistant/internal/store"
)

func main() {
	var dbPath string
	var feedURL string
	var broadcastURL string

	env := config.Get()

	rootCmd := &cobra.Command{
		Use:   "agentd",
		Short: "Record voice assistant sessions from the runtime event feed",
		Long: `agentd connects to the hosted agent runtime's event feed, persists
session lifecycle and speech events into the conversation store, and
rebroadcasts transcript and cost payloads to UI observers best-effort.`,
		Run: func(cmd *cobra.Command, args []string) {
			if feedURL == "" {
				fmt.Fprintln(os.Stderr, "Error: --feed or AGENT_FEED_URL is required")
				os.Exit(1)
			}
			if err := run(dbPath, feedURL, broadcastURL); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}

	rootCmd.Flags().StringVar(&dbPath, "db", env.DBPath, "Database path")
	rootCmd.Flags().StringVar(&feedURL, "feed", env.FeedURL, "Runtime event feed websocket URL")
	rootCmd.Flags().StringVar(&broadcastURL, "broadcast", env.BroadcastURL, "Data-channel publish websocket URL (optional)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(dbPath, feedURL, broadcastURL string) error {
	log := logging.New("agentd")

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	var bcast *agent.Broadcaster
	if broadcastURL != "" {
		pub := agent.NewWebsocketPublisher(broadcastURL)
		defer pub.Close()
		bcast = agent.NewBroadcaster(pub)
		defer bcast.Flush()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Worker identity, in the spirit of the browser client's minted names.
	workerID := fmt.Sprintf("agentd-%s", uuid.NewString()[:8])
	log.Info("starting", map[string]any{
		"worker": workerID,
		"db":     dbPath,
		"feed":   feedURL,
	})

	feed := agent.NewFeed(feedURL, agent.NewRecorder(st, bcast))
	if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	log.Info("stopped", map[string]any{"worker": workerID})
	return nil
}

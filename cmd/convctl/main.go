// Package main provides convctl, the voice assistant conversation database
// utility.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amanp27/voice-assistant/internal/config"
	"github.com/amanp27/voice-assistant/internal/export"
	"github.com/amanp27/voice-assistant/internal/query"
	"github.com/amanp27/voice-assistant/internal/report"
	"github.com/amanp27/voice-assistant/internal/store"
)

var dbPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "convctl",
		Short: "Query and manage voice assistant conversations",
		Long: `convctl inspects the voice assistant conversation store.

Commands:
  list      List all sessions
  view      View all conversations in a session
  recent    Show recent conversations for a participant
  stats     Show tool usage statistics
  delete    Delete all data for a session
  export    Export a session to a JSON file`,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath, "Database path")

	rootCmd.AddCommand(
		listCmd(),
		viewCmd(),
		recentCmd(),
		statsCmd(),
		deleteCmd(),
		exportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all sessions",
		Run: func(cmd *cobra.Command, args []string) {
			st := openStore()
			defer st.Close()

			sessions, err := query.New(st.DB()).ActiveSessions(context.Background())
			if err != nil {
				exitErr(err)
			}
			report.Stdout().Sessions(sessions)
		},
	}
}

func viewCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "view",
		Short: "View all conversations in a session",
		Run: func(cmd *cobra.Command, args []string) {
			requireFlag(sessionID, "--session", "view")

			st := openStore()
			defer st.Close()

			ctx := context.Background()
			acc := query.New(st.DB())
			turns, err := acc.ConversationHistory(ctx, sessionID)
			if err != nil {
				exitErr(err)
			}

			toolCalls := make(map[int64][]store.ToolCall)
			for _, m := range turns {
				if _, ok := toolCalls[m.ConversationID]; ok {
					continue
				}
				calls, err := acc.ToolCallsForConversation(ctx, m.ConversationID)
				if err != nil {
					exitErr(err)
				}
				toolCalls[m.ConversationID] = calls
			}

			report.Stdout().Session(sessionID, turns, toolCalls)
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID")
	return cmd
}

func recentCmd() *cobra.Command {
	var participantID string
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show recent conversations for a participant",
		Run: func(cmd *cobra.Command, args []string) {
			requireFlag(participantID, "--participant", "recent")

			st := openStore()
			defer st.Close()

			turns, err := query.New(st.DB()).RecentConversations(context.Background(), participantID, limit)
			if err != nil {
				exitErr(err)
			}
			report.Stdout().Recent(participantID, turns)
		},
	}
	cmd.Flags().StringVarP(&participantID, "participant", "p", "", "Participant ID")
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Limit for results")
	return cmd
}

func statsCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show tool usage statistics",
		Run: func(cmd *cobra.Command, args []string) {
			st := openStore()
			defer st.Close()

			stats, err := st.ToolUsageStats(context.Background(), sessionID)
			if err != nil {
				exitErr(err)
			}
			report.Stdout().Stats(sessionID, stats)
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID (omit for all sessions)")
	return cmd
}

func deleteCmd() *cobra.Command {
	var sessionID string
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete all data for a session",
		Run: func(cmd *cobra.Command, args []string) {
			requireFlag(sessionID, "--session", "delete")

			if !yes && !confirm(fmt.Sprintf("Are you sure you want to delete session '%s'?", sessionID)) {
				fmt.Println("Deletion cancelled")
				return
			}

			st := openStore()
			defer st.Close()

			if err := st.DeleteSessionData(context.Background(), sessionID); err != nil {
				exitErr(err)
			}
			fmt.Printf("Session '%s' deleted successfully\n", sessionID)
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func exportCmd() *cobra.Command {
	var sessionID string
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a session to a JSON file",
		Run: func(cmd *cobra.Command, args []string) {
			requireFlag(sessionID, "--session", "export")
			requireFlag(output, "--output", "export")

			st := openStore()
			defer st.Close()

			doc, err := export.Build(context.Background(), query.New(st.DB()), sessionID)
			if err != nil {
				exitErr(err)
			}
			if len(doc.Conversations) == 0 {
				fmt.Printf("No conversations found for session: %s\n", sessionID)
				return
			}
			if err := export.Write(doc, output); err != nil {
				exitErr(err)
			}
			fmt.Printf("Session exported to: %s\n", output)
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	return cmd
}

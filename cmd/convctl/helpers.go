package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/amanp27/voice-assistant/internal/store"
)

// requireFlag validates a required flag before the store is touched.
func requireFlag(value, flag, command string) {
	if value == "" {
		fmt.Fprintf(os.Stderr, "Error: %s is required for '%s' command\n", flag, command)
		os.Exit(1)
	}
}

// openStore opens the conversation store at the --db path.
func openStore() *store.Store {
	st, err := store.Open(dbPath)
	if err != nil {
		exitErr(err)
	}
	return st
}

// exitErr prints the error to stderr and exits.
func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// confirm prompts for yes/no confirmation of a destructive action.
// Without a terminal on stdin there is nobody to ask, so it refuses.
func confirm(prompt string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: confirmation requires a terminal (use --yes to skip)")
		os.Exit(1)
	}

	fmt.Printf("%s (yes/no): ", prompt)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

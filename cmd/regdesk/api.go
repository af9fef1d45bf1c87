package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/regdesk/internal/api"
	"github.com/jackzampolin/regdesk/internal/server/endpoints"
)

var serverURL string

var (
	waitAttempts uint
	waitDelay    time.Duration
)

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until the server reports ready",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := api.NewClient(getServerURL())
		if err := client.WaitReady(cmd.Context(), waitAttempts, waitDelay); err != nil {
			return err
		}
		fmt.Println("ready")
		return nil
	},
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	registry := api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{}) {
		registry.Register(ep)
	}
	apiCmd := registry.BuildCommands(getServerURL)

	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	waitCmd.Flags().UintVar(&waitAttempts, "attempts", 30, "Number of readiness probes")
	waitCmd.Flags().DurationVar(&waitDelay, "delay", time.Second, "Delay between probes")
	apiCmd.AddCommand(waitCmd)

	rootCmd.AddCommand(apiCmd)
}

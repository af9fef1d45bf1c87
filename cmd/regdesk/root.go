package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/regdesk/internal/api"
	"github.com/jackzampolin/regdesk/internal/config"
	"github.com/jackzampolin/regdesk/internal/home"
	"github.com/jackzampolin/regdesk/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "regdesk",
	Short: "Regulatory document selection and analysis dashboard",
	Long: `Regdesk lets an analyst pick regulatory documents from a remote catalog,
submit them to an analysis service and export the result as a PDF report.

It talks to an OAuth2-protected API Gateway:
  - A token endpoint (client credentials grant)
  - A documents endpoint listing the catalog
  - A generate endpoint producing the analysis

Run "regdesk serve" for the HTTP dashboard backend, or "regdesk analyze"
for a one-shot analysis from the command line.`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.regdesk/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "regdesk home directory (default: ~/.regdesk)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info", "log level: debug, info, warn or error",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// getHome resolves the home directory from --home.
func getHome() (*home.Dir, error) {
	return home.New(homeDir)
}

// loadConfig builds a config manager, preferring --config, then the home
// directory's config file, then viper's search path. The home .env is
// loaded so ${ENV_VAR} references resolve.
func loadConfig(h *home.Dir) (*config.Manager, error) {
	config.LoadDotEnv(h.EnvPath())

	path := cfgFile
	if path == "" && h.ConfigExists() {
		path = h.ConfigPath()
	}
	cm, err := config.NewManager(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cm, nil
}

// newLogger returns a text logger at the --log-level level.
func newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})), nil
}

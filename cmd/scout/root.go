package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/aretw0/scout"
	"github.com/aretw0/scout/internal/cli"
	"github.com/aretw0/scout/internal/logging"
	"github.com/aretw0/scout/pkg/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var globalOpts cli.Options

var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "Scout is a research assistant that answers with cited web sources",
	Long: `Scout classifies each message as chit-chat or research. Research questions
go through query generation, up to three rounds of web search and reflection,
and a final summary with inline citations.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine; a malformed one is not.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&globalOpts.ConfigPath, "config", "c", "", "Config file (default scout.yaml, or $SCOUT_CONFIG)")
	flags.StringVar(&globalOpts.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&globalOpts.LogFormat, "log-format", "", "Log format: text or json")
	flags.StringVar(&globalOpts.Provider, "provider", "", "Oracle provider: gemini, anthropic or offline")
	flags.StringVar(&globalOpts.Backend, "backend", "", "Session backend: memory, file or redis")
	flags.BoolVar(&globalOpts.Offline, "offline", false, "Answer without calling any model (for demos and tests)")
}

// newAssistant builds the assistant from the global flags. Callers must Close it.
func newAssistant(cmd *cobra.Command) (*scout.Assistant, error) {
	a, err := cli.NewAssistant(cmd.Context(), globalOpts)
	if err != nil {
		return nil, fmt.Errorf("error initializing scout: %w", err)
	}
	return a, nil
}

// loadConfig returns the configuration with the global flags applied.
func loadConfig() (config.Config, error) {
	cfg, err := cli.LoadConfig(globalOpts)
	if err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	return logging.NewWithFormat(os.Stderr, logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
}

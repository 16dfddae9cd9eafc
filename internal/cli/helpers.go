// Package cli holds the logic behind the scout commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/scout"
	"github.com/aretw0/scout/pkg/config"
	"github.com/aretw0/scout/pkg/flow"
	"github.com/aretw0/scout/pkg/runner"
	"github.com/aretw0/scout/pkg/session"
	"golang.org/x/term"
)

// Assistant is the part of scout.Assistant the commands drive.
type Assistant interface {
	Run(ctx context.Context, req runner.Request, sink flow.Sink) (*runner.Result, error)
	Sessions() *session.Manager
}

// Options are the global flags shared by every command.
type Options struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
	Provider   string
	Backend    string
	Offline    bool
}

// LoadConfig reads the configuration and applies the flags on top of it.
func LoadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Log.Format = opts.LogFormat
	}
	if opts.Provider != "" {
		cfg.Oracle.Provider = opts.Provider
	}
	if opts.Offline {
		cfg.Oracle.Provider = config.ProviderOffline
	}
	if opts.Backend != "" {
		cfg.Sessions.Backend = opts.Backend
	}
	return cfg, cfg.Validate()
}

// NewAssistant loads the configuration and builds the assistant.
func NewAssistant(ctx context.Context, opts Options, extra ...scout.Option) (*scout.Assistant, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return scout.New(ctx, cfg, extra...)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// isInterrupted reports whether err only means the user stopped the command.
func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

// handleExecutionError maps interruptions to a clean exit.
func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

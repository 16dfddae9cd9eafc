package main

import (
	"os"

	"github.com/aretw0/scout"
	"github.com/aretw0/scout/internal/cli"
	"github.com/aretw0/scout/pkg/session"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect, and remove the sessions kept by the configured backend.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, closeFn, err := openSessions()
		if err != nil {
			return err
		}
		defer closeFn()
		return cli.ListSessions(cmd.Context(), sessions, os.Stdout)
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print a session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, closeFn, err := openSessions()
		if err != nil {
			return err
		}
		defer closeFn()
		return cli.InspectSession(cmd.Context(), sessions, args[0], os.Stdout)
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, closeFn, err := openSessions()
		if err != nil {
			return err
		}
		defer closeFn()
		return cli.RemoveSessions(cmd.Context(), sessions, args, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}

// openSessions opens the session backend without building an oracle.
func openSessions() (*session.Manager, func() error, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return scout.OpenSessions(cfg.Sessions, newLogger(cfg))
}

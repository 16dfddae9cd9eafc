package main

import (
	"os"

	"github.com/aretw0/scout"
	"github.com/aretw0/scout/internal/cli"
	"github.com/aretw0/scout/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long:  `Reads questions from standard input, one per line, and answers them in the same session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		verbose, _ := cmd.Flags().GetBool("verbose")
		quiet, _ := cmd.Flags().GetBool("quiet")
		width, _ := cmd.Flags().GetInt("width")

		a, err := newAssistant(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		opts := cli.ChatOptions{
			AskOptions: cli.AskOptions{
				SessionID: sessionID,
				Verbose:   verbose,
				Render:    tui.NewRenderer(width),
			},
			Version: scout.Version,
			Quiet:   quiet,
		}
		return cli.RunChat(cmd.Context(), a, opts, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "", "Resume an existing session")
	chatCmd.Flags().BoolP("verbose", "v", false, "Also print intermediate research output")
	chatCmd.Flags().BoolP("quiet", "q", false, "Hide the banner and prompt")
	chatCmd.Flags().Int("width", 100, "Wrap rendered answers at this width (0 disables wrapping)")
}

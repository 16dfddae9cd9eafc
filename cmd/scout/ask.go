package main

import (
	"os"
	"strings"

	"github.com/aretw0/scout/internal/cli"
	"github.com/aretw0/scout/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>...",
	Short: "Ask a single question and print the answer",
	Long: `Runs one turn and prints the progress and the final answer.
With --json every event and the final result are printed as one JSON object per line.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		jsonMode, _ := cmd.Flags().GetBool("json")
		verbose, _ := cmd.Flags().GetBool("verbose")
		width, _ := cmd.Flags().GetInt("width")

		a, err := newAssistant(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		opts := cli.AskOptions{
			SessionID: sessionID,
			JSON:      jsonMode,
			Verbose:   verbose,
			Render:    tui.NewRenderer(width),
		}
		return cli.RunAsk(cmd.Context(), a, opts, strings.Join(args, " "), os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringP("session", "s", "", "Continue an existing session")
	askCmd.Flags().Bool("json", false, "Print newline-delimited JSON")
	askCmd.Flags().BoolP("verbose", "v", false, "Also print intermediate research output")
	askCmd.Flags().Int("width", 100, "Wrap the rendered answer at this width (0 disables wrapping)")
}

package main

import (
	"os"

	"github.com/aretw0/scout/internal/cli"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the research pipeline as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of the steps run for each message.
With --session the steps that session went through are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")

		a, err := newAssistant(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		return cli.PrintGraph(cmd.Context(), a.Describe(), a.Sessions(), sessionID, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the steps of this session")
}

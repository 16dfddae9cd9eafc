package main

import (
	"os"

	"github.com/aretw0/scout"
	"github.com/aretw0/scout/internal/cli"
	"github.com/aretw0/scout/pkg/ports"
	"github.com/spf13/cobra"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Inspect the prompt catalog",
	Long:  `Shows the instructions given to each step, including overrides from the prompts directory.`,
}

var promptsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the prompts",
	RunE: func(cmd *cobra.Command, args []string) error {
		prompts, err := promptSource()
		if err != nil {
			return err
		}
		return cli.ListPrompts(cmd.Context(), prompts, os.Stdout)
	},
}

var promptsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print one prompt as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompts, err := promptSource()
		if err != nil {
			return err
		}
		return cli.ShowPrompt(cmd.Context(), prompts, args[0], os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(promptsCmd)
	promptsCmd.AddCommand(promptsLsCmd)
	promptsCmd.AddCommand(promptsShowCmd)
}

func promptSource() (ports.PromptSource, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return scout.NewPromptSource(cfg.Prompts)
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/dvloznov/expense-bot/internal/config"
)

type rootOptions struct {
	envFile string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "expensebot",
		Short: "Telegram bot that records expenses in a Notion database",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "dotenv file to load before the environment (ignored if missing)")

	rootCmd.AddCommand(newRunCommand(opts))
	rootCmd.AddCommand(newParseCommand(opts))
	rootCmd.AddCommand(newCheckCommand(opts))

	return rootCmd
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dvloznov/expense-bot/internal/notion"
)

func newCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that the Notion database has the expected properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadRuntime(opts.envFile)
			if err != nil {
				return err
			}

			client := notion.NewNotionClient(cfg.NotionIntegrationToken)
			if err := notion.VerifySchema(cmd.Context(), client, cfg.NotionDatabaseID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Notion database %s has all expected properties.\n", cfg.NotionDatabaseID)
			return nil
		},
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/dvloznov/expense-bot/internal/app"
	"github.com/spf13/cobra"
)

func newArchiveInitCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "archive-init",
		Short: "Create the BigQuery dataset and extractions table if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			bq, err := app.NewBigQueryArchive(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer bq.Close()

			created, err := bq.EnsureTable(ctx)
			if err != nil {
				return err
			}

			ref := fmt.Sprintf("%s.%s.%s", c.cfg.ArchiveProject, c.cfg.ArchiveDataset, c.cfg.ArchiveTable)
			if created {
				c.log.Info().Str("table", ref).Msg("Archive table created")
			} else {
				c.log.Info().Str("table", ref).Msg("Archive table already exists")
			}
			return nil
		},
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/expense-bot/internal/app"
	"github.com/dvloznov/expense-bot/internal/domain"
	"github.com/dvloznov/expense-bot/internal/pipeline"
	"github.com/spf13/cobra"
)

// parseResult is what the parse command prints.
type parseResult struct {
	Record     domain.ExpenseRecord `json:"record"`
	Outcome    pipeline.Outcome     `json:"outcome"`
	Diagnostic string               `json:"diagnostic,omitempty"`
	Oracle     string               `json:"oracle"`
}

func newParseCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text>",
		Short: "Extract an expense from text and print it as JSON, without writing it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.cfg.ValidateOracle(); err != nil {
				return err
			}

			ctx := context.Background()
			extractor, err := app.NewExtractor(ctx, c.cfg)
			if err != nil {
				return err
			}

			ex := extractor.Extract(ctx, strings.Join(args, " "))
			if ex.Failed() {
				c.log.Warn().
					Str("outcome", string(ex.Outcome)).
					Str("diagnostic", ex.Diagnostic).
					Msg("Extraction fell back to default record")
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			if err := enc.Encode(parseResult{
				Record:     ex.Record,
				Outcome:    ex.Outcome,
				Diagnostic: ex.Diagnostic,
				Oracle:     extractor.OracleName(),
			}); err != nil {
				return fmt.Errorf("parse: write result: %w", err)
			}
			return nil
		},
	}
}

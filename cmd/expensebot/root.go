package main

import (
	"io"

	"github.com/dvloznov/expense-bot/internal/config"
	"github.com/dvloznov/expense-bot/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// cli carries the state shared by all subcommands. It is filled in by the
// root command's PersistentPreRunE.
type cli struct {
	envFile string
	cfg     *config.Config
	log     zerolog.Logger
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:   "expensebot",
		Short: "Telegram bot that records expenses from free-text messages.",
		Long: `expensebot turns chat messages like "Coffee $5" into ledger rows.
A language model extracts the expense, the result is normalized and appended
to Google Sheets (or Notion), and a confirmation is sent back to the chat.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.envFile)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.log = logger.NewFromOptions(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(
		newServeCmd(c),
		newParseCmd(c),
		newSetWebhookCmd(c),
		newDeleteWebhookCmd(c),
		newWebhookInfoCmd(c),
		newArchiveInitCmd(c),
	)

	return cmd
}

// execute runs the command tree with args, writing command output to out.
func execute(args []string, out io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	return cmd.Execute()
}

package main

import (
	"fmt"

	"github.com/dvloznov/expense-bot/internal/config"
	"github.com/dvloznov/expense-bot/internal/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
)

// newBot connects with TELEGRAM_TOKEN; the webhook commands need nothing else.
func (c *cli) newBot() (*tgbotapi.BotAPI, error) {
	if c.cfg.TelegramToken == "" {
		return nil, fmt.Errorf("%w: TELEGRAM_TOKEN", config.ErrMissing)
	}
	return telegram.NewBot(c.cfg.TelegramToken, c.cfg.TelegramAPIEndpoint, nil)
}

func newSetWebhookCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "set-webhook <url>",
		Short: "Point the Telegram bot at the given public URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bot, err := c.newBot()
			if err != nil {
				return err
			}
			if err := telegram.SetWebhook(bot, args[0]); err != nil {
				return err
			}
			c.log.Info().Str("url", args[0]).Str("bot", bot.Self.UserName).Msg("Webhook registered")
			return nil
		},
	}
}

func newDeleteWebhookCmd(c *cli) *cobra.Command {
	var dropPending bool

	cmd := &cobra.Command{
		Use:   "delete-webhook",
		Short: "Remove the Telegram webhook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bot, err := c.newBot()
			if err != nil {
				return err
			}
			if err := telegram.DeleteWebhook(bot, dropPending); err != nil {
				return err
			}
			c.log.Info().Bool("drop_pending", dropPending).Msg("Webhook deleted")
			return nil
		},
	}

	cmd.Flags().BoolVar(&dropPending, "drop-pending", false, "drop updates queued while the webhook was set")

	return cmd
}

func newWebhookInfoCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "webhook-info",
		Short: "Show the registered Telegram webhook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bot, err := c.newBot()
			if err != nil {
				return err
			}
			info, err := telegram.WebhookStatus(bot)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "url: %s\n", info.URL)
			fmt.Fprintf(out, "pending updates: %d\n", info.PendingUpdateCount)
			if info.LastErrorMessage != "" {
				fmt.Fprintf(out, "last error: %s\n", info.LastErrorMessage)
			}
			return nil
		},
	}
}

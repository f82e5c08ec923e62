package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gradewatch/lib/scrapers/stag"
	"gradewatch/lib/serviceutil"
	"gradewatch/services/watchdog"
	"gradewatch/services/watchdog/notify"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sendTestCmd)
}

func cmdContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

var sendTestCmd = &cobra.Command{
	Use:   "send-test",
	Short: "Sends a test notification so you can verify the webhook without waiting for a real change.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		webhook := cfg.TestWebhookUrl
		if webhook == "" {
			webhook = cfg.WebhookUrl
		}
		if webhook == "" {
			serviceutil.Fatal("no webhook configured", fmt.Errorf("webhook_url and test_webhook_url are both empty"))
		}

		notifier := notify.NewDiscord(notify.DiscordOptions{
			WebhookUrl: webhook,
			Orion:      stag.NewClient(cfg.StagBaseUrl),
		})

		event, err := notify.BuildTestEvent(cfg.MyStudentID)
		if err != nil {
			serviceutil.Fatal("failed to build test notification", err)
		}

		ctx, cancel := cmdContext(cmd, time.Second*30)
		defer cancel()

		err = notifier.Notify(ctx, event, watchdog.WatchTarget{
			StudentID:     cfg.MyStudentID,
			DiscordUserID: cfg.DiscordUserIDToPing,
		})
		if err != nil {
			serviceutil.Fatal("failed to deliver test notification", err)
		}
		slog.Info("test notification delivered", "value", event.New)
	},
}

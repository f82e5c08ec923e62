package main

import (
	"context"
	"log/slog"
	"time"

	"gradewatch/lib/configutil"
	"gradewatch/lib/restyutil"
	"gradewatch/lib/scrapers/courseware"
	"gradewatch/lib/scrapers/stag"
	"gradewatch/lib/serviceutil"
	"gradewatch/lib/snapshotstore"
	snapshotdb "gradewatch/lib/snapshotstore/db"
	"gradewatch/lib/telemetry"
	"gradewatch/services/watchdog"
	"gradewatch/services/watchdog/notify"
)

func main() {
	ctx := serviceutil.SignalContext()

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	err = config.Validate()
	if err != nil {
		serviceutil.Fatal("invalid config", err)
	}

	telemetry.InitSlog(config.Debug)

	db, err := config.Database.OpenDB(snapshotdb.Schema)
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}

	t, err := telemetry.SetupFromEnv(ctx, "gradewatchd")
	if err != nil {
		slog.Warn("telemetry disabled", "err", err)
	} else {
		defer t.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx)
	}

	var output restyutil.InstrumentOutput
	if config.Debug {
		output = restyutil.NewFilesystemOutput("http_dump")
	}

	portal, err := courseware.NewClient(courseware.Options{
		ResultsUrl: config.Portal.ResultsUrl,
		Username:   config.Credentials.Username,
		Password:   config.Credentials.Password,
		CookieFile: config.Portal.CookieFile,
		Output:     output,
	})
	if err != nil {
		serviceutil.Fatal("failed to create portal client", err)
	}

	notifier := buildNotifier(config, portal)

	if config.StartupTest {
		runStartupTest(ctx, config, portal)
	}

	service := watchdog.NewService(watchdog.Options{
		Store:                snapshotstore.NewStore(db),
		Portal:               portal,
		Notifier:             notifier,
		Interval:             config.CheckInterval(),
		MyStudentID:          config.MyStudentID,
		DefaultDiscordUserID: config.DiscordUserIDToPing,
		UsersFile:            config.UsersFile,
	})
	if config.StatusPort != 0 {
		go serviceutil.StartHttpServer(config.StatusPort, service.StatusMux())
	}

	service.Run(ctx)
}

func buildNotifier(config Config, portal *courseware.Client) watchdog.Notifier {
	if config.Notifier.Kind == "email" {
		return notify.NewEmail(config.Notifier.Smtp, config.Notifier.Recipients)
	}
	return notify.NewDiscord(notify.DiscordOptions{
		WebhookUrl: config.WebhookUrl,
		Orion:      stag.NewClient(config.StagBaseUrl),
		Detail:     portal,
		Cooldown:   time.Second,
	})
}

// runStartupTest pushes a fabricated change through the delivery pipeline
// so webhook misconfiguration surfaces at boot instead of at the first
// real change. Delivery goes to the test webhook when one is configured.
func runStartupTest(ctx context.Context, config Config, portal *courseware.Client) {
	webhook := config.TestWebhookUrl
	if webhook == "" {
		webhook = config.WebhookUrl
	}
	if webhook == "" {
		slog.WarnContext(ctx, "startup test skipped, no webhook configured")
		return
	}
	notifier := notify.NewDiscord(notify.DiscordOptions{
		WebhookUrl: webhook,
		Orion:      stag.NewClient(config.StagBaseUrl),
		Detail:     portal,
	})

	event, err := notify.BuildTestEvent(config.MyStudentID)
	if err != nil {
		slog.WarnContext(ctx, "failed to build test notification", "err", err)
		return
	}
	err = notifier.Notify(ctx, event, watchdog.WatchTarget{
		StudentID:     config.MyStudentID,
		DiscordUserID: config.DiscordUserIDToPing,
	})
	if err != nil {
		slog.WarnContext(ctx, "startup test notification failed", "err", err)
		return
	}
	slog.InfoContext(ctx, "startup test notification delivered", "value", event.New)
}

package main

import (
	"fmt"
	"time"

	configlibsql "gradewatch/lib/configutil/libsql"
	"gradewatch/services/watchdog/notify"
)

type CredentialsConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type PortalConfig struct {
	ResultsUrl string `json:"results_url"`
	// CookieFile persists the portal session across restarts. Optional,
	// an empty value means every start logs in from scratch.
	CookieFile string `json:"cookie_file"`
}

type NotifierConfig struct {
	// Kind selects the delivery channel, "discord" (default) or "email".
	Kind       string            `json:"kind"`
	Smtp       notify.SmtpConfig `json:"smtp"`
	Recipients []string          `json:"recipients"`
}

type Config struct {
	Credentials CredentialsConfig `json:"credentials"`

	WebhookUrl     string `json:"webhook_url"`
	TestWebhookUrl string `json:"test_webhook_url"`

	CheckIntervalSeconds int `json:"check_interval_seconds"`

	MyStudentID         string `json:"my_student_id"`
	DiscordUserIDToPing string `json:"discord_user_id_to_ping"`
	// UsersFile maps additional student ids to Discord user ids and is
	// re-read every cycle, so edits take effect without a restart.
	UsersFile string `json:"users_file"`

	Portal   PortalConfig        `json:"portal"`
	Database configlibsql.Struct `json:"database"`
	Notifier NotifierConfig      `json:"notifier"`

	StagBaseUrl string `json:"stag_base_url"`

	// StatusPort exposes /healthz and /statusz when non-zero.
	StatusPort int `json:"status_port"`
	// StartupTest sends a test notification on boot so a broken webhook
	// is caught before the first real change.
	StartupTest bool `json:"startup_test"`
	Debug       bool `json:"debug"`
}

func (c Config) Validate() error {
	if c.Credentials.Username == "" || c.Credentials.Password == "" {
		return fmt.Errorf("credentials.username and credentials.password are required")
	}
	if c.Portal.ResultsUrl == "" {
		return fmt.Errorf("portal.results_url is required")
	}
	if c.MyStudentID == "" {
		return fmt.Errorf("my_student_id is required")
	}
	if c.CheckIntervalSeconds < 0 {
		return fmt.Errorf("check_interval_seconds must be at least 1, got %d", c.CheckIntervalSeconds)
	}
	switch c.Notifier.Kind {
	case "", "discord":
		if c.WebhookUrl == "" {
			return fmt.Errorf("webhook_url is required for the discord notifier")
		}
	case "email":
		if c.Notifier.Smtp.Server == "" || c.Notifier.Smtp.EmailAddress == "" {
			return fmt.Errorf("notifier.smtp.server and notifier.smtp.email_address are required for the email notifier")
		}
		if len(c.Notifier.Recipients) == 0 {
			return fmt.Errorf("notifier.recipients is required for the email notifier")
		}
	default:
		return fmt.Errorf("unknown notifier kind %q", c.Notifier.Kind)
	}
	return nil
}

func (c Config) CheckInterval() time.Duration {
	if c.CheckIntervalSeconds == 0 {
		return time.Second * 30
	}
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

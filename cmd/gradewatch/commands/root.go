package commands

import (
	"context"
	"fmt"
	"os"

	"gradewatch/lib/configutil"
	"gradewatch/lib/serviceutil"

	"github.com/spf13/cobra"
)

type CredentialsConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type PortalConfig struct {
	ResultsUrl string `json:"results_url"`
	CookieFile string `json:"cookie_file"`
}

type Config struct {
	Credentials         CredentialsConfig `json:"credentials"`
	WebhookUrl          string            `json:"webhook_url"`
	TestWebhookUrl      string            `json:"test_webhook_url"`
	MyStudentID         string            `json:"my_student_id"`
	DiscordUserIDToPing string            `json:"discord_user_id_to_ping"`
	Portal              PortalConfig      `json:"portal"`
	StagBaseUrl         string            `json:"stag_base_url"`
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "gradewatch",
	Short: "gradewatch is a CLI for inspecting the course results page and testing notifications.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
	"scoreportal-backend/lib/configutil"
	"scoreportal-backend/lib/osutil"
	"scoreportal-backend/lib/scrapers/powerschool"

	"github.com/spf13/cobra"
)

type Config struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

var rootCmd = &cobra.Command{
	Use:   "scoreportal-cli",
	Short: "scoreportal-cli logs into a PowerSchool portal and inspects the scraped grades.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("scoreportal.json5")
	if err != nil {
		osutil.Fatal("failed to read config", err)
	}
	return cfg
}

func login(ctx context.Context, cfg Config) *powerschool.User {
	ctx, cancel := context.WithTimeout(ctx, time.Second*60)
	defer cancel()

	client, err := powerschool.NewClient(cfg.BaseUrl)
	if err != nil {
		osutil.Fatal("failed to initialize portal client", err)
	}
	slog.Info(
		"logging in",
		"base_url", cfg.BaseUrl,
		"username", cfg.Username,
		"session", client.Fingerprint(),
	)

	user, err := powerschool.Authenticate(ctx, client, cfg.Username, cfg.Password)
	if err != nil {
		osutil.Fatal("failed to login to the portal", err)
	}
	return user
}

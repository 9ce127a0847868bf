// Package conf holds build metadata and the runtime configuration of the bot.
package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const Executable = "venueshare"

// GitVersion is set at build time with -ldflags "-X .../conf.GitVersion=...".
var GitVersion = "dev"

const (
	DefaultWebhookPort     = 8080
	DefaultDBDriver        = "sqlite"
	DefaultDBDSN           = "venueshare.db"
	DefaultRefreshInterval = 30 * time.Minute
)

// Config is everything the server needs to start.
type Config struct {
	Dev bool

	WebhookPort int

	DiscordToken string

	SlackToken         string
	SlackSigningSecret string
	GlobalAdmins       []string

	DBDriver  string
	DBDSN     string
	RedisAddr string

	VenuesAPIURL    string
	RefreshInterval time.Duration
}

// env maps config keys to the environment variables they are read from.
var env = map[string]string{
	"dev":                  "VENUESHARE_DEV",
	"webhook_port":         "WEBHOOK_PORT",
	"discord_token":        "DISCORD_BOT_TOKEN",
	"slack_token":          "SLACK_OAUTH_TOKEN",
	"slack_signing_secret": "SLACK_SIGNING_SECRET",
	"global_admins":        "VENUESHARE_GLOBAL_ADMINS",
	"db_driver":            "VENUESHARE_DB_DRIVER",
	"db_dsn":               "VENUESHARE_DB_DSN",
	"redis_addr":           "VENUESHARE_REDIS_ADDR",
	"venues_api_url":       "VENUESHARE_VENUES_API_URL",
	"refresh_interval":     "VENUESHARE_REFRESH_INTERVAL",
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("dev", false)
	v.SetDefault("webhook_port", DefaultWebhookPort)
	v.SetDefault("db_driver", DefaultDBDriver)
	v.SetDefault("db_dsn", DefaultDBDSN)
	v.SetDefault("refresh_interval", DefaultRefreshInterval)

	for key, name := range env {
		// BindEnv only errors when called without a key.
		_ = v.BindEnv(key, name)
	}
}

// Load reads a Config out of v.
func Load(v *viper.Viper) (Config, error) {
	c := Config{
		Dev:                v.GetBool("dev"),
		WebhookPort:        v.GetInt("webhook_port"),
		DiscordToken:       v.GetString("discord_token"),
		SlackToken:         v.GetString("slack_token"),
		SlackSigningSecret: v.GetString("slack_signing_secret"),
		GlobalAdmins:       globalAdminsFromString(v.GetString("global_admins")),
		DBDriver:           strings.ToLower(v.GetString("db_driver")),
		DBDSN:              v.GetString("db_dsn"),
		RedisAddr:          v.GetString("redis_addr"),
		VenuesAPIURL:       v.GetString("venues_api_url"),
		RefreshInterval:    v.GetDuration("refresh_interval"),
	}

	if c.WebhookPort <= 0 || c.WebhookPort > 65535 {
		return c, fmt.Errorf("invalid webhook port %d", c.WebhookPort)
	}
	if c.DBDriver != "sqlite" && c.DBDriver != "mysql" {
		return c, fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = DefaultRefreshInterval
	}
	return c, nil
}

// SlackEnabled reports whether the Slack slash commands should be served.
func (c Config) SlackEnabled() bool {
	return c.SlackToken != "" && c.SlackSigningSecret != ""
}

func globalAdminsFromString(admins string) []string {
	var trimmed []string
	for _, uuid := range strings.Split(admins, ",") {
		if uuid = strings.TrimSpace(uuid); uuid != "" {
			trimmed = append(trimmed, uuid)
		}
	}
	return trimmed
}

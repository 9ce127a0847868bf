package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gadget-bot/venueshare/conf"
	"github.com/gadget-bot/venueshare/core"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "server",
		Aliases: []string{"serve"},
		Short:   "Run the bot",
		Long:    `Run the webhook server, the venue refresher and the Slack commands`,
		RunE:    server,
	}
}

func server(cmd *cobra.Command, args []string) error {
	cfg, err := conf.Load(viper.GetViper())
	if err != nil {
		return err
	}
	core.InitLog(cfg.Dev)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot, err := core.Setup(ctx, cfg)
	if err != nil {
		return err
	}

	log.Info().Str("version", conf.GitVersion).Int("port", cfg.WebhookPort).Msg("Starting VenueShare")
	return bot.Run(ctx)
}

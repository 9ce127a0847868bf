package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gadget-bot/venueshare/conf"
	"github.com/gadget-bot/venueshare/discord"
	"github.com/gadget-bot/venueshare/models"
	"github.com/gadget-bot/venueshare/plugins/groups"
	"github.com/gadget-bot/venueshare/plugins/permission_denied"
	"github.com/gadget-bot/venueshare/plugins/searchlocation"
	"github.com/gadget-bot/venueshare/plugins/venuehelp"
	"github.com/gadget-bot/venueshare/plugins/venuerefresh"
	"github.com/gadget-bot/venueshare/router"
	"github.com/gadget-bot/venueshare/store"
	"github.com/gadget-bot/venueshare/venuecache"
	"github.com/gadget-bot/venueshare/webhook"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/slack-go/slack"
	"gorm.io/gorm"
)

// SlashCommandPath receives Slack slash commands.
const SlashCommandPath = "/slack/command"

type Bot struct {
	Config    conf.Config
	Router    router.Router
	Client    *slack.Client
	Discord   *discordgo.Session
	Cache     *venuecache.Cache
	Refresher *venuecache.Refresher
	Webhook   *webhook.Handler
}

// InitLog configures the global logger: JSON in production, colored console
// output in dev mode.
func InitLog(devMode bool) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	if !devMode {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}

	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05.000",
	}).With().Caller().Logger()

	log.Warn().Msg("********** DEV MODE - UNSAFE IN PRODUCTION! **********")
}

// verifySlackRequest reads the request body, verifies the Slack signing secret,
// and returns the body bytes. On failure it writes the appropriate HTTP status
// and returns a non-nil error.
func verifySlackRequest(w http.ResponseWriter, r *http.Request, signingSecret string) ([]byte, int, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return nil, http.StatusBadRequest, err
	}

	sv, err := slack.NewSecretsVerifier(r.Header, signingSecret)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return nil, http.StatusUnauthorized, err
	}
	if _, err := sv.Write(body); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return nil, http.StatusInternalServerError, err
	}
	if err := sv.Ensure(); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return nil, http.StatusUnauthorized, err
	}

	return body, http.StatusOK, nil
}

func safeGo(routeName string, logger zerolog.Logger, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Interface("panic", r).
					Str("route", routeName).
					Str("stack", string(debug.Stack())).
					Msg("Plugin panicked")
			}
		}()
		fn()
	}()
}

// seedGlobalAdmins makes admins the exact membership of the global admins group.
func seedGlobalAdmins(db *gorm.DB, admins []string) error {
	log.Debug().Str("globalAdmins", strings.Join(admins, ", ")).Msg("Pulled globalAdmins")

	var globalAdmins models.Group
	var globalAdminUsers []models.User

	for _, userName := range admins {
		var user models.User
		if err := db.FirstOrCreate(&user, models.User{Uuid: userName}).Error; err != nil {
			return err
		}
		globalAdminUsers = append(globalAdminUsers, user)
	}

	if err := db.Where(models.Group{Name: models.GlobalAdmins}).FirstOrCreate(&globalAdmins).Error; err != nil {
		return err
	}
	return db.Model(&globalAdmins).Association("Members").Replace(globalAdminUsers)
}

// openSnapshotStore prefers Redis when an address is configured.
func openSnapshotStore(ctx context.Context, cfg conf.Config, db *gorm.DB) (venuecache.Store, error) {
	if cfg.RedisAddr != "" {
		client, err := store.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("addr", cfg.RedisAddr).Msg("Using Redis venue snapshot store")
		return store.NewRedisStore(client), nil
	}
	return store.NewGormStore(db)
}

// Setup connects every backend described by cfg. Nothing is started until Run.
func Setup(ctx context.Context, cfg conf.Config) (*Bot, error) {
	if cfg.DiscordToken == "" {
		return nil, errors.New("DISCORD_BOT_TOKEN is required")
	}

	bot := Bot{Config: cfg}

	db, err := store.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	bot.Router = *router.NewRouter()
	bot.Router.DbConnection = db
	if err := bot.Router.SetupDb(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := seedGlobalAdmins(db, cfg.GlobalAdmins); err != nil {
		return nil, fmt.Errorf("failed to seed global admins: %w", err)
	}

	snapshots, err := openSnapshotStore(ctx, cfg, db)
	if err != nil {
		return nil, err
	}
	bot.Cache = venuecache.New()
	bot.Refresher = venuecache.NewRefresher(bot.Cache, venuecache.NewAPISource(cfg.VenuesAPIURL), snapshots)

	bot.Discord, err = discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	bot.Discord.Identify.Intents = discordgo.IntentsGuilds
	bot.Discord.AddHandler(searchlocation.InteractionHandler(bot.Cache))
	bot.Webhook = webhook.NewHandler(bot.Cache, discord.NewSessionRegistry(bot.Discord))

	if cfg.SlackEnabled() {
		bot.Client = slack.New(cfg.SlackToken)
		bot.RegisterSlashCommands()
	} else {
		log.Info().Msg("Slack credentials not set, slash commands disabled")
	}

	return &bot, nil
}

// DiscordCommands are the application commands registered at login.
var DiscordCommands = []*discordgo.ApplicationCommand{searchlocation.DiscordCommand}

type commandCreator interface {
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
}

// registerDiscordCommands creates or updates cmds as global commands of appID.
func registerDiscordCommands(ctx context.Context, s commandCreator, appID string, cmds []*discordgo.ApplicationCommand) error {
	for _, cmd := range cmds {
		if _, err := s.ApplicationCommandCreate(appID, "", cmd, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("failed to register Discord command /%s: %w", cmd.Name, err)
		}
		log.Debug().Str("command", cmd.Name).Msg("Registered Discord command")
	}
	return nil
}

// RegisterSlashCommands adds the built-in Slack commands to the router.
func (bot *Bot) RegisterSlashCommands() {
	bot.Router.DeniedSlashCommandRoute = *permission_denied.GetSlashCommandRoute()
	bot.Router.AddSlashCommandRoutes([]router.SlashCommandRoute{
		*searchlocation.GetSlashCommandRoute(bot.Cache),
		*venuerefresh.GetSlashCommandRoute(bot.Refresher),
		*venuehelp.GetSlashCommandRoute(),
		*groups.GetSlashCommandRoute(),
	})
}

// Handler returns an http.Handler with the webhook routes and, when Slack is
// configured, the slash command route registered.
func (bot Bot) Handler() http.Handler {
	r := mux.NewRouter()
	bot.Webhook.RegisterRoutes(r)
	if bot.Client != nil {
		r.HandleFunc(SlashCommandPath, bot.slashCommand).Methods(http.MethodPost)
	}
	return r
}

func (bot Bot) slashCommand(w http.ResponseWriter, r *http.Request) {
	body, code, err := verifySlackRequest(w, r, bot.Config.SlackSigningSecret)
	if err != nil {
		log.Warn().Err(err).Int("code", code).Msg("Rejected Slack request")
		return
	}

	// Restore body so SlashCommandParse can read it via ParseForm
	r.Body = io.NopCloser(bytes.NewBuffer(body))
	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	route, exists := bot.Router.FindSlashCommandRouteByCommand(cmd.Command)
	if !exists {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response_type":"ephemeral","text":"Unknown command."}`))
		return
	}

	logger := log.With().Str("request_id", uuid.NewString()).Str("command", cmd.Command).Logger()

	currentUser, _ := bot.Router.CurrentUser(cmd.UserID)
	if !bot.Router.Can(currentUser, route.Permissions) {
		logger.Warn().Str("user", cmd.UserID).Str("route", route.Name).Str("access", "denied").Msg("Permission failure")
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"response_type":"ephemeral","text":"Permission denied."}`)); err != nil {
			logger.Error().Err(err).Msg("Failed to write permission denied response")
		}
		denied := bot.Router.DeniedSlashCommandRoute
		if denied.Plugin != nil {
			safeGo(denied.Name, logger, func() { denied.Execute(bot.Router, *bot.Client, cmd) })
		}
		return
	}

	logger.Debug().Str("user", cmd.UserID).Str("route", route.Name).Msg("Slash command")
	if route.ImmediateResponse != "" {
		resp, _ := json.Marshal(map[string]string{
			"response_type": "ephemeral",
			"text":          route.ImmediateResponse,
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(resp)
	}
	safeGo(route.Name, logger, func() { route.Execute(bot.Router, *bot.Client, cmd) })
	if route.ImmediateResponse == "" {
		w.WriteHeader(http.StatusOK)
	}
}

// Run logs in to Discord, registers its commands and warms the venue cache before the webhook starts
// listening. It serves until ctx is cancelled.
func (bot Bot) Run(ctx context.Context) error {
	if err := bot.Discord.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer func() {
		if err := bot.Discord.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Discord session")
		}
	}()
	log.Info().Msg("Connected to Discord")

	if bot.Discord.State != nil && bot.Discord.State.User != nil {
		if err := registerDiscordCommands(ctx, bot.Discord, bot.Discord.State.User.ID, DiscordCommands); err != nil {
			log.Error().Err(err).Msg("Discord commands unavailable")
		}
	}

	if err := bot.Refresher.Warm(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to warm venue cache")
	}

	if _, err := bot.Refresher.Refresh(ctx); err != nil {
		log.Error().Err(err).Msg("Initial venue refresh failed")
	}
	go bot.Refresher.Run(ctx, bot.Config.RefreshInterval)

	return webhook.NewServer(bot.Config.WebhookPort, bot.Handler()).Run(ctx)
}


package venuerefresh

import (
	"context"
	"fmt"
	"time"

	"github.com/gadget-bot/venueshare/models"
	"github.com/gadget-bot/venueshare/plugins/helpers"
	"github.com/gadget-bot/venueshare/router"
	"github.com/gadget-bot/venueshare/venuecache"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
)

const refreshTimeout = time.Minute

// Refresher reloads the venue cache on demand.
type Refresher interface {
	Refresh(ctx context.Context) (*venuecache.Snapshot, error)
}

func GetSlashCommandRoute(refresher Refresher) *router.SlashCommandRoute {
	var pluginRoute router.SlashCommandRoute
	pluginRoute.Permissions = append(pluginRoute.Permissions, models.GlobalAdmins)
	pluginRoute.Name = "venuerefresh"
	pluginRoute.Command = "/venuerefresh"
	pluginRoute.Description = "Reloads the venue list from FFXIVVenues"
	pluginRoute.Help = "`/venuerefresh`"
	pluginRoute.ImmediateResponse = "Refreshing venues..."
	pluginRoute.Plugin = func(router router.Router, route router.Route, api slack.Client, cmd slack.SlashCommand) {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		var text string
		snap, err := refresher.Refresh(ctx)
		if err != nil {
			log.Error().Err(err).Str("user", cmd.UserID).Msg("Manual venue refresh failed")
			text = "Venue refresh failed; still serving the previous list."
		} else {
			text = fmt.Sprintf("Venue list refreshed: %d venue(s) cached.", snap.Len())
		}

		helpers.PostEphemeral(api, cmd.ChannelID, cmd.UserID, route.Name, slack.MsgOptionText(text, false))
	}
	return &pluginRoute
}

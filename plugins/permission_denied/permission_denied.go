package permission_denied

import (
	"github.com/gadget-bot/venueshare/plugins/helpers"
	"github.com/gadget-bot/venueshare/router"

	"github.com/slack-go/slack"
)

// DeniedText is shown to a user who runs a command they lack permission for.
func DeniedText(user string) string {
	return "I'm sorry, <@" + user + ">, but you're not allowed to do that."
}

func GetSlashCommandRoute() *router.SlashCommandRoute {
	var pluginRoute router.SlashCommandRoute
	pluginRoute.Permissions = append(pluginRoute.Permissions, "*")
	pluginRoute.Name = "permission_denied"
	pluginRoute.Plugin = func(router router.Router, route router.Route, api slack.Client, cmd slack.SlashCommand) {
		helpers.PostEphemeral(api, cmd.ChannelID, cmd.UserID, route.Name, slack.MsgOptionText(DeniedText(cmd.UserID), false))
	}
	return &pluginRoute
}

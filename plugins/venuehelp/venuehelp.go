package venuehelp

import (
	"fmt"
	"strings"

	"github.com/gadget-bot/venueshare/plugins/helpers"
	"github.com/gadget-bot/venueshare/router"

	"github.com/slack-go/slack"
)

// HelpText lists every command the user is allowed to run.
func HelpText(r router.Router, can func(permissions []string) bool) string {
	var b strings.Builder
	b.WriteString("*VenueShare commands*\n")
	for _, route := range r.RegisteredRoutes() {
		if !can(route.Permissions) {
			continue
		}
		fmt.Fprintf(&b, "*-* `%s`: %s\n", route.Command, route.Description)
		if route.Help != "" {
			fmt.Fprintf(&b, "    %s\n", route.Help)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func GetSlashCommandRoute() *router.SlashCommandRoute {
	var pluginRoute router.SlashCommandRoute
	pluginRoute.Permissions = append(pluginRoute.Permissions, "*")
	pluginRoute.Name = "venuehelp"
	pluginRoute.Command = "/venuehelp"
	pluginRoute.Description = "Shows this list"
	pluginRoute.Priority = -1
	pluginRoute.Plugin = func(r router.Router, route router.Route, api slack.Client, cmd slack.SlashCommand) {
		can := func(permissions []string) bool { return true }
		if user, ok := r.CurrentUser(cmd.UserID); ok {
			can = func(permissions []string) bool { return r.Can(user, permissions) }
		}
		helpers.PostEphemeral(api, cmd.ChannelID, cmd.UserID, route.Name, slack.MsgOptionText(HelpText(r, can), false))
	}
	return &pluginRoute
}

package router

import "github.com/slack-go/slack"

// SlashCommandRoute handles Slack slash command invocations.
// Plugin execution is dispatched asynchronously in a goroutine, so the HTTP
// handler acknowledges the command within Slack's 3-second deadline. Plugins
// answer by posting a follow-up message with the Slack API.
type SlashCommandRoute struct {
	Route
	Command           string // Slack command name, e.g. "/searchlocation"
	ImmediateResponse string // optional ephemeral acknowledgement
	Plugin            func(router Router, route Route, api slack.Client, cmd slack.SlashCommand)
}

// Execute calls Plugin()
func (route SlashCommandRoute) Execute(router Router, api slack.Client, cmd slack.SlashCommand) {
	route.Plugin(router, route.Route, api, cmd)
}

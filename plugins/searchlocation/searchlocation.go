package searchlocation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gadget-bot/venueshare/models"
	"github.com/gadget-bot/venueshare/plugins/helpers"
	"github.com/gadget-bot/venueshare/router"
	"github.com/gadget-bot/venueshare/search"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
)

const usage = "Usage: `/searchlocation <server> <district> [ward] [plot]`, e.g. `/searchlocation Gaia Mist 5 12`"

// VenueSource is the cached venue list.
type VenueSource interface {
	Venues() []models.Venue
}

// ParseQuery reads "<server> <district...> [ward] [plot]". District names may
// contain spaces; up to two trailing integers are taken as ward and plot.
// Server and district are both required.
func ParseQuery(text string) (models.LocationQuery, bool) {
	words := strings.Fields(text)
	if len(words) < 2 {
		return models.LocationQuery{}, false
	}

	q := models.LocationQuery{Server: words[0]}
	rest := words[1:]

	var numbers []int
	for len(rest) > 0 && len(numbers) < 2 {
		n, err := strconv.Atoi(rest[len(rest)-1])
		if err != nil {
			break
		}
		numbers = append([]int{n}, numbers...)
		rest = rest[:len(rest)-1]
	}

	q.District = strings.Join(rest, " ")
	if q.District == "" {
		return models.LocationQuery{}, false
	}
	if len(numbers) > 0 {
		q.Ward = models.NewNumber(numbers[0])
	}
	if len(numbers) > 1 {
		q.Plot = models.NewNumber(numbers[1])
	}
	return q, true
}

// Browse lays out as many matches as one message holds rather than the short
// list the webhook posts. The rest are counted in an "Additional Results" field.
func Browse(q models.LocationQuery, matches []models.Venue, requestedBy string, at time.Time) search.Summary {
	return search.RenderUpTo(q, matches, requestedBy, at, search.MaxFields, narrowHint)
}

const narrowHint = "Add a ward and plot to narrow the search."

// NoVenuesText is the ephemeral reply for a search with no results.
func NoVenuesText(q models.LocationQuery) string {
	ward := q.Ward.String()
	if ward == "" {
		ward = "?"
	}
	plot := q.Plot.String()
	if plot == "" {
		plot = "?"
	}
	return fmt.Sprintf("No venues found at %s Ward %s, Plot %s on %s.", q.District, ward, plot, q.Server)
}

func GetSlashCommandRoute(venues VenueSource) *router.SlashCommandRoute {
	var pluginRoute router.SlashCommandRoute
	pluginRoute.Permissions = append(pluginRoute.Permissions, "*")
	pluginRoute.Name = "searchlocation"
	pluginRoute.Command = search.BrowseCommand
	pluginRoute.Description = "Lists every venue at a housing location"
	pluginRoute.Help = usage
	pluginRoute.Priority = 10
	pluginRoute.Plugin = func(router router.Router, route router.Route, api slack.Client, cmd slack.SlashCommand) {
		q, ok := ParseQuery(cmd.Text)
		if !ok {
			helpers.PostEphemeral(api, cmd.ChannelID, cmd.UserID, route.Name, slack.MsgOptionText(usage, false))
			return
		}

		matches := search.Match(q, venues.Venues())
		log.Debug().Str("query", cmd.Text).Int("matches", len(matches)).Msg("Location search")
		if len(matches) == 0 {
			helpers.PostEphemeral(api, cmd.ChannelID, cmd.UserID, route.Name, slack.MsgOptionText(NoVenuesText(q), false))
			return
		}

		requester := models.User{Uuid: cmd.UserID}.DisplayName(api)
		summary := Browse(q, matches, requester, time.Now())
		helpers.PostMessage(api, cmd.ChannelID, route.Name,
			slack.MsgOptionText(summary.Title, false),
			slack.MsgOptionBlocks(helpers.SummaryBlocks(summary)...),
		)
	}
	return &pluginRoute
}

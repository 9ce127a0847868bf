package searchlocation

import (
	"fmt"
	"time"

	"github.com/gadget-bot/venueshare/discord"
	"github.com/gadget-bot/venueshare/models"
	"github.com/gadget-bot/venueshare/search"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// PickerID identifies the venue select menu attached to search results.
const PickerID = "venueshare:venue"

// Select menus hold at most 25 options of at most 100 characters each.
const (
	maxPickerOptions = 25
	maxOptionLength  = 100
)

// VenueLookup is the cached venue list with lookups by id.
type VenueLookup interface {
	VenueSource
	Get(id string) (models.Venue, bool)
}

// Responder is the part of *discordgo.Session that answers interactions.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// DiscordCommand is the Discord application command for location searches.
var DiscordCommand = &discordgo.ApplicationCommand{
	Name:        "searchlocation",
	Description: "Search for venues at a specific location",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "server",
			Description: "Server name (e.g. Gaia)",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "district",
			Description: "Housing district (e.g. Mist)",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "ward",
			Description: "Ward number",
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "plot",
			Description: "Plot number",
		},
	},
}

// InteractionHandler returns a discordgo event handler serving DiscordCommand
// and its venue picker.
func InteractionHandler(venues VenueLookup) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("interaction", i.ID).Msg("Interaction handler panicked")
			}
		}()
		HandleInteraction(s, venues, i, time.Now())
	}
}

// HandleInteraction answers a /searchlocation command or a pick from its venue
// menu. Other interactions are ignored.
func HandleInteraction(r Responder, venues VenueLookup, i *discordgo.InteractionCreate, now time.Time) {
	var resp *discordgo.InteractionResponse

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		if data.Name != DiscordCommand.Name {
			return
		}
		q := commandQuery(data.Options)
		matches := search.Match(q, venues.Venues())
		log.Debug().Str("server", q.Server).Str("district", q.District).Int("matches", len(matches)).Msg("Discord location search")
		resp = searchResponse(q, matches, requester(i), now)
	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		if data.CustomID != PickerID || len(data.Values) == 0 {
			return
		}
		resp = venueResponse(venues, data.Values[0])
	default:
		return
	}

	if err := r.InteractionRespond(i.Interaction, resp); err != nil {
		log.Error().Err(err).Str("interaction", i.ID).Msg("Failed to respond to interaction")
	}
}

func commandQuery(options []*discordgo.ApplicationCommandInteractionDataOption) models.LocationQuery {
	var q models.LocationQuery
	for _, opt := range options {
		switch opt.Name {
		case "server":
			q.Server = opt.StringValue()
		case "district":
			q.District = opt.StringValue()
		case "ward":
			q.Ward = models.NewNumber(int(opt.IntValue()))
		case "plot":
			q.Plot = models.NewNumber(int(opt.IntValue()))
		}
	}
	return q
}

func requester(i *discordgo.InteractionCreate) string {
	user := i.User
	if i.Member != nil {
		if i.Member.Nick != "" {
			return i.Member.Nick
		}
		user = i.Member.User
	}
	if user == nil {
		return ""
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}

func ephemeral(data *discordgo.InteractionResponseData) *discordgo.InteractionResponse {
	data.Flags = discordgo.MessageFlagsEphemeral
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}

func searchResponse(q models.LocationQuery, matches []models.Venue, requestedBy string, at time.Time) *discordgo.InteractionResponse {
	if len(matches) == 0 {
		return ephemeral(&discordgo.InteractionResponseData{Content: NoVenuesText(q)})
	}

	data := &discordgo.InteractionResponseData{
		Content: fmt.Sprintf("Found %d venue(s) at %s on %s. Choose one below:",
			len(matches), search.Truncate(q.District, search.MaxQueryPart), search.Truncate(q.Server, search.MaxQueryPart)),
		Embeds: []*discordgo.MessageEmbed{discord.Embed(Browse(q, matches, requestedBy, at))},
	}
	if options := pickerOptions(matches); len(options) > 0 {
		data.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    PickerID,
					Placeholder: "Choose a venue",
					Options:     options,
				},
			}},
		}
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}

func pickerOptions(matches []models.Venue) []discordgo.SelectMenuOption {
	var options []discordgo.SelectMenuOption
	for _, v := range matches {
		if len(options) == maxPickerOptions {
			break
		}
		// ids longer than an option value could not be looked up again
		if v.ID == "" || len(v.ID) > maxOptionLength {
			continue
		}
		label := v.Name
		if label == "" {
			label = v.ID
		}
		option := discordgo.SelectMenuOption{
			Label: search.Truncate(label, maxOptionLength),
			Value: v.ID,
		}
		if ward, plot := v.Location.Ward.String(), v.Location.Plot.String(); ward != "" && plot != "" {
			option.Description = search.Truncate(fmt.Sprintf("%s Ward %s, Plot %s", v.Location.District, ward, plot), maxOptionLength)
		}
		options = append(options, option)
	}
	return options
}

func venueResponse(venues VenueLookup, id string) *discordgo.InteractionResponse {
	v, ok := venues.Get(id)
	if !ok {
		return ephemeral(&discordgo.InteractionResponseData{Content: "That venue is no longer listed."})
	}
	embed := discord.Embed(search.Summary{
		Title:       search.Truncate(v.Name, search.MaxTitleLength),
		Description: search.Truncate(search.VenueBlock(v), search.MaxDescriptionLength),
		Color:       search.ColorBlue,
	})
	return ephemeral(&discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}})
}

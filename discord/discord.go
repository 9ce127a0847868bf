// Package discord posts venue summaries to Discord channels.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/gadget-bot/venueshare/chat"
	"github.com/gadget-bot/venueshare/search"
)

// Session is the part of *discordgo.Session the registry needs.
type Session interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Registry resolves Discord channel ids, preferring the gateway state cache
// and falling back to the REST API.
type Registry struct {
	session Session
	state   *discordgo.State
}

// NewRegistry returns a registry backed by session. state may be nil.
func NewRegistry(session Session, state *discordgo.State) *Registry {
	return &Registry{session: session, state: state}
}

// NewSessionRegistry is a convenience for a live discordgo session.
func NewSessionRegistry(s *discordgo.Session) *Registry {
	return NewRegistry(s, s.State)
}

// Channel implements chat.Registry.
func (r *Registry) Channel(ctx context.Context, id int64) (chat.Channel, error) {
	if id <= 0 {
		return nil, chat.ErrChannelNotFound
	}
	channelID := strconv.FormatInt(id, 10)

	if r.state != nil {
		if c, err := r.state.Channel(channelID); err == nil {
			return &Channel{session: r.session, ID: c.ID, Name: c.Name}, nil
		}
	}

	c, err := r.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		if isUnknownChannel(err) {
			return nil, chat.ErrChannelNotFound
		}
		return nil, fmt.Errorf("failed to look up Discord channel %s: %w", channelID, err)
	}
	if c == nil {
		return nil, chat.ErrChannelNotFound
	}
	return &Channel{session: r.session, ID: c.ID, Name: c.Name}, nil
}

func isUnknownChannel(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownChannel {
		return true
	}
	// Channels the bot cannot see look the same as missing ones to callers.
	return restErr.Response != nil &&
		(restErr.Response.StatusCode == http.StatusNotFound || restErr.Response.StatusCode == http.StatusForbidden)
}

// Channel is a Discord text channel.
type Channel struct {
	session Session
	ID      string
	Name    string
}

// Send posts the summary as a rich embed.
func (c *Channel) Send(ctx context.Context, summary search.Summary) error {
	msg, err := c.session.ChannelMessageSendEmbed(c.ID, Embed(summary), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to post embed to Discord channel %s: %w", c.ID, err)
	}
	if msg != nil {
		log.Debug().Str("channel", c.ID).Str("message", msg.ID).Msg("Posted venue summary")
	}
	return nil
}

// Embed converts a summary into a Discord embed.
func Embed(s search.Summary) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Type:        discordgo.EmbedTypeRich,
		Title:       s.Title,
		Description: s.Description,
		Color:       s.Color,
	}
	if !s.Timestamp.IsZero() {
		e.Timestamp = s.Timestamp.UTC().Format(time.RFC3339)
	}
	if s.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: s.Footer}
	}
	for _, f := range s.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return e
}

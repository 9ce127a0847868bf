package helpers

import (
	"fmt"
	"regexp"

	"github.com/gadget-bot/venueshare/search"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
)

const (
	// Slack block limits.
	MaxHeaderLength  = 150
	MaxSectionLength = 3000
	MaxBlocks        = 50
)

var (
	boldPattern = regexp.MustCompile(`\*\*(.+?)\*\*`)
	linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
)

// PostMessage sends a Slack message to the given channel and logs any error
// using zerolog with consistent structured fields.
func PostMessage(api slack.Client, channel, plugin string, options ...slack.MsgOption) (string, string) {
	respChannel, ts, err := api.PostMessage(channel, options...)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Str("plugin", plugin).Msg("Failed to post message")
	}
	return respChannel, ts
}

// PostEphemeral sends a message only user can see.
func PostEphemeral(api slack.Client, channel, user, plugin string, options ...slack.MsgOption) {
	if _, err := api.PostEphemeral(channel, user, options...); err != nil {
		log.Error().Err(err).Str("channel", channel).Str("user", user).Str("plugin", plugin).Msg("Failed to post ephemeral message")
	}
}

// Mrkdwn converts Discord flavored markdown into Slack mrkdwn.
func Mrkdwn(s string) string {
	s = boldPattern.ReplaceAllString(s, "*$1*")
	return linkPattern.ReplaceAllString(s, "<$2|$1>")
}

// SummaryBlocks lays a search summary out as Block Kit blocks: a header, the
// description, one section per field and a context footer. Output never
// exceeds MaxBlocks; fields that do not fit are counted in a closing notice.
func SummaryBlocks(s search.Summary) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, search.Truncate(s.Title, MaxHeaderLength), true, false)),
	}
	if s.Description != "" {
		blocks = append(blocks, section(s.Description))
	}
	blocks = append(blocks, slack.NewDividerBlock())

	// room for the footer
	budget := MaxBlocks - len(blocks)
	if s.Footer != "" {
		budget--
	}
	fields := s.Fields
	if len(fields) > budget {
		// the last block says how many fields were left out
		fields = fields[:budget-1]
	}
	for _, f := range fields {
		blocks = append(blocks, section("**"+f.Name+"**\n"+f.Value))
	}
	if hidden := len(s.Fields) - len(fields); hidden > 0 {
		blocks = append(blocks, section(fmt.Sprintf("_... and %d more not shown._", hidden)))
	}

	if s.Footer != "" {
		footer := s.Footer
		if !s.Timestamp.IsZero() {
			footer += " | " + s.Timestamp.Format("2006-01-02 15:04 MST")
		}
		blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType, Mrkdwn(footer), false, false)))
	}
	return blocks
}

func section(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, search.Truncate(Mrkdwn(text), MaxSectionLength), false, false),
		nil, nil,
	)
}

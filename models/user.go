package models

import (
	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
	"gorm.io/gorm"
)

// User is a Slack user the bot has seen run a command.
type User struct {
	gorm.Model
	Uuid   string  `gorm:"index:,unique"`
	Groups []Group `gorm:"many2many:user_groups;"`
}

func (u User) Info(api slack.Client) *slack.User {
	info, err := api.GetUserInfo(u.Uuid)
	if err != nil {
		log.Warn().Err(err).Str("uuid", u.Uuid).Msg("Failed to get user info")
		return nil
	}

	return info
}

// DisplayName returns the best human name Slack has for the user, falling
// back to the raw id when the lookup fails.
func (u User) DisplayName(api slack.Client) string {
	info := u.Info(api)
	switch {
	case info == nil:
		return u.Uuid
	case info.Profile.DisplayName != "":
		return info.Profile.DisplayName
	case info.RealName != "":
		return info.RealName
	case info.Name != "":
		return info.Name
	}
	return u.Uuid
}

package groups

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gadget-bot/venueshare/models"
	"github.com/gadget-bot/venueshare/plugins/helpers"
	"github.com/gadget-bot/venueshare/router"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
	"gorm.io/gorm"
)

const usage = "Usage: `/venueadmin list`, `/venueadmin add <@user> <group>` or `/venueadmin remove <@user> <group>`"

var (
	userPattern  = regexp.MustCompile(`^<@([A-Za-z0-9]+)(\|[^>]*)?>$|^([UW][A-Z0-9]+)$`)
	groupPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// parseUser accepts an escaped mention or a bare Slack user id.
func parseUser(s string) (string, bool) {
	results := userPattern.FindStringSubmatch(s)
	if results == nil {
		return "", false
	}
	if results[1] != "" {
		return results[1], true
	}
	return results[3], true
}

// ListGroups describes every group and its members.
func ListGroups(db *gorm.DB) string {
	var groups []models.Group
	if err := db.Preload("Members").Order("name").Find(&groups).Error; err != nil {
		log.Error().Err(err).Msg("Failed to list groups")
		return "I couldn't list the groups."
	}

	if len(groups) == 0 {
		return "I don't know about any groups yet."
	}

	response := "Here are *all* the groups I know about:\n"
	for _, group := range groups {
		var members []string
		for _, member := range group.Members {
			members = append(members, "<@"+member.Uuid+">")
		}
		if len(members) == 0 {
			members = append(members, "_nobody_")
		}
		response += fmt.Sprintf("*-* %s: %s\n", group.Name, strings.Join(members, ", "))
	}
	return strings.TrimRight(response, "\n")
}

// AddUserToGroup creates the group if needed and adds userName to it.
func AddUserToGroup(db *gorm.DB, userName, groupName string) string {
	var foundGroup models.Group
	var foundUser models.User

	failed := func(err error) string {
		log.Error().Err(err).Str("user", userName).Str("group", groupName).Msg("Failed to add group member")
		return fmt.Sprintf("I couldn't add <@%s> to %s.", userName, groupName)
	}

	if err := db.Where(models.Group{Name: groupName}).FirstOrCreate(&foundGroup).Error; err != nil {
		return failed(err)
	}
	if err := db.Where(models.User{Uuid: userName}).FirstOrCreate(&foundUser).Error; err != nil {
		return failed(err)
	}
	if err := db.Model(&foundGroup).Association("Members").Append(&foundUser); err != nil {
		return failed(err)
	}

	return fmt.Sprintf("I successfully added <@%s> to %s!", userName, groupName)
}

// RemoveUserFromGroup drops userName from the named group.
func RemoveUserFromGroup(db *gorm.DB, userName, groupName string) string {
	var foundGroup models.Group
	var foundUser models.User
	var wasMember bool

	failed := func(err error) string {
		log.Error().Err(err).Str("user", userName).Str("group", groupName).Msg("Failed to remove group member")
		return fmt.Sprintf("I couldn't remove <@%s> from %s.", userName, groupName)
	}

	if err := db.Where(models.User{Uuid: userName}).FirstOrCreate(&foundUser).Error; err != nil {
		return failed(err)
	}
	err := db.Preload("Members").Where(models.Group{Name: groupName}).First(&foundGroup).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Sprintf("I couldn't find a group named '%s'.", groupName)
	}
	if err != nil {
		return failed(err)
	}

	var newMembersList []models.User

	// Create a new list of members to replace the old (removing the specified user)
	for _, member := range foundGroup.Members {
		if member.Uuid == foundUser.Uuid {
			wasMember = true
		} else {
			newMembersList = append(newMembersList, member)
		}
	}

	if !wasMember {
		return fmt.Sprintf("It doesn't look like <@%s> is a member of %s.", userName, groupName)
	}

	if err := db.Model(&foundGroup).Association("Members").Replace(newMembersList); err != nil {
		return failed(err)
	}
	return fmt.Sprintf("<@%s> is no longer a member of %s!", userName, groupName)
}

// Dispatch runs the subcommand in text and returns the reply.
func Dispatch(db *gorm.DB, text string) string {
	args := strings.Fields(text)
	if len(args) == 0 {
		return usage
	}

	switch strings.ToLower(args[0]) {
	case "list":
		return ListGroups(db)
	case "add", "remove":
		if len(args) != 3 || !groupPattern.MatchString(args[2]) {
			return usage
		}
		userName, ok := parseUser(args[1])
		if !ok {
			return usage
		}
		if strings.ToLower(args[0]) == "add" {
			return AddUserToGroup(db, userName, args[2])
		}
		return RemoveUserFromGroup(db, userName, args[2])
	}
	return usage
}

func GetSlashCommandRoute() *router.SlashCommandRoute {
	var pluginRoute router.SlashCommandRoute
	pluginRoute.Permissions = append(pluginRoute.Permissions, models.GlobalAdmins)
	pluginRoute.Name = "groups.venueadmin"
	pluginRoute.Command = "/venueadmin"
	pluginRoute.Description = "Manages permission groups"
	pluginRoute.Help = usage
	pluginRoute.Plugin = func(router router.Router, route router.Route, api slack.Client, cmd slack.SlashCommand) {
		helpers.PostEphemeral(api, cmd.ChannelID, cmd.UserID, route.Name,
			slack.MsgOptionText(Dispatch(router.DbConnection, cmd.Text), false))
	}
	return &pluginRoute
}

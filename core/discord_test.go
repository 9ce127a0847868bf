package core

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommandCreator struct {
	err     error
	appIDs  []string
	created []string
}

func (f *fakeCommandCreator) ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, _ ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.appIDs = append(f.appIDs, appID)
	f.created = append(f.created, cmd.Name)
	return cmd, nil
}

func TestRegisterDiscordCommands(t *testing.T) {
	f := &fakeCommandCreator{}

	require.NoError(t, registerDiscordCommands(context.Background(), f, "app1", DiscordCommands))

	assert.Equal(t, []string{"searchlocation"}, f.created)
	assert.Equal(t, []string{"app1"}, f.appIDs)
}

func TestRegisterDiscordCommands_Error(t *testing.T) {
	f := &fakeCommandCreator{err: errors.New("missing access")}

	err := registerDiscordCommands(context.Background(), f, "app1", DiscordCommands)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "/searchlocation")
	assert.ErrorIs(t, err, f.err)
}

package infrastructure

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
)

// VoiceStateProvider answers voice state questions from the gateway state cache.
type VoiceStateProvider struct {
	state *discordgo.State
}

// NewVoiceStateProvider creates a new VoiceStateProvider.
func NewVoiceStateProvider(state *discordgo.State) *VoiceStateProvider {
	return &VoiceStateProvider{
		state: state,
	}
}

// GetUserVoiceChannel returns the voice channel ID that the user is currently in.
// Returns 0 if the user is not in a voice channel.
func (v *VoiceStateProvider) GetUserVoiceChannel(
	guildID, userID snowflake.ID,
) (snowflake.ID, error) {
	vs, err := v.state.VoiceState(guildID.String(), userID.String())
	if err != nil {
		// Unknown guilds and members without a voice state both mean "not in voice".
		if errors.Is(err, discordgo.ErrStateNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read voice state: %w", err)
	}

	return parseVoiceChannel(vs.ChannelID)
}

func parseVoiceChannel(channelID string) (snowflake.ID, error) {
	if channelID == "" {
		return 0, nil
	}
	id, err := snowflake.Parse(channelID)
	if err != nil {
		return 0, fmt.Errorf("failed to parse voice channel id %q: %w", channelID, err)
	}
	return id, nil
}

// Ensure VoiceStateProvider implements ports.VoiceStateProvider.
var _ ports.VoiceStateProvider = (*VoiceStateProvider)(nil)

package discord

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/usecases"
)

// EventHandlers handles Discord gateway events for the music player.
type EventHandlers struct {
	botID      snowflake.ID
	controller PlaybackController
}

// NewEventHandlers creates a new EventHandlers.
func NewEventHandlers(botID snowflake.ID, controller PlaybackController) *EventHandlers {
	return &EventHandlers{
		botID:      botID,
		controller: controller,
	}
}

// HandleVoiceStateUpdate clears the guild's playback when the bot is
// disconnected from voice by someone else.
func (h *EventHandlers) HandleVoiceStateUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	// Only handle updates for the bot itself
	if event.UserID != h.botID.String() || event.ChannelID != "" {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	err = h.controller.Leave(context.Background(), usecases.ControlInput{GuildID: guildID})
	switch {
	case err == nil:
		slog.Info("cleared playback after external disconnect", "guild", guildID)
	case errors.Is(err, usecases.ErrNotConnected):
		// Our own Leave already cleaned up.
	default:
		slog.Warn("failed to clear playback after disconnect", "guild", guildID, "error", err)
	}
}

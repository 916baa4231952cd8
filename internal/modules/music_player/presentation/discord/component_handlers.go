package discord

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/jukebot/internal/bot"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// ComponentHandlers handles the playback buttons attached to "Now Playing" messages.
type ComponentHandlers struct {
	controller PlaybackController
}

// NewComponentHandlers creates new ComponentHandlers.
func NewComponentHandlers(controller PlaybackController) *ComponentHandlers {
	return &ComponentHandlers{controller: controller}
}

// Handlers returns one handler per playback button, keyed by custom ID.
func (h *ComponentHandlers) Handlers() map[string]bot.InteractionHandler {
	handlers := make(map[string]bot.InteractionHandler)
	for _, control := range domain.PlaybackControls() {
		handlers[control.CustomID()] = h.HandleControl
	}
	return handlers
}

// HandleControl runs the control encoded in the button's custom ID.
// Replies are ephemeral so only the clicking user sees them.
func (h *ComponentHandlers) HandleControl(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	control, ok := domain.ParsePlaybackControl(i.MessageComponentData().CustomID)
	if !ok {
		return respondEphemeral(r, "Unknown control.")
	}

	input, ok := controlInput(i)
	if !ok {
		return respondEphemeral(r, "Invalid guild")
	}

	ctx := context.Background()

	var (
		reply string
		err   error
	)
	switch control {
	case domain.ControlPause:
		reply, err = "Paused", h.controller.Pause(ctx, input)
	case domain.ControlResume:
		reply, err = "Resumed", h.controller.Resume(ctx, input)
	case domain.ControlSkip:
		reply = "Skipped"
		_, err = h.controller.Skip(ctx, input)
	case domain.ControlShuffle:
		reply = "Queue shuffled"
		_, err = h.controller.Shuffle(ctx, input)
	case domain.ControlStop:
		reply = "Stopped & cleared queue"
		_, err = h.controller.Stop(ctx, input)
	}

	if err != nil {
		if message, known := errorMessage(err); known {
			return respondEphemeral(r, message)
		}
		slog.Error("failed to run playback control",
			"guild", input.GuildID,
			"control", control,
			"error", err,
		)
		return respondEphemeral(r, "Music control failed.")
	}

	return respondEphemeral(r, reply)
}

func respondEphemeral(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

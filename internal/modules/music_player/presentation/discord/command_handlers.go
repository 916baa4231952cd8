package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"
	"github.com/sglre6355/jukebot/internal/bot"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/usecases"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorInfo    = 0x5865F2
	colorError   = 0xE74C3C
)

// queueDisplayLimit is the number of pending entries /queue lists.
const queueDisplayLimit = 10

// PlaybackController is the subset of usecases.PlaybackController the handlers drive.
type PlaybackController interface {
	Enqueue(ctx context.Context, input usecases.EnqueueInput) (*usecases.EnqueueOutput, error)
	Skip(ctx context.Context, input usecases.ControlInput) (*usecases.SkipOutput, error)
	Stop(ctx context.Context, input usecases.ControlInput) (*usecases.StopOutput, error)
	Shuffle(ctx context.Context, input usecases.ControlInput) (*usecases.ShuffleOutput, error)
	Pause(ctx context.Context, input usecases.ControlInput) error
	Resume(ctx context.Context, input usecases.ControlInput) error
	Leave(ctx context.Context, input usecases.ControlInput) error
	Queue(guildID snowflake.ID) []usecases.QueueEntry
	NowPlaying(guildID snowflake.ID) *usecases.QueueEntry
}

// MediaRefResolver turns /play input into a playable reference.
type MediaRefResolver interface {
	ResolveMediaRef(ctx context.Context, input string) (usecases.MediaRef, error)
}

// CommandHandlers holds all the command handlers.
type CommandHandlers struct {
	controller PlaybackController
	resolver   MediaRefResolver
	voiceState ports.VoiceStateProvider
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	controller PlaybackController,
	resolver MediaRefResolver,
	voiceState ports.VoiceStateProvider,
) *CommandHandlers {
	return &CommandHandlers{
		controller: controller,
		resolver:   resolver,
		voiceState: voiceState,
	}
}

// HandlePlay handles the /play command.
func (h *CommandHandlers) HandlePlay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	userID, err := snowflake.Parse(interactionUserID(i))
	if err != nil {
		return respondError(r, "Invalid user")
	}

	notificationChannelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return respondError(r, "Invalid notification channel")
	}

	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "query" {
			query = opt.StringValue()
		}
	}

	voiceChannelID, err := h.voiceState.GetUserVoiceChannel(guildID, userID)
	if err != nil {
		return err
	}
	if voiceChannelID == 0 {
		return respondError(r, "Join a voice channel first.")
	}

	// Resolving and joining can take longer than the interaction deadline.
	if err := r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		return err
	}

	ref, err := h.resolver.ResolveMediaRef(ctx, query)
	if err != nil {
		if message, ok := errorMessage(err); ok {
			return editError(r, message)
		}
		slog.Error("failed to resolve query", "guild", guildID, "query", query, "error", err)
		return err
	}

	output, err := h.controller.Enqueue(ctx, usecases.EnqueueInput{
		GuildID:               guildID,
		VoiceChannelID:        voiceChannelID,
		NotificationChannelID: notificationChannelID,
		MediaRef:              ref,
		RequesterID:           userID,
	})
	if err != nil {
		if message, ok := errorMessage(err); ok {
			return editError(r, message)
		}
		slog.Error("failed to enqueue", "guild", guildID, "ref", ref, "error", err)
		return err
	}

	if output.Failed {
		return editError(r, fmt.Sprintf("Could not play %s.", ref))
	}

	var description string
	if output.Started {
		description = fmt.Sprintf("Playing %s.", ref)
	} else {
		description = fmt.Sprintf("Added %s to the queue at position **%d**.", ref, output.Position)
	}

	return editEmbed(r, &discordgo.MessageEmbed{
		Description: description,
		Color:       colorSuccess,
	})
}

// HandleSkip handles the /skip command.
func (h *CommandHandlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	input, ok := controlInput(i)
	if !ok {
		return respondError(r, "Invalid guild")
	}

	if _, err := h.controller.Skip(context.Background(), input); err != nil {
		return respondUseCaseError(r, err)
	}

	// "Now Playing" for the next entry is sent via PlaybackStartedEvent
	return respondSuccess(r, "Skipped.")
}

// HandleStop handles the /stop command.
func (h *CommandHandlers) HandleStop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	input, ok := controlInput(i)
	if !ok {
		return respondError(r, "Invalid guild")
	}

	if _, err := h.controller.Stop(context.Background(), input); err != nil {
		return respondUseCaseError(r, err)
	}

	return respondSuccess(r, "Stopped playback and cleared the queue.")
}

// HandleShuffle handles the /shuffle command.
func (h *CommandHandlers) HandleShuffle(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	input, ok := controlInput(i)
	if !ok {
		return respondError(r, "Invalid guild")
	}

	output, err := h.controller.Shuffle(context.Background(), input)
	if err != nil {
		return respondUseCaseError(r, err)
	}

	return respondSuccess(r, fmt.Sprintf("Shuffled %d tracks.", output.Count))
}

// HandlePause handles the /pause command.
func (h *CommandHandlers) HandlePause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	input, ok := controlInput(i)
	if !ok {
		return respondError(r, "Invalid guild")
	}

	if err := h.controller.Pause(context.Background(), input); err != nil {
		return respondUseCaseError(r, err)
	}

	return respondSuccess(r, "Paused playback.")
}

// HandleResume handles the /resume command.
func (h *CommandHandlers) HandleResume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	input, ok := controlInput(i)
	if !ok {
		return respondError(r, "Invalid guild")
	}

	if err := h.controller.Resume(context.Background(), input); err != nil {
		return respondUseCaseError(r, err)
	}

	return respondSuccess(r, "Resumed playback.")
}

// HandleLeave handles the /leave command.
func (h *CommandHandlers) HandleLeave(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	input, ok := controlInput(i)
	if !ok {
		return respondError(r, "Invalid guild")
	}

	if err := h.controller.Leave(context.Background(), input); err != nil {
		return respondUseCaseError(r, err)
	}

	return respondSuccess(r, "Disconnected.")
}

// HandleQueue handles the /queue command.
func (h *CommandHandlers) HandleQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Queue",
		Description: queueDescription(h.controller.NowPlaying(guildID), h.controller.Queue(guildID)),
		Color:       colorInfo,
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// queueDescription renders the current entry and the first pending entries.
func queueDescription(current *usecases.QueueEntry, pending []usecases.QueueEntry) string {
	if current == nil && len(pending) == 0 {
		return "Queue is empty."
	}

	var sb strings.Builder

	if current != nil {
		sb.WriteString("### Now Playing\n")
		fmt.Fprintf(&sb, "%s\n", current.MediaRef)
	}

	if len(pending) > 0 {
		sb.WriteString("### Up Next\n")
		shown := pending[:min(len(pending), queueDisplayLimit)]
		// Escape the period to prevent Discord markdown list formatting.
		lines := lo.Map(shown, func(entry usecases.QueueEntry, idx int) string {
			return fmt.Sprintf("%d\\. %s", idx+1, entry.MediaRef)
		})
		sb.WriteString(strings.Join(lines, "\n"))

		if rest := len(pending) - len(shown); rest > 0 {
			fmt.Fprintf(&sb, "\n…and %d more", rest)
		}
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

// controlInput builds the shared control input from an interaction.
// The invoking channel becomes the notification channel.
func controlInput(i *discordgo.InteractionCreate) (usecases.ControlInput, bool) {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return usecases.ControlInput{}, false
	}

	input := usecases.ControlInput{GuildID: guildID}
	if channelID, err := snowflake.Parse(i.ChannelID); err == nil {
		input.NotificationChannelID = channelID
	}

	return input, true
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// errorMessage maps use case errors to user-facing messages.
func errorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, usecases.ErrUserNotInVoice):
		return "Join a voice channel first.", true
	case errors.Is(err, usecases.ErrNotConnected):
		return "I'm not in a voice channel.", true
	case errors.Is(err, usecases.ErrNotPlaying):
		return "Nothing is playing right now.", true
	case errors.Is(err, usecases.ErrAlreadyPaused):
		return "Playback is already paused.", true
	case errors.Is(err, usecases.ErrNotPaused):
		return "Playback is not paused.", true
	case errors.Is(err, usecases.ErrQueueEmpty):
		return "Queue is empty.", true
	case errors.Is(err, usecases.ErrNoResults):
		return "No results found.", true
	case errors.Is(err, usecases.ErrInvalidMediaRef):
		return "Usage: /play <song or YouTube URL>", true
	case errors.Is(err, usecases.ErrMissingCredential):
		return "Search is not configured. Paste a YouTube URL instead.", true
	default:
		return "", false
	}
}

// Response helpers.

// respondUseCaseError answers known use case errors with a red embed and
// hands anything else back to the bot's generic error response.
func respondUseCaseError(r bot.Responder, err error) error {
	if message, ok := errorMessage(err); ok {
		return respondError(r, message)
	}
	return err
}

func respondSuccess(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Description: message,
					Color:       colorSuccess,
				},
			},
		},
	})
}

func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
		},
	})
}

func editError(r bot.Responder, message string) error {
	return editEmbed(r, &discordgo.MessageEmbed{
		Title:       "Error",
		Description: message,
		Color:       colorError,
	})
}

func editEmbed(r bot.Responder, embed *discordgo.MessageEmbed) error {
	embeds := []*discordgo.MessageEmbed{embed}
	return r.Edit(&discordgo.WebhookEdit{Embeds: &embeds})
}

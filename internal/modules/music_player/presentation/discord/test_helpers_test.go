package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/usecases"
)

const (
	testGuildID   = "100"
	testChannelID = "200"
	testUserID    = "300"
	testVoiceID   = snowflake.ID(400)
)

// fakeController records calls and returns canned results.
type fakeController struct {
	mu    sync.Mutex
	calls []string

	enqueueInput  usecases.EnqueueInput
	enqueueOutput *usecases.EnqueueOutput
	controlInput  usecases.ControlInput
	shuffleCount  int

	queue      []usecases.QueueEntry
	nowPlaying *usecases.QueueEntry

	err error
}

func (f *fakeController) record(call string, input usecases.ControlInput) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	f.controlInput = input
}

func (f *fakeController) lastCall() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeController) Enqueue(
	_ context.Context,
	input usecases.EnqueueInput,
) (*usecases.EnqueueOutput, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "enqueue")
	f.enqueueInput = input
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return f.enqueueOutput, nil
}

func (f *fakeController) Skip(
	_ context.Context,
	input usecases.ControlInput,
) (*usecases.SkipOutput, error) {
	f.record("skip", input)
	if f.err != nil {
		return nil, f.err
	}
	return &usecases.SkipOutput{}, nil
}

func (f *fakeController) Stop(
	_ context.Context,
	input usecases.ControlInput,
) (*usecases.StopOutput, error) {
	f.record("stop", input)
	if f.err != nil {
		return nil, f.err
	}
	return &usecases.StopOutput{}, nil
}

func (f *fakeController) Shuffle(
	_ context.Context,
	input usecases.ControlInput,
) (*usecases.ShuffleOutput, error) {
	f.record("shuffle", input)
	if f.err != nil {
		return nil, f.err
	}
	return &usecases.ShuffleOutput{Count: f.shuffleCount}, nil
}

func (f *fakeController) Pause(_ context.Context, input usecases.ControlInput) error {
	f.record("pause", input)
	return f.err
}

func (f *fakeController) Resume(_ context.Context, input usecases.ControlInput) error {
	f.record("resume", input)
	return f.err
}

func (f *fakeController) Leave(_ context.Context, input usecases.ControlInput) error {
	f.record("leave", input)
	return f.err
}

func (f *fakeController) Queue(snowflake.ID) []usecases.QueueEntry {
	return f.queue
}

func (f *fakeController) NowPlaying(snowflake.ID) *usecases.QueueEntry {
	return f.nowPlaying
}

type fakeResolver struct {
	ref    usecases.MediaRef
	err    error
	called bool
}

func (f *fakeResolver) ResolveMediaRef(context.Context, string) (usecases.MediaRef, error) {
	f.called = true
	return f.ref, f.err
}

type fakeVoiceState struct {
	channelID snowflake.ID
	err       error
}

func (f *fakeVoiceState) GetUserVoiceChannel(snowflake.ID, snowflake.ID) (snowflake.ID, error) {
	return f.channelID, f.err
}

type fakeSuggester struct {
	suggestions []ports.Suggestion
	query       string
}

func (f *fakeSuggester) Suggest(_ context.Context, partial string) []ports.Suggestion {
	f.query = partial
	return f.suggestions
}

func commandInteraction(
	name string,
	options ...*discordgo.ApplicationCommandInteractionDataOption,
) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionApplicationCommand,
			GuildID:   testGuildID,
			ChannelID: testChannelID,
			Member:    &discordgo.Member{User: &discordgo.User{ID: testUserID}},
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    name,
				Options: options,
			},
		},
	}
}

func componentInteraction(customID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionMessageComponent,
			GuildID:   testGuildID,
			ChannelID: testChannelID,
			Member:    &discordgo.Member{User: &discordgo.User{ID: testUserID}},
			Data: discordgo.MessageComponentInteractionData{
				CustomID:      customID,
				ComponentType: discordgo.ButtonComponent,
			},
		},
	}
}

func stringOption(name, value string, focused bool) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:    name,
		Type:    discordgo.ApplicationCommandOptionString,
		Value:   value,
		Focused: focused,
	}
}

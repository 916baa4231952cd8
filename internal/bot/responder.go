package bot

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Responder provides an abstraction for responding to Discord interactions.
// This interface enables testing handlers without a live Discord connection.
type Responder interface {
	// Respond sends the initial response to an interaction.
	Respond(response *discordgo.InteractionResponse) error

	// Edit replaces the initial response, typically after a deferred response.
	Edit(edit *discordgo.WebhookEdit) error
}

// DiscordResponder implements Responder using a live Discord session.
type DiscordResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction

	mu        sync.Mutex
	responded bool
}

// NewDiscordResponder creates a new DiscordResponder.
func NewDiscordResponder(s *discordgo.Session, i *discordgo.Interaction) *DiscordResponder {
	return &DiscordResponder{
		session:     s,
		interaction: i,
	}
}

// Respond sends a response to the interaction via Discord API.
func (r *DiscordResponder) Respond(response *discordgo.InteractionResponse) error {
	if err := r.session.InteractionRespond(r.interaction, response); err != nil {
		return err
	}

	r.mu.Lock()
	r.responded = true
	r.mu.Unlock()

	return nil
}

// Edit edits the original interaction response via Discord API.
func (r *DiscordResponder) Edit(edit *discordgo.WebhookEdit) error {
	_, err := r.session.InteractionResponseEdit(r.interaction, edit)
	return err
}

// Responded reports whether an initial response has been sent.
func (r *DiscordResponder) Responded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.responded
}

// MockResponder is a test double for Responder.
type MockResponder struct {
	LastResponse *discordgo.InteractionResponse
	LastEdit     *discordgo.WebhookEdit
	Err          error
}

// Respond records the response for testing.
func (m *MockResponder) Respond(response *discordgo.InteractionResponse) error {
	m.LastResponse = response
	return m.Err
}

// Edit records the edit for testing.
func (m *MockResponder) Edit(edit *discordgo.WebhookEdit) error {
	m.LastEdit = edit
	return m.Err
}

// Embeds returns the embeds of the latest edit, or of the initial response if nothing was edited.
func (m *MockResponder) Embeds() []*discordgo.MessageEmbed {
	if m.LastEdit != nil && m.LastEdit.Embeds != nil {
		return *m.LastEdit.Embeds
	}
	if m.LastResponse != nil && m.LastResponse.Data != nil {
		return m.LastResponse.Data.Embeds
	}
	return nil
}

package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
	"github.com/sglre6355/jukebot/internal/bot"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
)

// Discord drops autocomplete responses after three seconds.
const autocompleteTimeout = 2500 * time.Millisecond

// minAutocompleteQuery is the shortest input worth searching for.
const minAutocompleteQuery = 2

// Suggester returns autocomplete suggestions for a partial query.
type Suggester interface {
	Suggest(ctx context.Context, partial string) []ports.Suggestion
}

// AutocompleteHandler handles autocomplete requests.
type AutocompleteHandler struct {
	suggester Suggester
}

// NewAutocompleteHandler creates a new AutocompleteHandler.
func NewAutocompleteHandler(suggester Suggester) *AutocompleteHandler {
	return &AutocompleteHandler{
		suggester: suggester,
	}
}

// HandlePlay handles autocomplete for the play command.
func (h *AutocompleteHandler) HandlePlay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "query" && opt.Focused {
			query = opt.StringValue()
			break
		}
	}

	// Don't search for very short queries
	if len([]rune(query)) < minAutocompleteQuery {
		return respondChoices(r, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), autocompleteTimeout)
	defer cancel()

	suggestions := h.suggester.Suggest(ctx, query)

	return respondChoices(r, lo.Map(suggestions, func(s ports.Suggestion, _ int) *discordgo.ApplicationCommandOptionChoice {
		return &discordgo.ApplicationCommandOptionChoice{
			Name:  s.Name,
			Value: s.Value,
		}
	}))
}

func respondChoices(r bot.Responder, choices []*discordgo.ApplicationCommandOptionChoice) error {
	if choices == nil {
		choices = []*discordgo.ApplicationCommandOptionChoice{}
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
}

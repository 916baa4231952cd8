package bot

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/bwmarrin/discordgo"
)

// Bot manages the Discord bot lifecycle and module coordination.
type Bot struct {
	config            *Config
	session           *discordgo.Session
	modules           []Module
	handlers          map[string]InteractionHandler
	componentHandlers map[string]InteractionHandler
}

// NewBot creates a new Bot instance with the given configuration.
func NewBot(cfg *Config) *Bot {
	return &Bot{
		config:            cfg,
		modules:           make([]Module, 0),
		handlers:          make(map[string]InteractionHandler),
		componentHandlers: make(map[string]InteractionHandler),
	}
}

// LoadModules loads modules from the global registry.
func (b *Bot) LoadModules() {
	b.modules = Modules()
}

// Start connects to Discord, initializes modules, and registers commands.
// The session is opened before modules are initialized because some modules
// need the bot's own user ID.
func (b *Bot) Start() error {
	if err := b.loadModuleConfigs(); err != nil {
		return fmt.Errorf("failed to load module config: %w", err)
	}

	// Create Discord session
	session, err := discordgo.New("Bot " + b.config.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages
	b.session = session

	// Open connection
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	// Initialize modules
	if err := b.initModules(); err != nil {
		return fmt.Errorf("failed to initialize modules: %w", err)
	}

	// Build handler maps
	b.buildHandlerMap()

	// Register interaction handler
	b.session.AddHandler(b.handleInteraction)

	// Register module event handlers
	b.registerEventHandlers()

	// Register commands
	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	slog.Info("started bot",
		"user_id", b.session.State.User.ID,
		"username", b.session.State.User.Username,
	)

	return nil
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() error {
	// Shutdown modules
	for _, mod := range b.modules {
		if err := mod.Shutdown(); err != nil {
			slog.Warn("failed to shutdown module", "module", mod.Name(), "error", err)
		}
	}

	// Close Discord session
	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// loadModuleConfigs loads configuration for modules that implement ConfigurableModule.
func (b *Bot) loadModuleConfigs() error {
	for _, mod := range b.modules {
		configurable, ok := mod.(ConfigurableModule)
		if !ok {
			continue
		}
		if err := configurable.LoadConfig(); err != nil {
			return fmt.Errorf("failed to load %s config: %w", mod.Name(), err)
		}
	}
	return nil
}

// initModules initializes all loaded modules.
func (b *Bot) initModules() error {
	deps := ModuleDependencies{
		Session: b.session,
	}

	for _, mod := range b.modules {
		if err := mod.Init(deps); err != nil {
			return fmt.Errorf("failed to initialize %s module: %w", mod.Name(), err)
		}
		slog.Debug("initialized module", "module", mod.Name())
	}

	moduleNames := make([]string, len(b.modules))
	for i, mod := range b.modules {
		moduleNames[i] = mod.Name()
	}
	slog.Info("initialized modules", "modules", moduleNames)

	return nil
}

// buildHandlerMap builds the command name and component custom ID to handler mappings.
func (b *Bot) buildHandlerMap() {
	for _, mod := range b.modules {
		maps.Copy(b.handlers, mod.CommandHandlers())
		if components, ok := mod.(ComponentModule); ok {
			maps.Copy(b.componentHandlers, components.ComponentHandlers())
		}
	}
}

// registerEventHandlers registers all module event handlers with the session.
func (b *Bot) registerEventHandlers() {
	for _, mod := range b.modules {
		for _, handler := range mod.EventHandlers() {
			b.session.AddHandler(handler)
		}
	}
}

// collectCommands gathers all commands from loaded modules.
func (b *Bot) collectCommands() []*discordgo.ApplicationCommand {
	var commands []*discordgo.ApplicationCommand
	for _, mod := range b.modules {
		commands = append(commands, mod.Commands()...)
	}
	return commands
}

// registerCommands registers all module commands with Discord.
func (b *Bot) registerCommands() error {
	commands := b.collectCommands()

	for _, cmd := range commands {
		_, err := b.session.ApplicationCommandCreate(
			b.session.State.User.ID,
			"", // Empty string registers commands globally
			cmd,
		)
		if err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
		slog.Debug("registered command", "command", cmd.Name)
	}

	return nil
}

// Embed colors for responses.
const (
	colorYellow = 0xFFFF00
	colorRed    = 0xFF0000
)

// handleInteraction routes incoming interactions to the appropriate handler.
// Autocomplete interactions are left to module event handlers.
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var (
		name    string
		handler InteractionHandler
		ok      bool
	)

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name = i.ApplicationCommandData().Name
		handler, ok = b.handlers[name]
	case discordgo.InteractionMessageComponent:
		name = i.MessageComponentData().CustomID
		handler, ok = b.componentHandlers[name]
	default:
		return
	}

	responder := NewDiscordResponder(s, i.Interaction)

	if !ok {
		slog.Warn("found no handler for interaction", "interaction", name)
		b.respondWithEmbed(responder, "Unknown Command", "This command is not recognized.",
			colorYellow)
		return
	}

	if err := handler(s, i, responder); err != nil {
		slog.Error("failed to handle interaction", "interaction", name, "error", err)
		b.respondWithEmbed(responder, "Error", "An error occurred while processing your command.",
			colorRed)
	}
}

// respondWithEmbed sends an embed response to an interaction, editing the
// original response instead if the handler already sent one.
func (b *Bot) respondWithEmbed(
	r *DiscordResponder,
	title, description string,
	color int,
) {
	embeds := []*discordgo.MessageEmbed{
		{
			Title:       title,
			Description: description,
			Color:       color,
		},
	}

	var err error
	if r.Responded() {
		err = r.Edit(&discordgo.WebhookEdit{Embeds: &embeds})
	} else {
		err = r.Respond(&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds: embeds,
			},
		})
	}
	if err != nil {
		slog.Error("failed to send embed response", "error", err)
	}
}

package music_player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/bot"
	"github.com/sglre6355/jukebot/internal/cache"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
	"github.com/sglre6355/jukebot/internal/modules/music_player/infrastructure"
	"github.com/sglre6355/jukebot/internal/modules/music_player/presentation/discord"
)

func init() {
	bot.Register(&MusicPlayerModule{})
}

// Compile-time interface checks.
var (
	_ bot.ConfigurableModule     = (*MusicPlayerModule)(nil)
	_ bot.ComponentModule        = (*MusicPlayerModule)(nil)
	_ discord.PlaybackController = (*usecases.PlaybackController)(nil)
	_ discord.MediaRefResolver   = (*usecases.MediaResolver)(nil)
	_ discord.Suggester          = (*usecases.AutocompleteService)(nil)
)

// ErrNoSession is returned when the module is initialized without a Discord session.
var ErrNoSession = errors.New("music_player requires a Discord session")

// MusicPlayerModule provides music playback commands.
type MusicPlayerModule struct {
	config            *Config
	commandHandlers   *discord.CommandHandlers
	componentHandlers *discord.ComponentHandlers
	autocomplete      *discord.AutocompleteHandler
	eventHandlers     *discord.EventHandlers
	lavalink          *infrastructure.LavalinkBackend

	// Event-driven components
	eventBus            *infrastructure.ChannelEventBus
	notificationHandler *application.NotificationEventHandler
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"play":    m.commandHandlers.HandlePlay,
		"skip":    m.commandHandlers.HandleSkip,
		"stop":    m.commandHandlers.HandleStop,
		"shuffle": m.commandHandlers.HandleShuffle,
		"pause":   m.commandHandlers.HandlePause,
		"resume":  m.commandHandlers.HandleResume,
		"queue":   m.commandHandlers.HandleQueue,
		"leave":   m.commandHandlers.HandleLeave,
	}
}

// ComponentHandlers returns the playback button handlers for this module.
func (m *MusicPlayerModule) ComponentHandlers() map[string]bot.InteractionHandler {
	return m.componentHandlers.Handlers()
}

// EventHandlers returns the event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			m.handleVoiceServerUpdate(s, event)
		},
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.handleVoiceStateUpdate(s, event)
		},
		func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			m.handleInteractionCreate(s, i)
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil {
		return ErrNoSession
	}
	if m.config == nil {
		if err := m.LoadConfig(); err != nil {
			return err
		}
	}

	ctx := context.Background()

	botID, err := snowflake.Parse(deps.Session.State.User.ID)
	if err != nil {
		return fmt.Errorf("failed to parse bot ID: %w", err)
	}

	// Create event bus
	m.eventBus = infrastructure.NewChannelEventBus(infrastructure.DefaultEventBufferSize)

	// Create playback backend
	connector, sources, err := m.newBackend(ctx, deps.Session)
	if err != nil {
		return err
	}

	// Create infrastructure
	sessions := infrastructure.NewSessionRegistry()
	voiceState := infrastructure.NewVoiceStateProvider(deps.Session.State)
	notifier := infrastructure.NewNotifier(deps.Session)

	resolver, err := NewMediaResolver(ctx, m.config)
	if err != nil {
		return err
	}

	// Create services
	controller := usecases.NewPlaybackController(sessions, connector, sources, m.eventBus)
	autocomplete := usecases.NewAutocompleteService(
		infrastructure.NewYouTubeMusicSuggestions(),
		infrastructure.NewYouTubeSuggestions(),
	)

	// Register application event handlers
	m.notificationHandler = application.NewNotificationEventHandler(m.eventBus, notifier)
	if err := m.notificationHandler.Start(); err != nil {
		return err
	}

	// Create presentation handlers
	m.commandHandlers = discord.NewCommandHandlers(controller, resolver, voiceState)
	m.componentHandlers = discord.NewComponentHandlers(controller)
	m.autocomplete = discord.NewAutocompleteHandler(autocomplete)
	m.eventHandlers = discord.NewEventHandlers(botID, controller)

	slog.Info("music_player module initialized",
		"backend", m.config.PlayerBackend,
		"search", m.config.YouTubeAPIKey != "",
	)

	return nil
}

// newBackend creates the voice connector and source resolver for the configured backend.
func (m *MusicPlayerModule) newBackend(
	ctx context.Context,
	session *discordgo.Session,
) (ports.VoiceConnector, ports.SourceResolver, error) {
	switch m.config.PlayerBackend {
	case BackendLavalink:
		backend, err := infrastructure.NewLavalinkBackend(ctx, session, infrastructure.LavalinkConfig{
			Address:  m.config.LavalinkAddress,
			Password: m.config.LavalinkPassword,
			Secure:   m.config.LavalinkSecure,
		})
		if err != nil {
			return nil, nil, err
		}
		m.lavalink = backend
		return backend, backend, nil

	default:
		connector := infrastructure.NewDiscordVoiceConnector(session, infrastructure.DiscordVoiceConfig{
			FFmpegPath:  m.config.FFmpegPath,
			OpusBitrate: m.config.OpusBitrate,
		})
		return connector, infrastructure.NewYtdlpSourceResolver(), nil
	}
}

// NewMediaResolver builds the search-backed resolver from cfg.
// Without an API key the resolver still resolves URLs but searches fail with
// usecases.ErrMissingCredential.
func NewMediaResolver(ctx context.Context, cfg *Config) (*usecases.MediaResolver, error) {
	results := cache.NewTTL[string, domain.MediaID](cfg.SearchCacheSize, cfg.SearchCacheTTL)

	if cfg.YouTubeAPIKey == "" {
		slog.Warn("YOUTUBE_API_KEY is not set, search is disabled")
		return usecases.NewMediaResolver(nil, results), nil
	}

	provider, err := infrastructure.NewYouTubeSearchProvider(ctx, infrastructure.YouTubeSearchConfig{
		APIKey:    cfg.YouTubeAPIKey,
		RateLimit: cfg.SearchRateLimit,
		Burst:     cfg.SearchBurst,
	})
	if err != nil {
		return nil, err
	}

	return usecases.NewMediaResolver(provider, results), nil
}

// Shutdown cleans up module resources.
func (m *MusicPlayerModule) Shutdown() error {
	// Close event bus
	if m.eventBus != nil {
		m.eventBus.Close()
	}

	// Close Lavalink connection
	if m.lavalink != nil {
		m.lavalink.Close()
	}

	return nil
}

// Event handlers.

func (m *MusicPlayerModule) handleVoiceServerUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceServerUpdate,
) {
	if m.lavalink != nil {
		m.lavalink.OnVoiceServerUpdate(event)
	}
}

func (m *MusicPlayerModule) handleVoiceStateUpdate(
	s *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	if m.lavalink != nil {
		m.lavalink.OnVoiceStateUpdate(event)
	}
	if m.eventHandlers != nil {
		m.eventHandlers.HandleVoiceStateUpdate(s, event)
	}
}

func (m *MusicPlayerModule) handleInteractionCreate(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
) {
	if i.Type != discordgo.InteractionApplicationCommandAutocomplete || m.autocomplete == nil {
		return
	}

	if i.ApplicationCommandData().Name != "play" {
		return
	}

	responder := bot.NewDiscordResponder(s, i.Interaction)
	if err := m.autocomplete.HandlePlay(s, i, responder); err != nil {
		slog.Warn("failed to respond to autocomplete", "guild", i.GuildID, "error", err)
	}
}

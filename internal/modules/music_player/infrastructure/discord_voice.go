package infrastructure

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"gopkg.in/hraban/opus.v2"
)

// Voice join flags used by both backends. The bot joins unmuted and undeafened.
const (
	voiceSelfMute = false
	voiceSelfDeaf = false
)

// DiscordVoiceConfig configures the local playback pipeline.
type DiscordVoiceConfig struct {
	FFmpegPath  string
	OpusBitrate int
}

// DiscordVoiceConnector joins voice channels through the gateway and plays
// audio by encoding it locally.
type DiscordVoiceConnector struct {
	session *discordgo.Session
	decoder Decoder
	bitrate int
}

// NewDiscordVoiceConnector creates a new DiscordVoiceConnector.
func NewDiscordVoiceConnector(session *discordgo.Session, cfg DiscordVoiceConfig) *DiscordVoiceConnector {
	return &DiscordVoiceConnector{
		session: session,
		decoder: NewFFmpegDecoder(cfg.FFmpegPath),
		bitrate: cfg.OpusBitrate,
	}
}

// Connect joins the voice channel and returns a player bound to the new connection.
func (c *DiscordVoiceConnector) Connect(
	_ context.Context,
	guildID, channelID snowflake.ID,
) (ports.VoiceConnection, ports.AudioPlayer, error) {
	encoder, err := opus.NewEncoder(pcmSampleRate, pcmChannels, opus.AppAudio)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}
	if c.bitrate > 0 {
		if err := encoder.SetBitrate(c.bitrate); err != nil {
			return nil, nil, fmt.Errorf("failed to set opus bitrate: %w", err)
		}
	}

	// ChannelVoiceJoin blocks until the voice handshake completes or times out.
	vc, err := c.session.ChannelVoiceJoin(guildID.String(), channelID.String(), voiceSelfMute, voiceSelfDeaf)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to join voice channel: %w", err)
	}

	slog.Info("joined voice channel", "guild", guildID, "channel", channelID)

	conn := &discordVoiceConnection{vc: vc, guildID: guildID, channelID: channelID}
	player := NewVoicePlayer(c.decoder, encoder, vc.OpusSend, vc.Speaking)

	return conn, player, nil
}

type discordVoiceConnection struct {
	vc        *discordgo.VoiceConnection
	guildID   snowflake.ID
	channelID snowflake.ID
}

func (c *discordVoiceConnection) ChannelID() snowflake.ID {
	return c.channelID
}

func (c *discordVoiceConnection) Disconnect(context.Context) error {
	if err := c.vc.Disconnect(); err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}

	slog.Info("left voice channel", "guild", c.guildID, "channel", c.channelID)

	return nil
}

// Ensure DiscordVoiceConnector implements ports.VoiceConnector.
var _ ports.VoiceConnector = (*DiscordVoiceConnector)(nil)

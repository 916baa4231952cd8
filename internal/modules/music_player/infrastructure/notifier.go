package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorRed     = 0xE74C3C
	colorYouTube = 0xFF0000
	colorGray    = 0x95A5A6
)

const (
	defaultThumbnailBaseURL = "https://img.youtube.com/vi"
	youtubeIconURL          = "https://www.youtube.com/s/desktop/favicon.ico"
)

// thumbnailQualities are tried from best to worst.
var thumbnailQualities = []string{"maxresdefault", "sddefault", "hqdefault", "mqdefault"}

var controlButtons = map[domain.PlaybackControl]struct {
	label string
	style discordgo.ButtonStyle
}{
	domain.ControlPause:   {label: "Pause", style: discordgo.SecondaryButton},
	domain.ControlResume:  {label: "Resume", style: discordgo.SuccessButton},
	domain.ControlSkip:    {label: "Skip", style: discordgo.PrimaryButton},
	domain.ControlShuffle: {label: "Shuffle", style: discordgo.SecondaryButton},
	domain.ControlStop:    {label: "Stop", style: discordgo.DangerButton},
}

// Notifier sends notifications to Discord channels.
type Notifier struct {
	session          *discordgo.Session
	httpClient       *http.Client
	thumbnailBaseURL string
}

// NewNotifier creates a new Notifier.
func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{
		session: session,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		thumbnailBaseURL: defaultThumbnailBaseURL,
	}
}

// SendQueued sends an "Added to Queue" embed to the channel.
func (n *Notifier) SendQueued(channelID snowflake.ID, entry domain.QueueEntry, position int) error {
	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), queuedEmbed(entry, position))
	return err
}

// SendNowPlaying sends a "Now Playing" embed with control buttons to the channel.
func (n *Notifier) SendNowPlaying(
	channelID snowflake.ID,
	entry domain.QueueEntry,
	controls []domain.PlaybackControl,
) error {
	embed := nowPlayingEmbed(entry)

	if id := entry.MediaRef.YouTubeID(); id != "" {
		if thumbnailURL := n.youTubeThumbnail(id); thumbnailURL != "" {
			embed.Image = &discordgo.MessageEmbedImage{URL: thumbnailURL}
		}
	}

	if entry.RequesterID != 0 {
		if member := n.lookupMember(channelID, entry.RequesterID); member != nil {
			embed.Footer = &discordgo.MessageEmbedFooter{
				Text:    fmt.Sprintf("Requested by %s", getDisplayName(member)),
				IconURL: member.User.AvatarURL(""),
			}
		}
	}

	_, err := n.session.ChannelMessageSendComplex(channelID.String(), &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: controlComponents(controls),
	})
	return err
}

// SendQueueEnded tells the channel that the queue has run out.
func (n *Notifier) SendQueueEnded(channelID snowflake.ID) error {
	embed := &discordgo.MessageEmbed{
		Description: "Queue finished. Use `/play` to add more tracks.",
		Color:       colorGray,
	}

	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	return err
}

// SendError sends an error message embed to the channel.
func (n *Notifier) SendError(channelID snowflake.ID, message string) error {
	embed := &discordgo.MessageEmbed{
		Description: message,
		Color:       colorRed,
	}

	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	return err
}

func queuedEmbed(entry domain.QueueEntry, position int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name: "Added to Queue",
		},
		Description: fmt.Sprintf("%s\nPosition in queue: **%d**", entry.MediaRef, position),
	}
}

func nowPlayingEmbed(entry domain.QueueEntry) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name: "Now Playing",
		},
		Description: entry.MediaRef.String(),
		Color:       colorYouTube,
		Timestamp:   entry.EnqueuedAt.UTC().Format(time.RFC3339),
	}

	if domain.IsURL(entry.MediaRef.String()) {
		embed.URL = entry.MediaRef.String()
	}
	if entry.MediaRef.YouTubeID() != "" {
		embed.Author.IconURL = youtubeIconURL
	}

	return embed
}

// controlComponents renders the controls as a single row of buttons.
func controlComponents(controls []domain.PlaybackControl) []discordgo.MessageComponent {
	var buttons []discordgo.MessageComponent
	for _, control := range controls {
		def, ok := controlButtons[control]
		if !ok {
			continue
		}
		buttons = append(buttons, discordgo.Button{
			Label:    def.label,
			Style:    def.style,
			CustomID: control.CustomID(),
		})
	}

	if len(buttons) == 0 {
		return nil
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: buttons},
	}
}

// lookupMember resolves the requester through the channel's guild.
// The state cache is consulted first; nil means the footer is omitted.
func (n *Notifier) lookupMember(channelID, userID snowflake.ID) *discordgo.Member {
	channel, err := n.session.State.Channel(channelID.String())
	if err != nil || channel.GuildID == "" {
		return nil
	}

	member, err := n.session.State.Member(channel.GuildID, userID.String())
	if err == nil && member.User != nil {
		return member
	}

	member, err = n.session.GuildMember(channel.GuildID, userID.String())
	if err != nil {
		slog.Debug("failed to fetch requester", "guild", channel.GuildID, "user", userID, "error", err)
		return nil
	}
	return member
}

// getDisplayName returns the effective display name for a guild member.
// Priority: guild nickname > global display name > username.
func getDisplayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}

// youTubeThumbnail tries to find the highest quality YouTube thumbnail available.
func (n *Notifier) youTubeThumbnail(videoID domain.MediaID) string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, quality := range thumbnailQualities {
		url := fmt.Sprintf("%s/%s/%s.jpg", n.thumbnailBaseURL, videoID, quality)
		if n.urlExists(ctx, url) {
			return url
		}
	}

	return ""
}

// urlExists checks if a URL returns a successful response using a HEAD request.
func (n *Notifier) urlExists(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// Ensure Notifier implements ports.NotificationSender.
var _ ports.NotificationSender = (*Notifier)(nil)

package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// Discord message bodies cap at 4096 characters for an embed description.
const discordEmbedLimit = 4096

type DiscordNotifier struct {
	name      string
	botToken  string
	channelID string
	session   *discordgo.Session
}

func NewDiscordNotifier(name, botToken, channelID string) (*DiscordNotifier, error) {
	if botToken == "" {
		return nil, fmt.Errorf("discord notifier: bot_token is required")
	}
	if channelID == "" {
		return nil, fmt.Errorf("discord notifier: channel_id is required")
	}

	return &DiscordNotifier{
		name:      name,
		botToken:  botToken,
		channelID: channelID,
	}, nil
}

func (d *DiscordNotifier) Name() string {
	return d.name
}

func (d *DiscordNotifier) Initialize(ctx context.Context) error {
	session, err := discordgo.New("Bot " + d.botToken)
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}

	d.session = session
	slog.Info("discord notifier initialized", "notifier", d.name, "channel", d.channelID)
	return nil
}

func (d *DiscordNotifier) Publish(ctx context.Context, summary *Summary) error {
	body := summary.Prose
	if len(body) > discordEmbedLimit {
		body = body[:discordEmbedLimit-3] + "..."
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("ETF trend summary — %s (%s)", summary.RunDate, summary.Workflow),
		Description: body,
		Footer:      &discordgo.MessageEmbedFooter{Text: provenanceLine(summary)},
	}

	if _, err := d.session.ChannelMessageSendEmbed(d.channelID, embed); err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}

	slog.Info("summary published to discord", "notifier", d.name, "channel", d.channelID)
	return nil
}

func provenanceLine(summary *Summary) string {
	line := "sources:"
	for _, p := range summary.Provenance {
		line += " " + p.URL
	}
	return line
}

func (d *DiscordNotifier) Shutdown(ctx context.Context) error {
	if d.session != nil {
		return d.session.Close()
	}
	return nil
}

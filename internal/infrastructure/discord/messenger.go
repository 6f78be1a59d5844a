package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/example/voice-notifier/internal/notification"
)

// Messenger posts notices as embeds.
type Messenger struct {
	session *discordgo.Session
}

// NewMessenger creates a messenger posting through s.
func NewMessenger(s *discordgo.Session) *Messenger {
	return &Messenger{session: s}
}

// Send posts the notice as an embed to the text channel.
func (m *Messenger) Send(ctx context.Context, textChannelID string, n notification.Notice) error {
	ch, err := m.session.State.Channel(textChannelID)
	if err != nil {
		ch, err = m.session.Channel(textChannelID, discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("resolve channel: %w", err)
		}
	}

	if _, err := m.session.ChannelMessageSendEmbed(ch.ID, BuildEmbed(n), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send embed: %w", err)
	}
	return nil
}

// BuildEmbed renders a notice as a Discord embed.
func BuildEmbed(n notification.Notice) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: n.Title,
		Color: n.Color,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    n.AuthorName,
			IconURL: n.AuthorIconURL,
		},
	}
	if !n.Timestamp.IsZero() {
		embed.Timestamp = n.Timestamp.Format(time.RFC3339)
	}
	return embed
}

var _ notification.Messenger = (*Messenger)(nil)

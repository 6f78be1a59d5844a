package notification

import (
	"fmt"
	"time"

	"github.com/example/voice-notifier/internal/voice"
)

// JoinColor is the embed accent used for join notices.
const JoinColor = 0x5cb85c

// Notice is a rendered message delivered to a text channel.
type Notice struct {
	AuthorName    string
	AuthorIconURL string
	Title         string
	Color         int
	Timestamp     time.Time
}

// BuildJoinNotice renders the notice posted when someone starts a call.
func BuildJoinNotice(e voice.Event, avatarURL string) Notice {
	return Notice{
		AuthorName:    e.DisplayName,
		AuthorIconURL: avatarURL,
		Title:         fmt.Sprintf("<#%s> で通話を開始しました！", e.ChannelID),
		Color:         JoinColor,
		Timestamp:     e.OccurredAt,
	}
}

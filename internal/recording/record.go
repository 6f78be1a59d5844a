package recording

import (
	"fmt"
	"time"

	"github.com/example/voice-notifier/internal/asset"
	"github.com/example/voice-notifier/internal/voice"
)

// TimestampLayout renders second precision with an explicit numeric offset.
const TimestampLayout = "2006-01-02T15:04:05-07:00"

// JST is the fixed civil offset history timestamps are written in,
// independent of the host timezone.
var JST = time.FixedZone("JST", 9*60*60)

// Record is one row of durable event history.
type Record struct {
	Title       string
	UserName    string
	ChannelName string
	GuildName   string
	KindLabel   string
	Timestamp   string
	Icon        asset.Ref
}

// BuildRecord renders an event into a history row.
func BuildRecord(e voice.Event, icon asset.Ref) Record {
	label := e.Kind.Label()
	return Record{
		Title:       fmt.Sprintf("%sが%sに%s", e.DisplayName, e.ChannelName, label),
		UserName:    e.DisplayName,
		ChannelName: e.ChannelName,
		GuildName:   e.GuildName,
		KindLabel:   label,
		Timestamp:   FormatTimestamp(e.OccurredAt),
		Icon:        icon,
	}
}

// FormatTimestamp renders t in JST, e.g. 2025-04-01T21:00:00+09:00.
func FormatTimestamp(t time.Time) string {
	return t.In(JST).Format(TimestampLayout)
}

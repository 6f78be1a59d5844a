package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/example/voice-notifier/internal/voice"
)

// Directory resolves guild and channel names from ids.
type Directory interface {
	GuildName(guildID string) string
	ChannelName(channelID string) string
}

// StateDirectory reads names from the session's state cache, falling back to
// the REST API on a miss.
type StateDirectory struct {
	session *discordgo.Session
}

// NewStateDirectory creates a directory backed by the session state.
func NewStateDirectory(s *discordgo.Session) *StateDirectory {
	return &StateDirectory{session: s}
}

func (d *StateDirectory) GuildName(guildID string) string {
	if g, err := d.session.State.Guild(guildID); err == nil {
		return g.Name
	}
	if g, err := d.session.Guild(guildID); err == nil {
		return g.Name
	}
	return ""
}

func (d *StateDirectory) ChannelName(channelID string) string {
	if channelID == "" {
		return ""
	}
	if ch, err := d.session.State.Channel(channelID); err == nil {
		return ch.Name
	}
	if ch, err := d.session.Channel(channelID); err == nil {
		return ch.Name
	}
	return ""
}

// ToSnapshot converts a gateway voice state. A nil state (no previous state
// known) yields a disconnected snapshot for the given user.
func ToSnapshot(vs *discordgo.VoiceState, userID, guildID string, dir Directory) voice.Snapshot {
	s := voice.Snapshot{UserID: userID, GuildID: guildID}
	if vs == nil {
		s.GuildName = dir.GuildName(guildID)
		return s
	}

	s.ChannelID = vs.ChannelID
	s.Muted = vs.SelfMute || vs.Mute
	s.Streaming = vs.SelfStream
	s.VideoOn = vs.SelfVideo
	s.GuildName = dir.GuildName(guildID)
	s.ChannelName = dir.ChannelName(vs.ChannelID)

	if m := vs.Member; m != nil && m.User != nil {
		s.DisplayName = m.DisplayName()
		s.AvatarURL = m.AvatarURL("")
	}
	return s
}

// Transition converts a VoiceStateUpdate into its before/after snapshots.
func Transition(v *discordgo.VoiceStateUpdate, dir Directory) (voice.Snapshot, voice.Snapshot) {
	after := ToSnapshot(v.VoiceState, v.UserID, v.GuildID, dir)
	before := ToSnapshot(v.BeforeUpdate, v.UserID, v.GuildID, dir)
	return before, after
}

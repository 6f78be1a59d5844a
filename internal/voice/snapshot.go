package voice

// Snapshot is the voice presence of a single member at one point in time.
// An empty ChannelID means the member is not connected to any voice channel.
type Snapshot struct {
	UserID      string
	DisplayName string
	AvatarURL   string
	GuildID     string
	GuildName   string
	ChannelID   string
	ChannelName string
	Muted       bool
	Streaming   bool
	VideoOn     bool
}

// InChannel reports whether the snapshot is connected to a voice channel.
func (s Snapshot) InChannel() bool {
	return s.ChannelID != ""
}

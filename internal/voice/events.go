package voice

import "time"

// Kind identifies a semantic voice event.
type Kind string

const (
	KindJoin      Kind = "Join"
	KindLeave     Kind = "Leave"
	KindMoveOut   Kind = "MoveOut"
	KindMoveIn    Kind = "MoveIn"
	KindMuteOn    Kind = "MuteOn"
	KindMuteOff   Kind = "MuteOff"
	KindStreamOn  Kind = "StreamOn"
	KindStreamOff Kind = "StreamOff"
	KindVideoOn   Kind = "VideoOn"
	KindVideoOff  Kind = "VideoOff"
)

var kindLabels = map[Kind]string{
	KindJoin:      "入室",
	KindLeave:     "退出",
	KindMoveOut:   "移動(退出)",
	KindMoveIn:    "移動(入室)",
	KindMuteOn:    "ミュート",
	KindMuteOff:   "ミュート解除",
	KindStreamOn:  "配信開始",
	KindStreamOff: "配信終了",
	KindVideoOn:   "カメラON",
	KindVideoOff:  "カメラOFF",
}

// Label returns the display label stored in the event history.
func (k Kind) Label() string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return string(k)
}

// Event is one classified occurrence derived from a transition.
type Event struct {
	Kind        Kind      `json:"kind"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	GuildID     string    `json:"guild_id"`
	GuildName   string    `json:"guild_name"`
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	AvatarURL   string    `json:"avatar_url"`
	OccurredAt  time.Time `json:"occurred_at"`
}

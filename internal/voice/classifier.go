package voice

import "time"

// Options selects which toggle diffs the classifier reports.
// Channel presence changes are always reported.
type Options struct {
	TrackMute   bool
	TrackStream bool
	TrackVideo  bool
}

// DefaultOptions tracks every supported toggle.
func DefaultOptions() Options {
	return Options{TrackMute: true, TrackStream: true, TrackVideo: true}
}

// Classifier turns before/after snapshot pairs into events.
type Classifier struct {
	opts Options
}

// NewClassifier creates a classifier with the given toggle tracking.
func NewClassifier(opts Options) *Classifier {
	return &Classifier{opts: opts}
}

// Classify returns the events implied by the transition from before to after,
// stamped with at. Channel presence events come first, followed by mute,
// stream and video toggles in that order.
func (c *Classifier) Classify(before, after Snapshot, at time.Time) []Event {
	var events []Event

	switch {
	case !before.InChannel() && after.InChannel():
		events = append(events, newEvent(KindJoin, after, after, at))
	case before.InChannel() && !after.InChannel():
		events = append(events, newEvent(KindLeave, after, before, at))
	case before.InChannel() && after.InChannel() && before.ChannelID != after.ChannelID:
		events = append(events,
			newEvent(KindMoveOut, after, before, at),
			newEvent(KindMoveIn, after, after, at),
		)
	}

	target, ok := resolveChannel(before, after)
	if !ok {
		return events
	}

	if c.opts.TrackMute && before.Muted != after.Muted {
		events = append(events, newEvent(toggle(after.Muted, KindMuteOn, KindMuteOff), after, target, at))
	}
	if c.opts.TrackStream && before.Streaming != after.Streaming {
		events = append(events, newEvent(toggle(after.Streaming, KindStreamOn, KindStreamOff), after, target, at))
	}
	if c.opts.TrackVideo && before.VideoOn != after.VideoOn {
		events = append(events, newEvent(toggle(after.VideoOn, KindVideoOn, KindVideoOff), after, target, at))
	}

	return events
}

// resolveChannel picks the snapshot whose channel a toggle event refers to,
// preferring the after state.
func resolveChannel(before, after Snapshot) (Snapshot, bool) {
	if after.InChannel() {
		return after, true
	}
	if before.InChannel() {
		return before, true
	}
	return Snapshot{}, false
}

func toggle(on bool, onKind, offKind Kind) Kind {
	if on {
		return onKind
	}
	return offKind
}

// newEvent takes member identity from who and the channel from where.
// Identity falls back to where when who carries none, which happens when
// the gateway omits member data on a disconnect.
func newEvent(kind Kind, who, where Snapshot, at time.Time) Event {
	e := Event{
		Kind:        kind,
		UserID:      who.UserID,
		DisplayName: who.DisplayName,
		AvatarURL:   who.AvatarURL,
		GuildID:     who.GuildID,
		GuildName:   who.GuildName,
		ChannelID:   where.ChannelID,
		ChannelName: where.ChannelName,
		OccurredAt:  at,
	}
	if e.UserID == "" {
		e.UserID = where.UserID
	}
	if e.DisplayName == "" {
		e.DisplayName = where.DisplayName
	}
	if e.AvatarURL == "" {
		e.AvatarURL = where.AvatarURL
	}
	if e.GuildID == "" {
		e.GuildID = where.GuildID
	}
	if e.GuildName == "" {
		e.GuildName = where.GuildName
	}
	return e
}

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when removing a subscription that does not exist.
var ErrNotFound = errors.New("subscription not found")

// Subscription routes join notices for a voice channel to a text channel.
type Subscription struct {
	GuildID        string    `json:"guild_id"`
	VoiceChannelID string    `json:"voice_channel_id"`
	TextChannelID  string    `json:"text_channel_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// SubscriptionStore defines the interface for the notification registry
type SubscriptionStore interface {
	// Find returns every subscription for a voice channel
	Find(ctx context.Context, guildID, voiceChannelID string) ([]Subscription, error)

	// Add registers a subscription; adding an existing one is a no-op
	Add(ctx context.Context, sub Subscription) error

	// Remove deletes a subscription, returning ErrNotFound if absent
	Remove(ctx context.Context, sub Subscription) error

	// ListByGuild returns every subscription in a guild
	ListByGuild(ctx context.Context, guildID string) ([]Subscription, error)
}

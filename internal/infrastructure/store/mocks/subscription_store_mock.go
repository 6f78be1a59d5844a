package mocks

import (
	"context"
	"sync"

	"github.com/example/voice-notifier/internal/infrastructure/store"
)

// MockSubscriptionStore is a mock implementation of SubscriptionStore for testing
type MockSubscriptionStore struct {
	mu   sync.Mutex
	subs []store.Subscription

	// Error to return from Find, when set
	FindErr error

	// For tracking calls in tests
	FindCalls   []FindCall
	AddCalls    []store.Subscription
	RemoveCalls []store.Subscription
}

// FindCall records parameters passed to Find
type FindCall struct {
	GuildID        string
	VoiceChannelID string
}

// NewMockSubscriptionStore creates a new MockSubscriptionStore
func NewMockSubscriptionStore() *MockSubscriptionStore {
	return &MockSubscriptionStore{}
}

// Find returns subscriptions matching the voice channel
func (m *MockSubscriptionStore) Find(ctx context.Context, guildID, voiceChannelID string) ([]store.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FindCalls = append(m.FindCalls, FindCall{GuildID: guildID, VoiceChannelID: voiceChannelID})
	if m.FindErr != nil {
		return nil, m.FindErr
	}

	var result []store.Subscription
	for _, sub := range m.subs {
		if sub.GuildID == guildID && sub.VoiceChannelID == voiceChannelID {
			result = append(result, sub)
		}
	}
	return result, nil
}

// Add stores a subscription
func (m *MockSubscriptionStore) Add(ctx context.Context, sub store.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AddCalls = append(m.AddCalls, sub)
	for _, existing := range m.subs {
		if same(existing, sub) {
			return nil
		}
	}
	m.subs = append(m.subs, sub)
	return nil
}

// Remove deletes a subscription
func (m *MockSubscriptionStore) Remove(ctx context.Context, sub store.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RemoveCalls = append(m.RemoveCalls, sub)
	for i, existing := range m.subs {
		if same(existing, sub) {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// ListByGuild returns every subscription in a guild
func (m *MockSubscriptionStore) ListByGuild(ctx context.Context, guildID string) ([]store.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []store.Subscription
	for _, sub := range m.subs {
		if sub.GuildID == guildID {
			result = append(result, sub)
		}
	}
	return result, nil
}

// SetData seeds subscriptions directly for testing
func (m *MockSubscriptionStore) SetData(subs ...store.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, subs...)
}

// FindCallCount returns the number of Find calls so far
func (m *MockSubscriptionStore) FindCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.FindCalls)
}

func same(a, b store.Subscription) bool {
	return a.GuildID == b.GuildID && a.VoiceChannelID == b.VoiceChannelID && a.TextChannelID == b.TextChannelID
}

var _ store.SubscriptionStore = (*MockSubscriptionStore)(nil)

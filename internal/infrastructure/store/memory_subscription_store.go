package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

type subscriptionKey struct {
	guildID        string
	voiceChannelID string
	textChannelID  string
}

// MemorySubscriptionStore keeps subscriptions in process memory.
// It is used when no database is configured.
type MemorySubscriptionStore struct {
	mu   sync.RWMutex
	subs map[subscriptionKey]Subscription
	now  func() time.Time
}

// NewMemorySubscriptionStore creates a new in-memory subscription store
func NewMemorySubscriptionStore() *MemorySubscriptionStore {
	return &MemorySubscriptionStore{
		subs: make(map[subscriptionKey]Subscription),
		now:  time.Now,
	}
}

func keyOf(sub Subscription) subscriptionKey {
	return subscriptionKey{sub.GuildID, sub.VoiceChannelID, sub.TextChannelID}
}

func (s *MemorySubscriptionStore) Find(ctx context.Context, guildID, voiceChannelID string) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Subscription
	for k, sub := range s.subs {
		if k.guildID == guildID && k.voiceChannelID == voiceChannelID {
			result = append(result, sub)
		}
	}
	sortSubscriptions(result)
	return result, nil
}

func (s *MemorySubscriptionStore) Add(ctx context.Context, sub Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyOf(sub)
	if _, exists := s.subs[key]; exists {
		return nil
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.now()
	}
	s.subs[key] = sub
	return nil
}

func (s *MemorySubscriptionStore) Remove(ctx context.Context, sub Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyOf(sub)
	if _, exists := s.subs[key]; !exists {
		return ErrNotFound
	}
	delete(s.subs, key)
	return nil
}

func (s *MemorySubscriptionStore) ListByGuild(ctx context.Context, guildID string) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Subscription
	for k, sub := range s.subs {
		if k.guildID == guildID {
			result = append(result, sub)
		}
	}
	sortSubscriptions(result)
	return result, nil
}

func sortSubscriptions(subs []Subscription) {
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].VoiceChannelID != subs[j].VoiceChannelID {
			return subs[i].VoiceChannelID < subs[j].VoiceChannelID
		}
		return subs[i].TextChannelID < subs[j].TextChannelID
	})
}

var _ SubscriptionStore = (*MemorySubscriptionStore)(nil)

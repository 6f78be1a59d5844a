package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const subscriptionSchema = `
CREATE TABLE IF NOT EXISTS notifications (
	guild_id         TEXT        NOT NULL,
	voice_channel_id TEXT        NOT NULL,
	text_channel_id  TEXT        NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (guild_id, voice_channel_id, text_channel_id)
)`

// PostgresSubscriptionStore implements SubscriptionStore using PostgreSQL
type PostgresSubscriptionStore struct {
	db *sql.DB
}

// NewPostgresSubscriptionStore creates a new PostgreSQL subscription store
func NewPostgresSubscriptionStore(db *sql.DB) *PostgresSubscriptionStore {
	return &PostgresSubscriptionStore{db: db}
}

// Migrate creates the notifications table if it does not exist yet
func (s *PostgresSubscriptionStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, subscriptionSchema); err != nil {
		return fmt.Errorf("migrate notifications: %w", err)
	}
	return nil
}

func (s *PostgresSubscriptionStore) Find(ctx context.Context, guildID, voiceChannelID string) ([]Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guild_id, voice_channel_id, text_channel_id, created_at
		FROM notifications
		WHERE guild_id = $1 AND voice_channel_id = $2
		ORDER BY text_channel_id
	`, guildID, voiceChannelID)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	return scanSubscriptions(rows)
}

func (s *PostgresSubscriptionStore) Add(ctx context.Context, sub Subscription) error {
	createdAt := sub.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (guild_id, voice_channel_id, text_channel_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, voice_channel_id, text_channel_id) DO NOTHING
	`, sub.GuildID, sub.VoiceChannelID, sub.TextChannelID, createdAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return fmt.Errorf("insert subscription (%s): %w", pqErr.Code.Name(), err)
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (s *PostgresSubscriptionStore) Remove(ctx context.Context, sub Subscription) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM notifications
		WHERE guild_id = $1 AND voice_channel_id = $2 AND text_channel_id = $3
	`, sub.GuildID, sub.VoiceChannelID, sub.TextChannelID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresSubscriptionStore) ListByGuild(ctx context.Context, guildID string) ([]Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guild_id, voice_channel_id, text_channel_id, created_at
		FROM notifications
		WHERE guild_id = $1
		ORDER BY voice_channel_id, text_channel_id
	`, guildID)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	return scanSubscriptions(rows)
}

func scanSubscriptions(rows *sql.Rows) ([]Subscription, error) {
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		var sub Subscription
		if err := rows.Scan(&sub.GuildID, &sub.VoiceChannelID, &sub.TextChannelID, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

var _ SubscriptionStore = (*PostgresSubscriptionStore)(nil)

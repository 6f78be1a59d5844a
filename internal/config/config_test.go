package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "discord-token")

	cfg, err := Load("")

	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "discord-token", cfg.Discord.Token)
	assert.True(t, cfg.Discord.RegisterCommands)
	assert.Equal(t, "https://api.notion.com", cfg.Notion.BaseURL)
	assert.Equal(t, 3.0, cfg.Notion.RequestsPerSecond)
	assert.Equal(t, 30*time.Second, cfg.Notion.Timeout)
	assert.True(t, cfg.Tracking.Mute)
	assert.True(t, cfg.Tracking.CacheAvatars)
	assert.Equal(t, int64(8<<20), cfg.Asset.MaxBytes)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "discord-token")
	t.Setenv("NOTION_API_KEY", "legacy-key")
	t.Setenv("NOTION_DATABASE_ID", "db-123")
	t.Setenv("TRACK_STREAM", "false")
	t.Setenv("CACHE_AVATARS", "0")
	t.Setenv("DATABASE_URL", "postgres://localhost/voice")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.Notion.Token)
	assert.Equal(t, "db-123", cfg.Notion.DatabaseID)
	assert.True(t, cfg.Notion.Enabled())
	assert.False(t, cfg.Tracking.Stream)
	assert.True(t, cfg.Tracking.Video)
	assert.False(t, cfg.Tracking.CacheAvatars)
	assert.Equal(t, "postgres://localhost/voice", cfg.Database.URL)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
discord:
  token: file-token
  register_commands: false
notion:
  token: secret
  requests_per_second: 1.5
tracking:
  mute: false
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "file-token", cfg.Discord.Token)
	assert.False(t, cfg.Discord.RegisterCommands)
	assert.Equal(t, 1.5, cfg.Notion.RequestsPerSecond)
	assert.False(t, cfg.Notion.Enabled())
	assert.False(t, cfg.Tracking.Mute)
	assert.True(t, cfg.Tracking.Video)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate_RequiresDiscordToken(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Validate())
}

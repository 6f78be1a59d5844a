package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Discord  DiscordConfig  `koanf:"discord"`
	Notion   NotionConfig   `koanf:"notion"`
	Database DatabaseConfig `koanf:"database"`
	Tracking TrackingConfig `koanf:"tracking"`
	Asset    AssetConfig    `koanf:"asset"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

type DiscordConfig struct {
	Token            string `koanf:"token"`
	RegisterCommands bool   `koanf:"register_commands"`
}

type NotionConfig struct {
	Token             string        `koanf:"token"`
	DatabaseID        string        `koanf:"database_id"`
	BaseURL           string        `koanf:"base_url"`
	Version           string        `koanf:"version"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Timeout           time.Duration `koanf:"timeout"`
}

// Enabled reports whether history recording can run at all.
func (c NotionConfig) Enabled() bool {
	return c.Token != "" && c.DatabaseID != ""
}

type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// TrackingConfig selects which voice changes become events and whether
// avatars are rehosted.
type TrackingConfig struct {
	Mute         bool `koanf:"mute"`
	Stream       bool `koanf:"stream"`
	Video        bool `koanf:"video"`
	CacheAvatars bool `koanf:"cache_avatars"`
}

type AssetConfig struct {
	MaxBytes int64         `koanf:"max_bytes"`
	Timeout  time.Duration `koanf:"timeout"`
}

type LogConfig struct {
	Level    string `koanf:"level"`
	Encoding string `koanf:"encoding"`
}

type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// Load reads the optional YAML file at path, then applies defaults and
// environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings without which the process cannot start.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord token is required (DISCORD_TOKEN)")
	}
	if c.Notion.RequestsPerSecond < 0 {
		return fmt.Errorf("notion.requests_per_second must not be negative")
	}
	return nil
}

func applyDefaults(k *koanf.Koanf) {
	setDefault(k, "discord.register_commands", true)

	setDefault(k, "notion.base_url", "https://api.notion.com")
	setDefault(k, "notion.version", "2022-06-28")
	setDefault(k, "notion.requests_per_second", 3.0)
	setDefault(k, "notion.timeout", 30*time.Second)

	setDefault(k, "tracking.mute", true)
	setDefault(k, "tracking.stream", true)
	setDefault(k, "tracking.video", true)
	setDefault(k, "tracking.cache_avatars", true)

	setDefault(k, "asset.max_bytes", int64(8<<20))
	setDefault(k, "asset.timeout", 15*time.Second)

	setDefault(k, "log.level", "info")
	setDefault(k, "log.encoding", "json")
}

func applyEnvOverrides(k *koanf.Koanf) {
	if token := getEnv("DISCORD_TOKEN", ""); token != "" {
		k.Set("discord.token", token)
	}
	if v, ok := getEnvBool("DISCORD_REGISTER_COMMANDS"); ok {
		k.Set("discord.register_commands", v)
	}

	// NOTION_API_KEY is the name older deployments used.
	if token := getEnv("NOTION_TOKEN", getEnv("NOTION_API_KEY", "")); token != "" {
		k.Set("notion.token", token)
	}
	if id := getEnv("NOTION_DATABASE_ID", ""); id != "" {
		k.Set("notion.database_id", id)
	}
	if baseURL := getEnv("NOTION_BASE_URL", ""); baseURL != "" {
		k.Set("notion.base_url", baseURL)
	}

	if url := getEnv("DATABASE_URL", ""); url != "" {
		k.Set("database.url", url)
	}

	if v, ok := getEnvBool("TRACK_MUTE"); ok {
		k.Set("tracking.mute", v)
	}
	if v, ok := getEnvBool("TRACK_STREAM"); ok {
		k.Set("tracking.stream", v)
	}
	if v, ok := getEnvBool("TRACK_VIDEO"); ok {
		k.Set("tracking.video", v)
	}
	if v, ok := getEnvBool("CACHE_AVATARS"); ok {
		k.Set("tracking.cache_avatars", v)
	}

	if level := getEnv("LOG_LEVEL", ""); level != "" {
		k.Set("log.level", level)
	}
	if encoding := getEnv("LOG_ENCODING", ""); encoding != "" {
		k.Set("log.encoding", encoding)
	}
	if addr := getEnv("METRICS_ADDR", ""); addr != "" {
		k.Set("metrics.addr", addr)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value any) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string) (bool, bool) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return false, false
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, false
	}
	return b, true
}

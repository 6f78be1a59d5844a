package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/example/voice-notifier/internal/asset"
	"github.com/example/voice-notifier/internal/config"
	"github.com/example/voice-notifier/internal/infrastructure/discord"
	"github.com/example/voice-notifier/internal/infrastructure/notion"
	"github.com/example/voice-notifier/internal/infrastructure/store"
	"github.com/example/voice-notifier/internal/logging"
	"github.com/example/voice-notifier/internal/metrics"
	"github.com/example/voice-notifier/internal/notification"
	"github.com/example/voice-notifier/internal/pipeline"
	"github.com/example/voice-notifier/internal/recording"
	"github.com/example/voice-notifier/internal/voice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "voice-notifier: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("voice notifier starting",
		zap.Bool("track_mute", cfg.Tracking.Mute),
		zap.Bool("track_stream", cfg.Tracking.Stream),
		zap.Bool("track_video", cfg.Tracking.Video),
		zap.Bool("cache_avatars", cfg.Tracking.CacheAvatars),
		zap.Bool("notion", cfg.Notion.Enabled()),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Subscription registry
	registry, closeRegistry, err := openRegistry(ctx, cfg.Database, logger.Named("registry"))
	if err != nil {
		return err
	}
	defer closeRegistry()

	// Discord session
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discord.Intents
	// Handlers run in arrival order on the read loop so event times keep it.
	session.SyncEvents = true

	// History sink and avatar rehosting
	var sink recording.Sink
	var uploader asset.Uploader
	if cfg.Notion.Enabled() {
		client := notion.NewClient(notion.Config{
			Token:             cfg.Notion.Token,
			BaseURL:           cfg.Notion.BaseURL,
			Version:           cfg.Notion.Version,
			RequestsPerSecond: cfg.Notion.RequestsPerSecond,
			Timeout:           cfg.Notion.Timeout,
		})
		sink = notion.NewDatabaseSink(client, cfg.Notion.DatabaseID)
		if cfg.Tracking.CacheAvatars {
			uploader = notion.NewUploader(client)
		}
	} else {
		logger.Warn("Notion token or database id is not set, skipping history recording")
	}

	var assets pipeline.Materializer
	if uploader != nil {
		assets = asset.NewCache(asset.Config{
			MaxBytes: cfg.Asset.MaxBytes,
			Timeout:  cfg.Asset.Timeout,
		}, uploader, logger.Named("asset"), m)
	}

	classifier := voice.NewClassifier(voice.Options{
		TrackMute:   cfg.Tracking.Mute,
		TrackStream: cfg.Tracking.Stream,
		TrackVideo:  cfg.Tracking.Video,
	})
	dispatcher := notification.NewDispatcher(registry, discord.NewMessenger(session), logger.Named("notifier"), m)
	recorder := recording.NewRecorder(sink, logger.Named("recorder"), m)
	p := pipeline.New(classifier, assets, dispatcher, recorder, logger.Named("pipeline"), m)

	discord.NewGateway(ctx, session, discord.NewStateDirectory(session), p, logger.Named("discord"))

	if err := session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}

	if cfg.Discord.RegisterCommands {
		commands := discord.NewCommands(registry, logger.Named("commands"))
		if err := commands.Register(session); err != nil {
			logger.Error("slash command registration failed", zap.Error(err))
		}
	}

	var metricsServer *metrics.Server
	if cfg.Metrics.Addr != "" {
		metricsServer = metrics.NewServer(cfg.Metrics.Addr, reg, logger.Named("metrics"))
		metricsServer.Start()
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	if err := session.Close(); err != nil {
		logger.Warn("discord session close failed", zap.Error(err))
	}
	p.Wait()

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown failed", zap.Error(err))
		}
	}
	return nil
}

// openRegistry connects to PostgreSQL when configured, otherwise keeps
// subscriptions in memory.
func openRegistry(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (store.SubscriptionStore, func(), error) {
	if cfg.URL == "" {
		logger.Warn("DATABASE_URL is not set, subscriptions are kept in memory")
		return store.NewMemorySubscriptionStore(), func() {}, nil
	}

	db, err := store.ConnectPostgres(ctx, cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	registry := store.NewPostgresSubscriptionStore(db)
	if err := registry.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("connected to PostgreSQL")
	return registry, func() { db.Close() }, nil
}

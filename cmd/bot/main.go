package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/coder/quartz"
	"github.com/redis/go-redis/v9"

	"FlowSentinel/internal/collector"
	"FlowSentinel/internal/config"
	"FlowSentinel/internal/logger"
	"FlowSentinel/internal/notifier"
	"FlowSentinel/internal/recorder"
	"FlowSentinel/internal/scheduler"
	"FlowSentinel/internal/store"
	"FlowSentinel/internal/tracker"
)

func main() {
	logger.Init("")
	log := logger.L()
	log.Info("FlowSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}
	logger.Init(cfg.LogLevel)
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("load timezone: %v", err)
	}

	// Init baseline store
	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("init %s store: %v", cfg.Store.Driver, err)
	}
	defer st.Close()
	log.Infof("baseline store: %s", cfg.Store.Driver)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warnf("init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init notification channels
	channels := notifier.NewDefaultRegistry(cfg.Proxy)
	channels.Retries = *cfg.Notify.Retries
	log.Infof("notification channels: %v", channels.Names())

	fetcher := collector.NewHTTPFetcher(cfg.Carrier.BaseURL, cfg.Proxy, cfg.Carrier.Timeout)
	log.Infof("data source: %s", fetcher.Name())

	trk := tracker.New(fetcher, st, rec, channels, quartz.NewReal(), loc)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, trk, loc)
	if err := sched.RegisterAll(cfg.Subscribers); err != nil {
		log.Fatalf("register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Telegram.BotToken != "" {
		cb, err := notifier.NewCommandBot(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, sched.HandleCommand)
		if err != nil {
			log.Warnf("telegram commands disabled: %v", err)
		} else {
			go cb.Start(ctx)
		}
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, running all subscribers now")
		go sched.RunAllNow()
	}

	log.Infof("FlowSentinel is running with %d subscriber(s). Press Ctrl+C to stop.", len(cfg.Subscribers))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping...")
	cancel()
	log.Info("FlowSentinel stopped")
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreFile:
		return store.NewFileStore(cfg.Store.StateDir)
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		return store.NewRedisStore(client, cfg.Store.RedisNamespace, 0), nil
	default:
		return store.NewSQLiteStore(cfg.Database.SQLitePath)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"QuoteKeeper/internal/api"
	"QuoteKeeper/internal/browser"
	"QuoteKeeper/internal/collector"
	"QuoteKeeper/internal/config"
	"QuoteKeeper/internal/logging"
	"QuoteKeeper/internal/model"
	"QuoteKeeper/internal/notifier"
	"QuoteKeeper/internal/publisher"
	"QuoteKeeper/internal/recorder"
	"QuoteKeeper/internal/scheduler"
	"QuoteKeeper/internal/scraper"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("config validation", zap.Error(err))
	}
	logger.Info("QuoteKeeper starting",
		zap.String("config", cfgPath),
		zap.Int("symbols", len(cfg.Watchlist)),
		zap.String("driver", cfg.Database.Driver),
	)

	// Persistence gateway
	var store recorder.Store
	if cfg.Database.Driver == "none" {
		logger.Warn("database driver is none, observations will not be stored")
		store = recorder.NewNoop(logger)
	} else {
		store = recorder.NewGateway(cfg.Database, logger.Named("recorder"))
	}

	// Scraper
	launcher := browser.NewChrome(cfg.Browser, cfg.Proxy, logger.Named("browser"))
	fetcher := scraper.New(cfg.Source, launcher, store, logger.Named("scraper"))

	// Optional collaborators
	var opts []collector.Option
	if pub := newPublisher(cfg, logger); pub != nil {
		defer pub.Close()
		opts = append(opts, collector.WithPublisher(pub))
	}
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram, cfg.Proxy, logger)
		opts = append(opts, collector.WithNotifier(tn))
	}

	col := collector.NewCollector(fetcher, cfg.Watchlist, logger.Named("collector"), opts...)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, col, logger)
	if err := sched.Register(cfg.Schedule.DailyAt); err != nil {
		logger.Fatal("register daily task", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info("telegram polling started")
	}

	var srv *http.Server
	if cfg.HTTP.Addr != "" {
		srv = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           api.NewRouter(api.NewHandler(sched, logger)),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("status server listening", zap.String("addr", cfg.HTTP.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("status server failed", zap.Error(err))
			}
		}()
	}

	if cfg.Schedule.RunOnStart {
		logger.Info("RUN_ON_START enabled, running now")
		sched.RunAsync(model.TriggerStartup)
	}

	logger.Info("QuoteKeeper is running. Press Ctrl+C to stop.", zap.Time("next_run", sched.Next()))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("shutdown signal received, stopping", zap.Stringer("signal", sig))
	cancel()
	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("status server shutdown", zap.Error(err))
		}
	}
}

// newPublisher returns the configured event sinks, or nil when there are none.
func newPublisher(cfg *config.Config, logger *zap.Logger) publisher.Publisher {
	var sinks []publisher.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		sinks = append(sinks, publisher.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		logger.Info("kafka sink enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		sinks = append(sinks, publisher.NewRedis(client))
		logger.Info("redis sink enabled", zap.String("addr", cfg.Redis.Addr))
	}
	if len(sinks) == 0 {
		return nil
	}
	return publisher.NewMulti(sinks...)
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"news_summarizer/internal/api"
	"news_summarizer/internal/batch"
	"news_summarizer/internal/config"
	"news_summarizer/internal/domain"
	"news_summarizer/internal/llm"
	"news_summarizer/internal/notify"
	"news_summarizer/internal/pipeline"
	"news_summarizer/internal/scheduler"
	"news_summarizer/internal/storage/postgres"
	redisstore "news_summarizer/internal/storage/redis"
	"news_summarizer/internal/summarizer"
)

const (
	modeOnce     = "once"
	modeSchedule = "schedule"
	modeServe    = "serve"
)

type itemStore interface {
	pipeline.ItemStore
	api.ItemInserter
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	mode := flag.String("mode", modeOnce, "run mode: once, schedule or serve")
	flag.Parse()

	logger := setupLogger("info", os.Stderr)

	switch *mode {
	case modeOnce, modeSchedule, modeServe:
	default:
		logger.Error("unknown mode", "mode", *mode)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel, os.Stderr)

	if err := run(cfg, *mode, logger); err != nil {
		logger.Error("processor stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, mode string, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	items, runState, closeStore, err := openStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	generator, err := newGenerator(cfg.Generation)
	if err != nil {
		return err
	}

	channels, closeChannels, err := newChannels(cfg.Notify, logger)
	if err != nil {
		return err
	}
	defer closeChannels()

	dispatcher := notify.NewDispatcher(channels, cfg.Generation.OutputLanguage, logger)

	summ := summarizer.New(generator, summarizer.Config{
		ModelID:        cfg.Generation.ModelID,
		OutputLanguage: cfg.Generation.OutputLanguage,
		MaxTokens:      cfg.Generation.MaxTokens,
		MaxRetries:     cfg.Generation.Retries(),
		BaseDelay:      cfg.Generation.BaseDelay,
	}, logger)

	batches := batch.NewScheduler(batch.Config{
		Size:          cfg.Pipeline.BatchSize,
		ItemPause:     cfg.Pipeline.ItemPause,
		BatchPauseMin: cfg.Pipeline.BatchPauseMin,
		BatchPauseMax: cfg.Pipeline.BatchPauseMax,
	}, nil, logger)

	var stateStore pipeline.RunStateStore
	if runState != nil {
		stateStore = runState
	}

	p := pipeline.New(items, summ, batches, dispatcher, stateStore, logger, pipeline.Config{
		SourceFilter: cfg.Pipeline.SourceFilter,
	})

	logger.Info("starting news processor",
		"mode", mode,
		"storage", cfg.Storage.Type,
		"provider", cfg.Generation.Provider,
		"model", cfg.Generation.ModelID,
		"channels", dispatcher.Channels(),
	)

	switch mode {
	case modeOnce:
		result, err := p.Run(ctx)
		if result != nil {
			if encErr := writeResult(os.Stdout, result); encErr != nil {
				logger.Error("failed to print result", "error", encErr)
			}
		}
		return err

	case modeSchedule:
		sched := scheduler.NewScheduler(p, cfg.Pipeline.Interval, cfg.Pipeline.RunTimeout, logger)
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("scheduler: %w", err)
		}
		return nil

	case modeServe:
		return serve(ctx, cfg.HTTP, api.NewHandler(p, items, logger), logger)

	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

func openStorage(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (itemStore, *postgres.RunStateStore, func(), error) {
	switch cfg.Type {
	case config.StorageTypeRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.Info("connected to redis", "addr", cfg.Redis.Addr)

		return redisstore.NewItemStore(rdb, cfg.Redis.KeyPrefix), nil, func() { rdb.Close() }, nil

	default:
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.DSN())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		logger.Info("connected to database", "host", cfg.Database.Host, "dbname", cfg.Database.DBName)

		return postgres.NewItemStore(db), postgres.NewRunStateStore(db), func() { db.Close() }, nil
	}
}

func newGenerator(cfg config.GenerationConfig) (llm.Generator, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		gen, err := llm.NewOllama(cfg.BaseURL, cfg.ModelID, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		return gen, nil
	default:
		return llm.NewOpenAI(cfg.BaseURL, cfg.APIKey, cfg.ModelID, cfg.Timeout), nil
	}
}

// newChannels returns the primary channel and at most one fallback. Email
// stands in for RabbitMQ when RabbitMQ is not configured.
func newChannels(cfg config.NotifyConfig, logger *slog.Logger) ([]notify.Channel, func(), error) {
	var primary, pubsub, email notify.Channel
	closeFn := func() {}

	if cfg.Slack.Enabled() {
		primary = notify.NewSlack(cfg.Slack.WebhookURL, cfg.Slack.Timeout)
	}

	if cfg.RabbitMQ.Enabled() {
		rmq, err := notify.NewRabbitMQ(notify.RabbitMQConfig{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}
		pubsub = rmq
		closeFn = func() { rmq.Close() }
	}

	if cfg.Email.Enabled() {
		if pubsub != nil {
			logger.Warn("email channel ignored, rabbitmq is the fallback")
		}
		email = notify.NewEmail(notify.EmailConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			To:       cfg.Email.To,
		})
	}

	return notify.Chain(primary, pubsub, email), closeFn, nil
}

func serve(ctx context.Context, cfg config.HTTPConfig, handler *api.Handler, logger *slog.Logger) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.RegisterRoutes(router, handler)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// writeResult prints the run result as indented JSON. Logs go to stderr, so
// stdout carries only the result.
func writeResult(w io.Writer, result *domain.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func setupLogger(level string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(w, opts)
	return slog.New(handler)
}

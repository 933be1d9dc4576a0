package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/muhammadchandra19/matcha/internal/app/consumer"
	"github.com/muhammadchandra19/matcha/internal/app/engine"
	matchpublisherv1 "github.com/muhammadchandra19/matcha/internal/domain/match-publisher/v1"
	snapshotv1 "github.com/muhammadchandra19/matcha/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/matcha/internal/transport/rest"
	intentreader "github.com/muhammadchandra19/matcha/internal/usecase/intent-reader"
	matchpublisher "github.com/muhammadchandra19/matcha/internal/usecase/match-publisher"
	"github.com/muhammadchandra19/matcha/internal/usecase/snapshot"
	"github.com/muhammadchandra19/matcha/pkg/config"
	"github.com/muhammadchandra19/matcha/pkg/logger"
	"github.com/muhammadchandra19/matcha/pkg/postgresql"
	"github.com/muhammadchandra19/matcha/pkg/redis"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	cfg = &config.Config{}
	if err := config.Load(cfg); err != nil {
		panic(err)
	}

	l, err := logger.NewLogger(logger.WithLoggingLevel(logger.Level(cfg.LogLevel)))
	if err != nil {
		panic(err)
	}

	log = l
}

func main() {
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var rclient redis.Client
	var pgclient *postgresql.Client
	var snapshotStore snapshotv1.Store
	switch cfg.EngineConfig.SnapshotBackend {
	case config.SnapshotBackendRedis:
		if !cfg.RedisConfig.Enabled() {
			log.Warn("Redis is not configured, snapshots are disabled")
			break
		}
		rclient = redis.NewClient(log, &cfg.RedisConfig)
		if err := rclient.Connect(ctx); err != nil {
			log.Error(err, logger.NewField("action", "connect_redis"))
			return
		}
		snapshotStore = snapshot.NewSnapshotStore(rclient, cfg.Pair, log)
	case config.SnapshotBackendPostgres:
		client, err := postgresql.NewClient(ctx, cfg.PostgresConfig)
		if err != nil {
			log.Error(err, logger.NewField("action", "connect_postgres"))
			return
		}
		pgclient = client
		pgStore := snapshot.NewPostgresStore(pgclient, cfg.Pair, log)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Error(err, logger.NewField("action", "ensure_snapshot_schema"))
			pgclient.Close()
			return
		}
		snapshotStore = pgStore
	case config.SnapshotBackendNone:
		log.Warn("Snapshots are disabled")
	default:
		log.Warn("Unknown snapshot backend, snapshots are disabled",
			logger.NewField("backend", cfg.EngineConfig.SnapshotBackend))
	}

	var publisher matchpublisherv1.MatchPublisher
	if cfg.KafkaConfig.Enabled() {
		publisher = matchpublisher.NewPublisher(cfg.KafkaConfig, log)
	} else {
		log.Warn("Kafka is not configured, match events are not published")
	}

	eng := engine.NewEngineWithOptions(cfg.Pair, snapshotStore, publisher, log, &engine.Options{
		SnapshotInterval: cfg.EngineConfig.SnapshotInterval,
		MailboxSize:      cfg.EngineConfig.MailboxSize,
	})
	if err := eng.Start(ctx); err != nil {
		log.Error(err, logger.NewField("action", "start_engine"))
		return
	}

	var reader *intentreader.Reader
	consumerDone := make(chan struct{})
	if cfg.KafkaConfig.IntakeEnabled() {
		reader = intentreader.NewReader(cfg.KafkaConfig, log)
		intentConsumer := consumer.NewConsumer(reader, eng, log)
		go func() {
			defer close(consumerDone)
			if err := intentConsumer.Run(ctx); err != nil {
				log.Error(err, logger.NewField("action", "consume_intents"))
			}
		}()
	} else {
		close(consumerDone)
	}

	server := &http.Server{
		Addr:         cfg.HTTPConfig.Addr,
		Handler:      rest.NewServer(eng, log).Handler(),
		ReadTimeout:  cfg.HTTPConfig.ReadTimeout,
		WriteTimeout: cfg.HTTPConfig.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	log.Info("Matcha started successfully",
		logger.NewField("pair", cfg.Pair),
		logger.NewField("addr", cfg.HTTPConfig.Addr),
	)

	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", logger.NewField("signal", sig.String()))
	case err := <-serveErr:
		if err != nil {
			log.Error(err, logger.NewField("action", "serve_http"))
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPConfig.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(err, logger.NewField("action", "shutdown_http"))
	}

	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		log.Warn("Intent consumer did not stop in time")
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			log.Error(err, logger.NewField("action", "close_intent_reader"))
		}
	}

	if err := eng.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.NewField("action", "stop_engine"))
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error(err, logger.NewField("action", "close_match_publisher"))
		}
	}

	if pgclient != nil {
		pgclient.Close()
	}

	if rclient != nil {
		if err := rclient.Disconnect(shutdownCtx); err != nil {
			log.Error(err, logger.NewField("action", "disconnect_redis"))
		}
	}

	log.Info("Matcha shutdown complete")
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/matjmiles/healthcare-job-organizer/internal/ats"
	"github.com/matjmiles/healthcare-job-organizer/internal/config"
	"github.com/matjmiles/healthcare-job-organizer/internal/scheduler"
	"github.com/matjmiles/healthcare-job-organizer/internal/seen"
	"github.com/matjmiles/healthcare-job-organizer/internal/worker"
	"github.com/matjmiles/healthcare-job-organizer/internal/worker/storage"
	"github.com/matjmiles/healthcare-job-organizer/migrations"
	"github.com/matjmiles/healthcare-job-organizer/shared/logger"
	"github.com/matjmiles/healthcare-job-organizer/shared/postgresql"
	"github.com/matjmiles/healthcare-job-organizer/shared/rabbitmq"
	sharedredis "github.com/matjmiles/healthcare-job-organizer/shared/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	migrate := flag.Bool("migrate", true, "Apply database migrations on startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := initPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	if *migrate {
		if err := dbClient.Migrate(ctx, migrations.FS); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	appLogger.Info("Database connection established")

	rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	defer rabbitClient.Close()

	appLogger.Info("RabbitMQ connection established")

	seenCache, closeSeen, err := initSeenCache(ctx, &cfg.Redis, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize seen cache: %w", err)
	}
	defer closeSeen()

	pipe, err := cfg.Classifier.NewPipeline(nil)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	atsClient := ats.NewClient(ats.ClientConfig{
		UserAgent:         cfg.Collector.UserAgent,
		Timeout:           cfg.Collector.RequestTimeout,
		MaxRetries:        cfg.Collector.MaxRetries,
		RequestsPerSecond: cfg.Collector.RequestsPerSecond,
		Burst:             cfg.Collector.Burst,
	}, appLogger.Logger)

	store := storage.NewStorage(dbClient.GetDB(), appLogger.Logger)

	workerInstance, err := worker.NewWorker(&worker.Config{
		Logger:    appLogger.Logger,
		Store:     store,
		Consumer:  rabbitClient,
		Publisher: rabbitClient,
		Events: worker.EventKeys{
			JobClassified: cfg.RabbitMQ.Events.JobClassified,
			RunCompleted:  cfg.RabbitMQ.Events.RunCompleted,
		},
		Pipeline:          pipe,
		Fetcher:           ats.NewRegistry(atsClient),
		Seen:              seenCache,
		EmployersPath:     cfg.Collector.EmployersPath,
		Concurrency:       cfg.Worker.Concurrency,
		CollectorWorkers:  cfg.Collector.Concurrency,
		PrefetchCount:     cfg.RabbitMQ.Consumer.PrefetchCount,
		RunTimeout:        cfg.Worker.RunTimeout,
		HeartbeatInterval: cfg.Worker.HeartbeatInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := workerInstance.Start(gctx); err != nil {
			return err
		}
		if gctx.Err() == nil {
			return errors.New("run delivery channel closed")
		}
		return nil
	})

	if cfg.Scheduler.Enabled {
		trigger := &worker.Trigger{
			Creator:    store,
			Publisher:  rabbitClient,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			MaxRetries: cfg.Worker.MaxRetries,
			Timeout:    cfg.Worker.RunTimeout,
			Logger:     appLogger.Logger,
		}
		sched, err := scheduler.New(scheduler.Config{
			Spec:       cfg.Scheduler.Spec,
			RunOnStart: cfg.Scheduler.RunOnStart,
			Timeout:    cfg.Scheduler.Timeout,
			Trigger:    trigger.Fire,
			Logger:     appLogger.Logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		g.Go(func() error {
			return sched.Run(gctx)
		})
	}

	appLogger.Info("Worker service started successfully",
		slog.Bool("scheduler", cfg.Scheduler.Enabled),
		slog.String("rule_set", pipe.RuleSetName()),
	)

	<-gctx.Done()
	appLogger.Info("Shutting down worker service")

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			appLogger.Error("Worker error", slog.Any("error", err))
			return err
		}
		appLogger.Info("Worker stopped gracefully")
	case <-time.After(cfg.Worker.ShutdownTimeout):
		appLogger.Warn("Worker shutdown timeout exceeded, forcing exit")
	}

	appLogger.Info("Worker service shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	return postgresql.NewClient(&postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}, logger)
}

// initRabbitMQ declares the run queue and binds it to the run request key
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	return rabbitmq.NewClient(&rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		BindingKeys:        []string{cfg.RoutingKey},
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}, logger)
}

// initSeenCache connects Redis when configured. Without a URL the cache
// lives in process memory and resets on restart.
func initSeenCache(ctx context.Context, cfg *config.RedisConfig, logger *slog.Logger) (seen.Cache, func(), error) {
	if cfg.URL == "" {
		logger.Warn("REDIS_URL not set, using in-memory seen cache")
		return seen.NewMemory(cfg.SeenTTL), func() {}, nil
	}

	rdb, err := sharedredis.NewClient(ctx, cfg.URL, logger)
	if err != nil {
		return nil, nil, err
	}
	return seen.NewRedis(rdb, cfg.SeenTTL, cfg.KeyPrefix), func() { rdb.Close() }, nil
}

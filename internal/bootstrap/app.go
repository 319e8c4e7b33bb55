package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"knowdesk/internal/ai"
	"knowdesk/internal/config"
	"knowdesk/internal/model"
	rabbitmqClient "knowdesk/internal/platform/rabbitmq"
	redisClient "knowdesk/internal/platform/redis"
	sqliteClient "knowdesk/internal/platform/sqlite"
	"knowdesk/internal/repository"
	"knowdesk/internal/worker"
)

// App holds the process-wide resources. Redis and RabbitMQ are optional
/// collaborators: a nil client means the feature they back is disabled.
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	AI          *ai.Client
	EventWorker *worker.EventWorker
	Logger      *slog.Logger

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := sqliteClient.New(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Document{},
		&model.ChatSession{},
		&model.Message{},
		&model.VectorStore{},
		&model.Event{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	app := &App{
		Config:    cfg,
		DB:        db,
		Logger:    logger,
		StartedAt: time.Now(),
	}

	if cfg.Redis.Addr != "" {
		redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		app.Redis = redisCli
	} else {
		logger.Info("redis not configured, history cache disabled")
	}

	if cfg.RabbitMQ.URL != "" {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.ActivityQueue)
		if err != nil {
			return nil, err
		}
		app.MQConn = mqConn

		eventRepo := repository.NewEventRepository(db)
		eventWorker := worker.NewEventWorker(mqConn, eventRepo, cfg.RabbitMQ.ActivityQueue, logger)
		if err := eventWorker.Start(ctx); err != nil {
			return nil, fmt.Errorf("start event worker failed: %w", err)
		}
		app.EventWorker = eventWorker
	} else {
		logger.Info("rabbitmq not configured, activity trail disabled")
	}

	app.AI = ai.NewClient(ai.Config{
		BaseURL:        cfg.OpenAI.BaseURL,
		APIKey:         cfg.OpenAI.APIKey,
		Model:          cfg.OpenAI.AssistantModel,
		AssistantName:  cfg.AssistantName(),
		Instructions:   cfg.AssistantInstructions(),
		IndexExpireDay: cfg.OpenAI.VectorStoreExpireDays,
	})

	return app, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.EventWorker != nil {
		a.EventWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}

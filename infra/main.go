package infra

import (
	"context"
	"errors"

	"github.com/dedilute/catalog-backend/config"
	"github.com/dedilute/catalog-backend/infra/produce"
	otellog "go.opentelemetry.io/otel/log"
)

type Infra struct {
	Redis     *RedisClient
	Postgres  *PostgresClient
	Logger    *LoggerClient
	Telemetry *Telemetry
	// RabbitMQ and Produce are nil when RABBITMQ_HOST is empty.
	RabbitMQ *RabbitMQClient
	Produce  *produce.Produce
	// Storage is nil when the bucket or endpoint is not configured.
	Storage ObjectStore
}

func InitInfra(ctx context.Context, cfg *config.Config) *Infra {
	telemetry, err := InitTelemetry(ctx, cfg.EnvConfig)
	if err != nil {
		panic("Failed to initialize Telemetry: " + err.Error())
	}

	var provider otellog.LoggerProvider
	if telemetry.LoggerProvider != nil {
		provider = telemetry.LoggerProvider
	}
	logger := InitLoggerClient(cfg.EnvConfig, provider)

	redis, err := InitRedisClient(cfg.EnvConfig)
	if err != nil {
		panic("Failed to initialize Redis service: " + err.Error())
	}

	postgres, err := InitPostgresClient(cfg.EnvConfig)
	if err != nil {
		panic("Failed to initialize Postgres service: " + err.Error())
	}

	rabbitMQ, err := InitRabbitMQClient(cfg.EnvConfig)
	if err != nil {
		panic("Failed to initialize RabbitMQ service: " + err.Error())
	}

	var produceService *produce.Produce
	if rabbitMQ != nil {
		produceService, err = produce.InitProduce(rabbitMQ.Channel)
		if err != nil {
			panic("Failed to initialize Produce service: " + err.Error())
		}
	} else {
		logger.WarningWithContextf(ctx, "[Infra] RABBITMQ_HOST not set, failed object deletes will only be logged")
	}

	storage, err := InitObjectStore(ctx, cfg.EnvConfig)
	if err != nil {
		panic("Failed to initialize object storage: " + err.Error())
	}
	if storage == nil {
		logger.WarningWithContextf(ctx, "[Infra] S3_BUCKET or S3_ENDPOINT not set, media uploads are disabled")
	}

	return &Infra{
		Redis:     redis,
		Postgres:  postgres,
		Logger:    logger,
		Telemetry: telemetry,
		RabbitMQ:  rabbitMQ,
		Produce:   produceService,
		Storage:   storage,
	}
}

// Close releases every client in reverse start order.
func (i *Infra) Close(ctx context.Context) error {
	var errs []error
	if i.RabbitMQ != nil {
		errs = append(errs, i.RabbitMQ.Close())
	}
	if i.Postgres != nil {
		errs = append(errs, i.Postgres.Close())
	}
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.Telemetry != nil {
		errs = append(errs, i.Telemetry.Shutdown(ctx))
	}
	if i.Logger != nil {
		errs = append(errs, i.Logger.Close())
	}
	return errors.Join(errs...)
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dedilute/catalog-backend/config"
	"github.com/dedilute/catalog-backend/consumer/worker"
	infraPkg "github.com/dedilute/catalog-backend/infra"
	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load("../.env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()

	// Initialize context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	infra := infraPkg.InitInfra(ctx, cfg)
	defer func() {
		if err := infra.Close(context.Background()); err != nil {
			log.Printf("Failed to close infra cleanly: %v", err)
		}
	}()

	if infra.RabbitMQ == nil {
		log.Fatal("RABBITMQ_HOST is not set, nothing to consume")
	}

	purgeConsumer := worker.NewObjectPurgeConsumer(infra.RabbitMQ.Channel, infra.Storage, infra.Logger)
	if err := purgeConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start object purge consumer: %v", err)
		log.Fatalf("Failed to start object purge consumer: %v", err)
	}

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	infra.Logger.InfoWithContextf(ctx, "Shutting down consumer...")
	cancel()

	infra.Logger.InfoWithContextf(ctx, "Consumer exited properly")
}

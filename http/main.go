package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dedilute/catalog-backend/config"
	"github.com/dedilute/catalog-backend/http/controller"
	"github.com/dedilute/catalog-backend/http/route"
	infraPkg "github.com/dedilute/catalog-backend/infra"
	"github.com/dedilute/catalog-backend/repository"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(ctx, cfg)

	if cfg.EnvConfig.Database.AutoMigrate {
		if err := repository.Migrate(infra.Postgres.DB); err != nil {
			infra.Logger.ErrorWithContextf(ctx, err, "[Server] Migration failed")
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}
	repo := repository.NewRepository(infra.Postgres.DB)

	ctrl := controller.NewController(cfg, infra, repo)

	router := routes.SetupRouter(ctrl)

	server := &http.Server{
		Addr:              ":" + cfg.EnvConfig.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		infra.Logger.InfoWithContextf(ctx, "[Server] HTTP server started on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	infra.Logger.InfoWithContextf(context.Background(), "[Server] Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		infra.Logger.ErrorWithContextf(shutdownCtx, err, "[Server] Forced shutdown")
	}
	if err := infra.Close(shutdownCtx); err != nil {
		log.Printf("Failed to close infra cleanly: %v", err)
	}

	log.Println("Server exited properly")
}

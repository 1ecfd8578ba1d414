package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	app "github.com/classops/enrolsync/internal/application/roster"
	"github.com/classops/enrolsync/internal/bootstrap"
	infrafile "github.com/classops/enrolsync/internal/infrastructure/file"
	"github.com/classops/enrolsync/internal/infrastructure/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		log.Fatalf("failed to create pgx pool: %v", err)
	}
	defer pool.Close()

	server := bootstrap.NewHTTPServer(db)
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	refreshJobRepo := repository.NewRefreshJobRepository(db)
	directory := repository.NewDirectoryRepository(db)
	stores := repository.NewStoreProvider(db, pool)
	sourceReader := infrafile.NewLocalSource(getEnv("REFRESH_BASE_DIR", "."))

	worker := app.NewRefreshWorker(refreshJobRepo, sourceReader, directory, stores, app.RefreshWorkerConfig{
		Workers:       parseWorkerCount(),
		LeaseDuration: time.Duration(parseIntEnv("REFRESH_JOB_LEASE_SECONDS", 60)) * time.Second,
	})
	worker.Start(workerCtx)

	go func() {
		if err := server.Start(":" + port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
}

func parseWorkerCount() int {
	workers := parseIntEnv("REFRESH_WORKERS", 2)
	if workers <= 0 {
		return 2
	}
	if workers > 10 {
		return 10
	}
	return workers
}

func parseIntEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

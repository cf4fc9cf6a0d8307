package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/velora/checkout_hold/internal/adapter/handler"
	"github.com/velora/checkout_hold/internal/adapter/notification"
	"github.com/velora/checkout_hold/internal/adapter/repository/postgres"
	"github.com/velora/checkout_hold/internal/clock"
	"github.com/velora/checkout_hold/internal/core/services"
	"github.com/velora/checkout_hold/internal/platform/database"
	"github.com/velora/checkout_hold/internal/platform/schedule"
)

func loadEnv(filepath string) {
	file, err := os.Open(filepath)

	if err != nil {
		log.Println("No .env file found, using OS environment variables.")
		return
	}

	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			os.Setenv(key, value)
		}
	}

	if err := scanner.Err(); err != nil {
		log.Printf("Failed to read .env file: %v\n", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	loadEnv(".env")

	dbConfig := database.Config{
		Host:     envOr("DB_HOST", "localhost"),
		Port:     envOr("DB_PORT", "5432"),
		User:     envOr("DB_USER", "postgres"),
		Password: envOr("DB_PASSWORD", ""),
		DBName:   envOr("DB_NAME", "checkout_hold"),
	}

	db, err := database.NewPostgresDB(dbConfig)

	if err != nil {
		log.Fatalf("Failed to connect to db after retries: %v", err)
	}

	redisHost := envOr("REDIS_HOST", "localhost")
	redisPort := envOr("REDIS_PORT", "6379")

	log.Printf("Connecting to Redis at %s:%s...", redisHost, redisPort)

	redisClient := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", redisHost, redisPort),
		DB:   0,
	})

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Redis connected successfully!")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	defer db.Close()

	holdDurationSeconds, err := strconv.Atoi(envOr("HOLD_DURATION_SECONDS", "540"))
	if err != nil || holdDurationSeconds <= 0 {
		log.Fatalf("Invalid HOLD_DURATION_SECONDS: %s", envOr("HOLD_DURATION_SECONDS", "540"))
	}

	notifyPrefix := envOr("NOTIFY_CHANNEL_PREFIX", "notify")

	holdRepo := postgres.NewHoldRepository(db)
	channels := notification.NewRedisChannels(redisClient, notifyPrefix)

	manager := services.NewTimerManager()

	checkoutService := services.NewCheckoutService(
		holdRepo,
		channels,
		schedule.NewSystem(),
		manager,
		redisClient,
		clock.NewSystem(),
		services.WithHoldDuration(time.Duration(holdDurationSeconds)*time.Second),
	)

	checkoutHandler := handler.NewCheckoutHandler(checkoutService)

	rootCtx, stopWorkers := context.WithCancel(context.Background())

	go manager.Run(rootCtx)

	go func() {
		checkoutService.RunBackgroundCleanup(rootCtx)
	}()

	mux := http.NewServeMux()

	mux.HandleFunc("/checkouts", checkoutHandler.StartCheckout)

	mux.HandleFunc("/checkouts/state", checkoutHandler.GetState)

	mux.HandleFunc("/checkouts/pause", checkoutHandler.Pause)
	mux.HandleFunc("/checkouts/resume", checkoutHandler.Resume)
	mux.HandleFunc("/checkouts/confirm", checkoutHandler.Confirm)
	mux.HandleFunc("/checkouts/cancel", checkoutHandler.Cancel)

	server := &http.Server{
		Addr:         ":8080",
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Println("Server starting on port :8080")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/vinasLT/bid-service/internal/api/handlers"
	"github.com/vinasLT/bid-service/internal/config"
	"github.com/vinasLT/bid-service/internal/infrastructure/httpclient"
	"github.com/vinasLT/bid-service/internal/infrastructure/mysql"
	"github.com/vinasLT/bid-service/internal/infrastructure/redis"
	"github.com/vinasLT/bid-service/internal/services"
	"github.com/vinasLT/bid-service/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.Log.Level)
	log.Info("Starting bid service", "config", cfg.GetConfigString())

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("Failed to connect to MySQL", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	// Test MySQL connection
	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to ping MySQL", "error", err)
		os.Exit(1)
	}

	// Initialize repository
	bidRepo := mysql.NewMySQLBidRepository(db)

	// Initialize remote collaborators
	auctionData := httpclient.NewAuctionAPIClient(cfg.Services.AuctionAPIURL, cfg.Services.RequestTimeout)
	ledger := httpclient.NewLedgerClient(cfg.Services.LedgerURL, cfg.Services.RequestTimeout)
	identity := httpclient.NewIdentityClient(cfg.Services.IdentityURL, cfg.Services.RequestTimeout)
	eventPublisher := redis.NewEventPublisher(rdb)

	// Initialize workflow services
	placementService := services.NewPlacementService(
		bidRepo,
		auctionData,
		ledger,
		identity,
		eventPublisher,
		cfg.Bidding.AuctionStartCutoff,
		log,
	)
	outcomeService := services.NewOutcomeService(
		bidRepo,
		ledger,
		identity,
		eventPublisher,
		log,
	)

	// Initialize funds-hold reconciler
	reconciler := services.NewFundsHoldReconciler(
		bidRepo,
		ledger,
		cfg.Bidding.ReconcileInterval,
		cfg.Bidding.ReconcileGrace,
		log,
	)
	if err := reconciler.Start(context.Background()); err != nil {
		log.Error("Failed to start funds-hold reconciler", "error", err)
		os.Exit(1)
	}

	// Initialize handlers
	bidHandler := handlers.NewBidHandler(placementService, outcomeService, bidRepo, log)

	// Setup routes
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	api := e.Group("/api/v1")
	bidHandler.Register(api)

	// Start HTTP server
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Info("Starting bid service", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down bid service...")

	// Graceful shutdown
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := reconciler.Stop(); err != nil {
		log.Error("Failed to stop reconciler", "error", err)
	}

	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Bid service stopped")
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"itemmarket-rest-api/internal/cache"
	"itemmarket-rest-api/internal/config"
	"itemmarket-rest-api/internal/handler"
	"itemmarket-rest-api/internal/item"
	"itemmarket-rest-api/internal/market"
	"itemmarket-rest-api/internal/middleware"
	"itemmarket-rest-api/internal/repository"
	"itemmarket-rest-api/internal/router"
	"itemmarket-rest-api/internal/service"

	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting ItemMarket API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	codec := item.JSONCodec{}

	// Initialize market repository based on config
	var marketRepo repository.MarketRepository
	switch cfg.MarketDB.Type {
	case "postgres", "postgresql":
		pgRepo, err := repository.NewPostgresMarketRepository(cfg.MarketDB.PostgresDSN(), codec)
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		marketRepo = pgRepo
		log.Println("PostgreSQL market repository initialized")
	case "mysql":
		myRepo, err := repository.NewMySQLMarketRepository(cfg.MarketDB.MySQLDSN(), codec)
		if err != nil {
			log.Fatalf("Failed to initialize MySQL: %v", err)
		}
		marketRepo = myRepo
		log.Println("MySQL market repository initialized")
	case "memory":
		marketRepo = repository.NewMemoryMarketRepository(codec)
		log.Println("In-memory market repository initialized (data is not persisted)")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLiteMarketRepository(cfg.MarketDB.Path, codec)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		marketRepo = sqliteRepo
		log.Println("SQLite market repository initialized")
	}
	defer marketRepo.Close()

	// Initialize Redis client (optional; token sessions and the shared
	// cache fall back to in-process alternatives without it)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddress(),
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed: %v", err)
		redisClient = nil
	} else {
		log.Println("Redis client initialized")
	}
	cancel()

	var appCache cache.Cache
	if redisClient != nil {
		appCache = cache.NewRedisCache(redisClient, "")
	} else {
		appCache = cache.NewMemoryCache()
	}

	var tokenService *service.TokenService
	if redisClient != nil {
		tokenService = service.NewTokenService(redisClient)
	}

	// Build the ledger and load active listings into the index
	ledger := market.NewLedger(marketRepo, marketRepo)

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := ledger.Initialize(initCtx); err != nil {
		log.Fatalf("Failed to load active listings: %v", err)
	}
	cancel()
	log.Printf("Ledger initialized with %d active listings", ledger.ActiveCount())

	// Start the expiry sweeper
	sweeper := service.NewExpirySweeper(ledger, service.SweeperConfig{
		SweepInterval: cfg.Market.SweepInterval,
		SweepTimeout:  cfg.Market.SweepTimeout,
	})
	sweeper.Start()
	defer sweeper.Stop()

	// Initialize handlers
	healthHandler := handler.New()
	listingHandler := handler.NewListingHandler(ledger, marketRepo, cfg.Market.PageSize)
	transactionHandler := handler.NewTransactionHandler(marketRepo, appCache, cfg.Cache.TTL, cfg.Market.MaxRecent)
	adminHandler := handler.NewAdminHandler(ledger, marketRepo, sweeper, cfg.MarketDB.Type)

	var authHandler *handler.AuthHandler
	if tokenService != nil {
		authHandler = handler.NewAuthHandler(tokenService, cfg.Auth.Keys())
	}

	// Create auth middleware with injected dependencies
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		TokenService: tokenService,
		APIKeys:      cfg.Auth.Keys(),
	})

	// Create router
	r := router.New(router.Config{
		Handler:            healthHandler,
		ListingHandler:     listingHandler,
		TransactionHandler: transactionHandler,
		AdminHandler:       adminHandler,
		AuthHandler:        authHandler,
		AuthMiddleware:     authMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}

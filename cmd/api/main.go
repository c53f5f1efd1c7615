package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tradepost-rest-api/internal/cache"
	"tradepost-rest-api/internal/config"
	"tradepost-rest-api/internal/handler"
	"tradepost-rest-api/internal/middleware"
	"tradepost-rest-api/internal/repository"
	"tradepost-rest-api/internal/router"
	"tradepost-rest-api/internal/service"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting TradePost API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize ledger store based on config
	var ledger repository.LedgerStore
	switch cfg.Ledger.Type {
	case "mysql":
		mysqlLedger, err := repository.NewMySQLLedger(cfg.Ledger.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to initialize MySQL ledger: %v", err)
		}
		ledger = mysqlLedger
		log.Println("MySQL ledger initialized")
	default: // sqlite
		sqliteLedger, err := repository.NewSQLiteLedger(cfg.Ledger.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite ledger: %v", err)
		}
		ledger = sqliteLedger
		log.Println("SQLite ledger initialized")
	}
	defer ledger.Close()

	// Initialize session token cache (Redis in production, memory fallback)
	var tokenCache cache.Cache
	if cfg.Cache.Type == "redis" {
		redisCache, err := cache.NewRedisCache(cache.RedisCacheConfig{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Printf("Warning: Redis connection failed, using memory cache: %v", err)
			tokenCache = cache.NewMemoryCache()
		} else {
			defer redisCache.Close()
			tokenCache = redisCache
			log.Println("Redis token cache initialized")
		}
	} else {
		tokenCache = cache.NewMemoryCache()
	}

	// Initialize services
	userService := service.NewUserService(ledger)
	listingService := service.NewListingService(ledger)
	inboxService := service.NewInboxService(ledger)
	settlementEngine := service.NewSettlementEngine(ledger)
	tokenService := service.NewTokenService(tokenCache)

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	userHandler := handler.NewUserHandler(userService)
	listingHandler := handler.NewListingHandler(listingService)
	tradeHandler := handler.NewTradeHandler(settlementEngine)
	inboxHandler := handler.NewInboxHandler(inboxService)
	authHandler := handler.NewAuthHandler(tokenService, userService)
	adminHandler := handler.NewAdminHandler(userService, ledger, cfg.App.AdminKey)

	// Create auth middleware with injected dependencies (no globals)
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		TokenService: tokenService,
		Resolver:     userService,
	})

	// Create router
	r := router.New(router.Config{
		Handler:        healthHandler,
		UserHandler:    userHandler,
		ListingHandler: listingHandler,
		TradeHandler:   tradeHandler,
		InboxHandler:   inboxHandler,
		AuthHandler:    authHandler,
		AdminHandler:   adminHandler,
		AuthMiddleware: authMiddleware,
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

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

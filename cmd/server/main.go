package main

import (
	"context"   // Context for startup checks and shutdown
	"errors"    // Server close detection
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Signal notification
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"ppob_wallet/internal/api"            // HTTP handlers
	"ppob_wallet/internal/cache"          // Redis read cache
	"ppob_wallet/internal/config"         // Configuration
	"ppob_wallet/internal/db"             // Database connection
	"ppob_wallet/internal/domain"         // Invoice schemes
	"ppob_wallet/internal/events"         // NATS publisher
	"ppob_wallet/internal/ledger"         // Ledger operations
	"ppob_wallet/internal/metrics"        // Prometheus collectors
	"ppob_wallet/internal/store"          // gorm store
	"ppob_wallet/internal/store/memstore" // In-memory store

	"github.com/gin-gonic/gin"                       // Gin web framework
	"github.com/prometheus/client_golang/prometheus" // Metrics registry
	"github.com/redis/go-redis/v9"                   // Redis client
	"github.com/sirupsen/logrus"                     // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	log := config.SetupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Persistence
	var ledgerStore ledger.Store
	if cfg.DBDriver == config.DriverMemory {
		ledgerStore = memstore.New(db.DefaultServices...)
		log.Warn("Using in-memory store, data is lost on restart")
	} else {
		gdb, err := db.Open(cfg)
		if err != nil {
			log.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
		}
		ledgerStore = store.New(gdb)
	}

	invoices, err := domain.NewInvoiceGenerator(cfg.InvoiceScheme)
	if err != nil {
		log.Fatalf("invalid INVOICE_SCHEME: %v", err)
	}

	registry := prometheus.NewRegistry()
	opts := []ledger.Option{
		ledger.WithLogger(log),
		ledger.WithInvoiceGenerator(invoices),
		ledger.WithRecorder(metrics.NewLedger(registry)),
	}

	// Setup Redis client
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		opts = append(opts, ledger.WithCache(cache.New(redisClient), cfg.CacheTTL))
	}

	// Setup NATS
	nc, err := events.Connect(cfg.NATSURL, log)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}
	if nc != nil {
		defer nc.Drain()
		opts = append(opts, ledger.WithPublisher(events.NewPublisher(nc)))
	}

	svc := ledger.NewService(ledgerStore, opts...)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := api.NewRouter(api.RouterConfig{
		Ledger:    svc,
		JWTSecret: cfg.JWTSecret,
		Metrics:   metrics.Handler(registry),
		Logger:    log,
	})
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		log.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.AppPort, "driver": cfg.DBDriver}).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
	log.Info("Server stopped")
}

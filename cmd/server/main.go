package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-backend/internal/auth"
	"pos-backend/internal/cache"
	"pos-backend/internal/config"
	"pos-backend/internal/database"
	"pos-backend/internal/db"
	"pos-backend/internal/handlers"
	"pos-backend/internal/health"
	httpRouter "pos-backend/internal/http"
	"pos-backend/internal/locks"
	"pos-backend/internal/middleware"
	"pos-backend/internal/monitoring"
	"pos-backend/internal/repositories"
	"pos-backend/internal/services"
	"pos-backend/internal/storage"
	"pos-backend/internal/timeutil"
	"pos-backend/migrations"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	migrateOnly := flag.Bool("migrate", false, "Run database migrations and exit")
	flag.Parse()

	// Load configuration
	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}
	timeutil.SetLocation(cfg.Server.TimeZone)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Run database migrations
	log.Println("Running database migrations...")
	if err := database.NewMigrator(pool, migrations.FS).RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if *migrateOnly {
		return
	}

	store := repositories.NewPostgresStore(pool)
	clock := timeutil.SystemClock{}
	healthChecker := health.NewHealthChecker().Require("database", health.PingFunc(pool.Ping))
	prometheus.MustRegister(monitoring.NewPoolCollector(monitoring.FromPool(pool)))

	// Redis is optional: without it locks are process-local and wallets are
	// read from Postgres every time.
	var locker locks.Locker = locks.NewLocal()
	var walletCache services.WalletCache
	if cfg.Redis.Enabled {
		if err := cache.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			log.Printf("[Redis] Cache unavailable: %v (using in-process locks)", err)
		} else {
			defer cache.Close()
			redisLocker, err := cache.NewRedisLocker(30 * time.Second)
			if err != nil {
				log.Fatalf("Failed to create Redis locker: %v", err)
			}
			locker = redisLocker
			walletCache = cache.NewWalletCache(5 * time.Minute)
			healthChecker.Optional("redis", health.PingFunc(cache.Ping))
			log.Println("[Redis] Distributed locks and wallet cache enabled")
		}
	}

	// Services
	ledger := services.NewLedgerService(store, locker, clock, services.LedgerConfig{
		HouseWalletID:   cfg.Ledger.HouseWalletID,
		DefaultCurrency: cfg.Ledger.DefaultCurrency,
	})
	ledger.Cache = walletCache
	costs := services.NewCostService(store, locker, clock, ledger)
	receipts := services.NewReceiptService(store, locker, clock, ledger)
	recurrenceService := services.NewRecurrenceService(store, locker, clock)
	bookings := services.NewBookingService(store, clock)
	coordinator := services.NewCoordinator(store, receipts, costs, recurrenceService, cfg.Scheduler.Workers)
	scheduler := services.NewScheduler(coordinator, clock, cfg.Scheduler.Interval, locker)

	var archive services.Archiver
	if cfg.Storage.Enabled() {
		s3Archive, err := storage.NewS3ArchiveFromConfig(ctx, cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to configure statement storage: %v", err)
		}
		archive = s3Archive
		log.Printf("[Storage] Statements archived to bucket %s", cfg.Storage.Bucket)
	}
	statements := services.NewStatementService(ledger, archive, cfg.Storage.StatementPrefix, clock)

	// HTTP
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpirationHours)*time.Hour, clock)
	router := httpRouter.NewRouter(httpRouter.Handlers{
		Wallets:  handlers.NewWalletHandler(ledger, statements),
		Costs:    handlers.NewCostHandler(costs, recurrenceService, clock),
		Receipts: handlers.NewReceiptHandler(receipts, coordinator),
		Bookings: handlers.NewBookingHandler(bookings, recurrenceService, clock),
		Sweep:    handlers.NewSweepHandler(scheduler),
		Health:   handlers.NewHealthHandler(healthChecker),
	}, middleware.NewAuthMiddleware(jwtManager))

	corsMiddleware := middleware.NewCORS(cfg)
	handler := middleware.PanicRecovery(middleware.RequestLogger(corsMiddleware(router)))

	if cfg.Scheduler.Enabled {
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server running on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

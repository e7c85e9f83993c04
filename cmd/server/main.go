package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HammerMeetNail/odinbook/internal/config"
	"github.com/HammerMeetNail/odinbook/internal/database"
	"github.com/HammerMeetNail/odinbook/internal/handlers"
	"github.com/HammerMeetNail/odinbook/internal/logging"
	"github.com/HammerMeetNail/odinbook/internal/middleware"
	"github.com/HammerMeetNail/odinbook/internal/services"
	"github.com/HammerMeetNail/odinbook/internal/store"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

// stores bundles the persistence backend selected by STORE_DRIVER.
type stores struct {
	friendships services.FriendshipStore
	accounts    services.AccountStore
	health      handlers.HealthChecker
	close       func()
}

func run() error {
	// Initialize logger
	logger := logging.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Server.Debug {
		logger.SetLevel(logging.LevelDebug)
		logging.SetDefaultLevel(logging.LevelDebug)
		logger.Debug("Debug logging enabled", map[string]interface{}{
			"env": cfg.Server.Environment,
		})
	}

	logger.Info("Starting odinbook server...", map[string]interface{}{
		"store": cfg.Store.Driver,
	})

	st, err := openStores(cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	// Connect to Redis
	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()
	logger.Info("Connected to Redis")

	// Initialize services
	friendService := services.NewFriendService(st.friendships, st.accounts)
	accountService := services.NewAccountService(st.accounts)
	tokenService := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	handler := newRouter(routerDeps{
		health:          handlers.NewHealthHandler(cfg.Store.Driver, st.health, redisDB),
		auth:            handlers.NewAuthHandler(accountService, tokenService, friendService),
		friends:         handlers.NewFriendHandler(friendService),
		authMiddleware:  middleware.NewAuthMiddleware(tokenService, accountService),
		friendLimiter:   middleware.NewFriendRequestRateLimiter(redisDB, cfg.RateLimit.FriendRequestsPerHour),
		loginLimiter:    middleware.NewLoginRateLimiter(redisDB, cfg.RateLimit.LoginsPerMinute),
		securityHeaders: middleware.NewSecurityHeaders(cfg.Server.Secure),
		compress:        middleware.NewCompress(),
		requestLogger:   middleware.NewRequestLogger(logger),
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{
		"addr": addr,
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}

func poolOptions(cfg *config.Config) database.PoolOptions {
	return database.PoolOptions{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	}
}

func openStores(cfg *config.Config, logger *logging.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		return openMongoStores(cfg, logger)
	default:
		return openPostgresStores(cfg, logger)
	}
}

func openPostgresStores(cfg *config.Config, logger *logging.Logger) (*stores, error) {
	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN(), poolOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	logger.Info("Connected to PostgreSQL")

	// Run migrations
	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	version, err := migrator.Run("up")
	_ = migrator.Close()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("Migrations completed", map[string]interface{}{"version": version})

	adapter := store.NewPoolAdapter(db.Pool)
	return &stores{
		friendships: store.NewPostgresFriendships(adapter),
		accounts:    store.NewPostgresAccounts(adapter),
		health:      db,
		close:       db.Close,
	}, nil
}

func openMongoStores(cfg *config.Config, logger *logging.Logger) (*stores, error) {
	logger.Info("Connecting to MongoDB", map[string]interface{}{
		"database": cfg.Mongo.Database,
	})
	mdb, err := database.NewMongoDB(cfg.Mongo.URI, cfg.Mongo.Database, poolOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	logger.Info("Connected to MongoDB")

	closeMongo := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mdb.Close(ctx); err != nil {
			logger.Warn("Closing MongoDB", map[string]interface{}{"error": err.Error()})
		}
	}

	friendships := store.NewMongoFriendships(mdb.Database())
	accounts := store.NewMongoAccounts(mdb.Database())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := friendships.EnsureIndexes(ctx); err != nil {
		closeMongo()
		return nil, fmt.Errorf("creating friendship indexes: %w", err)
	}
	if err := accounts.EnsureIndexes(ctx); err != nil {
		closeMongo()
		return nil, fmt.Errorf("creating account indexes: %w", err)
	}
	logger.Info("MongoDB indexes ensured")

	return &stores{
		friendships: friendships,
		accounts:    accounts,
		health:      mdb,
		close:       closeMongo,
	}, nil
}

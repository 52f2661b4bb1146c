package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/pulsechat/internal/api"
	"github.com/lalith-99/pulsechat/internal/auth"
	"github.com/lalith-99/pulsechat/internal/cache"
	"github.com/lalith-99/pulsechat/internal/config"
	"github.com/lalith-99/pulsechat/internal/db"
	"github.com/lalith-99/pulsechat/internal/observ"
	"github.com/lalith-99/pulsechat/internal/realtime"
	"github.com/lalith-99/pulsechat/internal/repository"
	"github.com/lalith-99/pulsechat/internal/repository/cached"
	"github.com/lalith-99/pulsechat/internal/repository/memory"
	"github.com/lalith-99/pulsechat/internal/repository/postgres"
	"github.com/lalith-99/pulsechat/internal/service"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Load config
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ---------------------------------------------------------------
	// 2. Create logger
	// ---------------------------------------------------------------
	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// Startup gets Background(): there's no request deadline yet, and
	// connecting takes as long as it takes. SIGINT/SIGTERM cancel it.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := map[string]api.HealthCheck{}

	// ---------------------------------------------------------------
	// 3. Stores
	//
	// Both backends satisfy the same repository interfaces; nothing
	// above this block knows which one is running.
	// ---------------------------------------------------------------
	var (
		userRepo    repository.UserRepository
		messageRepo repository.MessageRepository
	)
	switch cfg.StoreBackend {
	case config.StorePostgres:
		database, err := db.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer database.Close()

		if cfg.RunMigrations {
			if err := database.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		health["postgres"] = database.Health
		userRepo = postgres.NewUserStore(database.Pool())
		messageRepo = postgres.NewMessageStore(database.Pool())
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		userRepo = memory.NewUserStore()
		messageRepo = memory.NewMessageStore()
	}

	// ---------------------------------------------------------------
	// 4. Cache
	//
	// The cache decorates the stores. Without REDIS_URL the stores are
	// used directly; reads are slower but just as correct.
	// ---------------------------------------------------------------
	var redisCache *cache.Redis
	if cfg.RedisURL != "" {
		redisCache, err = cache.Connect(ctx, cfg.RedisURL, cfg.CacheTTL, logger)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisCache.Close()

		health["redis"] = redisCache.Health
		userRepo = cached.NewUserStore(userRepo, redisCache, logger)
		messageRepo = cached.NewMessageStore(messageRepo, redisCache, logger)
	}

	// ---------------------------------------------------------------
	// 5. Tokens and broker
	// ---------------------------------------------------------------
	tokens, err := auth.NewTokenService(
		cfg.JWTSecret, cfg.JWTAlgorithm,
		cfg.ChannelTokenSecret, cfg.ChannelTokenAlgorithm,
		auth.WithChannelTTL(cfg.ChannelTokenTTL),
	)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	var (
		publisher realtime.Publisher
		gateway   *realtime.Gateway
		wsURL     = cfg.CentrifugoWSURL
	)
	switch cfg.Broker {
	case config.BrokerCentrifugo:
		publisher = realtime.NewCentrifugoClient(cfg.CentrifugoAPIURL, cfg.CentrifugoAPIKey, cfg.PublishTimeout)
	case config.BrokerRedis:
		broker := realtime.NewRedisBroker(redisCache.Client())
		publisher = broker
		gateway = realtime.NewGateway(broker, tokens, logger)
		wsURL = fmt.Sprintf("ws://localhost:%s/v1/ws", cfg.Port)
	}
	fanout := realtime.NewFanout(publisher, logger)

	// ---------------------------------------------------------------
	// 6. Services
	// ---------------------------------------------------------------
	var directoryCache cached.Cache
	if redisCache != nil {
		directoryCache = redisCache
	}
	presence := service.NewPresenceService(userRepo, fanout, logger)
	accounts := service.NewAccountService(
		userRepo,
		auth.NewBcryptHasher(cfg.BcryptCost),
		tokens,
		presence,
		directoryCache,
		service.AccountConfig{AccessTokenTTL: cfg.AccessTokenTTL, WSURL: wsURL},
		logger,
	)
	messages := service.NewMessageService(messageRepo, userRepo, accounts, fanout, logger)
	calls := service.NewCallRelay(fanout, logger)

	// ---------------------------------------------------------------
	// 7. HTTP server
	// ---------------------------------------------------------------
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Deps{
		Accounts: accounts,
		Presence: presence,
		Messages: messages,
		Calls:    calls,
		Gateway:  gateway,
		Health:   health,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting PulseChat",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.String("store", cfg.StoreBackend),
		zap.String("broker", cfg.Broker),
		zap.Bool("cache", redisCache != nil),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarkd/internal/config"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/redis"
	"github.com/MrSnakeDoc/bookmarkd/internal/service"
	"github.com/MrSnakeDoc/bookmarkd/internal/store"
	"github.com/MrSnakeDoc/bookmarkd/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/bookmarkd/internal/store/redis"
	"github.com/MrSnakeDoc/bookmarkd/internal/version"
)

// App owns the store connection and the bookmark service built on it.
type App struct {
	cfg         *config.Config
	logger      logger.Logger
	store       store.DocumentStore
	redisClient *goredis.Client
	bookmarks   *service.BookmarkService
}

// New opens the configured store. It fails fast when Redis cannot be reached
// within REDIS_CONNECT_TIMEOUT.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: log}

	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("using the in-memory store, bookmarks will not survive a restart")
		a.store = memory.New()
	default:
		client, err := redis.Connect(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.redisClient = client
		a.store = redisstore.NewStore(client, cfg.RedisMaxTxRetries)
	}

	if !cfg.SerializeWrites {
		log.Warn("write serialization disabled, concurrent updates of one user may be lost")
	}

	a.bookmarks = service.NewBookmarkService(a.store, log, service.Options{
		SerializeWrites: cfg.SerializeWrites,
		StrictDocuments: cfg.StrictDocuments,
		FaviconService:  cfg.FaviconService,
	})
	return a, nil
}

// Bookmarks exposes the service for one-shot commands.
func (a *App) Bookmarks() *service.BookmarkService { return a.bookmarks }

// Serve runs the HTTP server until ctx is canceled or SIGINT/SIGTERM arrives,
// then shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	a.logger.Infof("🚀 Starting bookmarkd %s on %s (store=%s)", version.String(), a.cfg.ListenPort, a.store.Name())

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := httpserver.New(a.cfg, a.logger, deps.Deps{
		Logger:       a.logger,
		Bookmarks:    a.bookmarks,
		Store:        a.store,
		APIKey:       a.cfg.APIKey,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedCIDRS: a.cfg.AllowedCIDRS,
		TrustProxy:   a.cfg.TrustProxy,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ bookmarkd stopped cleanly")
	return nil
}

// Close releases the store connection.
func (a *App) Close() {
	if a.redisClient == nil {
		return
	}
	if err := a.redisClient.Close(); err != nil {
		a.logger.Warnf("failed to close redis: %v", err)
		return
	}
	a.logger.Info("✅ Redis closed cleanly")
}

// @title Emoji Feed API
// @version 1.0
// @description emoji 帖子发布与 feed 查询
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/emoji-feed/config"
	"github.com/d60-Lab/emoji-feed/internal/api"
	"github.com/d60-Lab/emoji-feed/internal/api/handler"
	"github.com/d60-Lab/emoji-feed/internal/api/middleware"
	"github.com/d60-Lab/emoji-feed/internal/identity"
	"github.com/d60-Lab/emoji-feed/internal/model"
	"github.com/d60-Lab/emoji-feed/internal/ratelimit"
	"github.com/d60-Lab/emoji-feed/internal/repository"
	"github.com/d60-Lab/emoji-feed/internal/service"
	"github.com/d60-Lab/emoji-feed/internal/validate"
	"github.com/d60-Lab/emoji-feed/pkg/cache"
	"github.com/d60-Lab/emoji-feed/pkg/database"
	"github.com/d60-Lab/emoji-feed/pkg/logger"
	"github.com/d60-Lab/emoji-feed/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		}); err != nil {
			return err
		}
		defer sentry.Flush(2 * time.Second)
	}

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, &model.Post{}, &model.User{}); err != nil {
			return err
		}
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = cache.InitRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}

	users := repository.NewUserRepository(db)
	if err := seedUsers(ctx, users, cfg.Identity.SeedUsers); err != nil {
		return err
	}

	svc := service.NewPostService(
		repository.NewPostRepository(db),
		newIdentityProvider(cfg, users, rdb),
		newLimiter(cfg, rdb),
		validate.New(validate.MatcherFor(cfg.Posts.EmojiMode), cfg.Posts.MaxLength),
		service.WithPageSize(cfg.Feed.PageSize),
	)

	verifier, err := middleware.NewVerifier(cfg.Auth)
	if err != nil {
		return err
	}

	gin.SetMode(cfg.Server.Mode)
	h := handler.New(svc, healthChecks(db, rdb))
	router := api.SetupRouter(h, verifier, api.RouterOptions{
		ServiceName: cfg.Tracing.ServiceName,
		Tracing:     cfg.Tracing.Enabled,
		Swagger:     cfg.Server.Mode != gin.ReleaseMode,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newIdentityProvider(cfg *config.Config, users repository.UserRepository, rdb *redis.Client) identity.Provider {
	var p identity.Provider
	switch cfg.Identity.Provider {
	case "http":
		p = identity.NewHTTPProvider(identity.HTTPOptions{
			BaseURL:      cfg.Identity.BaseURL,
			SecretKey:    cfg.Identity.SecretKey,
			Timeout:      cfg.Identity.Timeout,
			RequestsPerS: cfg.Identity.RequestsPerS,
			Burst:        cfg.Identity.Burst,
		})
	default:
		p = identity.NewDirectoryProvider(users)
	}
	if cfg.Identity.CacheTTL > 0 && rdb != nil {
		p = identity.NewCachedProvider(p, rdb, cfg.Identity.CacheTTL)
	}
	logger.Info("identity provider ready", zap.String("provider", cfg.Identity.Provider), zap.Duration("cache_ttl", cfg.Identity.CacheTTL))
	return p
}

func newLimiter(cfg *config.Config, rdb *redis.Client) ratelimit.Limiter {
	policy := ratelimit.Policy{Limit: cfg.RateLimit.Limit, Window: cfg.RateLimit.Window, Prefix: cfg.RateLimit.Prefix}
	if cfg.RateLimit.Backend == "redis" && rdb != nil {
		return ratelimit.NewRedisLimiter(rdb, policy, nil)
	}
	logger.Warn("using in-process rate limiter; limits are not shared across instances")
	return ratelimit.NewMemoryLimiter(policy, nil)
}

func seedUsers(ctx context.Context, users repository.UserRepository, seeds []config.SeedUser) error {
	for _, s := range seeds {
		u := &model.User{ID: s.ID, FirstName: s.FirstName, LastName: s.LastName, Email: s.Email, ProfileImageURL: s.ProfileImageURL}
		if err := users.Upsert(ctx, u); err != nil {
			return err
		}
	}
	if len(seeds) > 0 {
		logger.Info("seeded directory users", zap.Int("count", len(seeds)))
	}
	return nil
}

func healthChecks(db *gorm.DB, rdb *redis.Client) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}

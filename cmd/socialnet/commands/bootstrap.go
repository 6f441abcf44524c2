package commands

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-graph/config"
	"github.com/d60-Lab/social-graph/internal/api/handler"
	"github.com/d60-Lab/social-graph/internal/cache"
	"github.com/d60-Lab/social-graph/internal/metrics"
	"github.com/d60-Lab/social-graph/internal/repository"
	"github.com/d60-Lab/social-graph/internal/service"
	"github.com/d60-Lab/social-graph/pkg/database"
	"github.com/d60-Lab/social-graph/pkg/logger"
)

// app holds everything a command needs once the store is open.
type app struct {
	cfg      *config.Config
	store    *repository.Store
	rdb      *redis.Client
	metrics  *metrics.Collector
	users    service.UserService
	thoughts service.ThoughtService
	ping     func(context.Context) error
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &app{cfg: cfg, metrics: metrics.New()}
	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	if cfg.Redis.Addr != "" {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			// the cache falls back to the store per request
			logger.Warn("redis unreachable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cache.Wrap(a.store, a.rdb, cfg.Redis.TTL, a.metrics)
	}

	a.users = service.NewUserService(a.store.Users, a.store.Thoughts, a.metrics)
	a.thoughts = service.NewThoughtService(a.store.Users, a.store.Thoughts, a.metrics)
	logger.Info("store ready",
		zap.String("driver", a.store.Driver),
		zap.Bool("cache", a.rdb != nil))
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	driver, err := database.DetectDriver(a.cfg.Database.URI)
	if err != nil {
		return err
	}

	if driver == database.DriverMongo {
		client, db, err := database.InitMongo(ctx, a.cfg)
		if err != nil {
			return err
		}
		if err := repository.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return fmt.Errorf("ensure indexes: %w", err)
		}
		a.store = repository.NewMongoStore(client, db)
		a.ping = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		return nil
	}

	db, err := database.InitDB(a.cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	a.store = repository.NewGormStore(db)
	a.ping = sqlDB.PingContext
	return nil
}

func (a *app) handler() *handler.Handler {
	return handler.NewHandler(a.users, a.thoughts, func(c *gin.Context) error {
		return a.ping(c.Request.Context())
	})
}

func (a *app) close(ctx context.Context) {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			logger.Warn("close redis", zap.Error(err))
		}
	}
	if err := a.store.Close(ctx); err != nil {
		logger.Warn("close store", zap.Error(err))
	}
	_ = logger.Sync()
}

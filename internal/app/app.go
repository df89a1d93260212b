// Package app assembles the plugin runtime shared by the server and the
// setup command.
package app

import (
	"context"
	"fmt"

	"gcsmedia/backend/internal/admin"
	"gcsmedia/backend/internal/filestorage"
	"gcsmedia/backend/internal/hooks"
	"gcsmedia/backend/internal/options"
	"gcsmedia/backend/internal/plugin"
	"gcsmedia/backend/internal/settings"
	"gcsmedia/backend/internal/uploads"
	"gcsmedia/backend/pkg/config"
	phxlog "gcsmedia/backend/pkg/log"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds the hook bus and everything subscribed to it.
type App struct {
	Bus      *hooks.Bus
	Store    options.Store
	Registry *settings.Registry
	Menu     *admin.Menu
	Uploads  *uploads.Uploads
	Plugin   *plugin.Plugin
}

// ClientInfo identifies this build in the x-goog-api-client header.
func ClientInfo(cfg config.AppConfig) filestorage.ClientInfo {
	return filestorage.ClientInfo{HostVersion: cfg.HostVersion, PluginVersion: cfg.AppVersion}
}

// New registers the plugin on a fresh bus backed by store.
func New(cfg config.AppConfig, store options.Store) *App {
	a := &App{
		Bus:      hooks.New(),
		Store:    store,
		Registry: settings.NewRegistry(),
		Menu:     admin.NewMenu(),
		Uploads:  uploads.New(store),
	}
	a.Plugin = plugin.New(plugin.Config{
		Bus:           a.Bus,
		Store:         store,
		Registry:      a.Registry,
		Menu:          a.Menu,
		Uploads:       a.Uploads,
		Info:          ClientInfo(cfg),
		DefaultBucket: cfg.GCSBucketName,
	})
	a.Plugin.Register()
	return a
}

// Init fires admin_init so settings are registered before the first request.
func (a *App) Init(ctx context.Context) error {
	return a.Bus.DoAction(ctx, hooks.AdminInit)
}

// NewStore returns the gorm options store, wrapped in a redis read-through
// cache when REDIS_ADDR is set. The returned close func releases redis.
func NewStore(ctx context.Context, cfg config.AppConfig, db *gorm.DB) (options.Store, func() error, error) {
	var store options.Store = options.NewGormStore(db)
	if cfg.RedisAddr == "" {
		return store, func() error { return nil }, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	phxlog.L.Info("Options cache enabled", zap.String("redis_addr", cfg.RedisAddr), zap.Duration("ttl", cfg.OptionsCacheTTL))
	return options.NewCachedStore(store, rdb, cfg.OptionsCacheTTL), rdb.Close, nil
}

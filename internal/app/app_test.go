package app

import (
	"context"
	"testing"

	"gcsmedia/backend/internal/database"
	"gcsmedia/backend/internal/hooks"
	"gcsmedia/backend/internal/options"
	"gcsmedia/backend/internal/uploads"
	"gcsmedia/backend/pkg/config"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestNewWiresPlugin(t *testing.T) {
	ctx := context.Background()
	cfg := config.AppConfig{AppVersion: "0.1.9", HostVersion: "6.5.3", GCSBucketName: "seeded"}
	store := options.NewMemoryStore()

	a := New(cfg, store)
	require.NoError(t, a.Init(ctx))

	for _, filter := range []string{hooks.UploadDir, hooks.DeleteFile, hooks.AttachmentURL} {
		assert.True(t, a.Bus.HasFilter(filter), filter)
	}
	assert.True(t, a.Bus.HasAction(hooks.Activation))
	assert.Equal(t, []string{uploads.BucketOption, uploads.UseHTTPSOption}, a.Registry.Fields(uploads.OptionGroup))

	require.NoError(t, a.Plugin.Activate(ctx))
	bucket, _, _ := store.Get(ctx, uploads.BucketOption)
	assert.Equal(t, "seeded", bucket)

	assert.Equal(t, "wp/6.5.3 wp-gcs/0.1.9", ClientInfo(cfg).InfoHeader())
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	store, closeFn, err := NewStore(ctx, config.AppConfig{}, db)
	require.NoError(t, err)
	require.NoError(t, closeFn())
	_, ok := store.(*options.GormStore)
	assert.True(t, ok)

	_, _, err = NewStore(ctx, config.AppConfig{RedisAddr: "127.0.0.1:1"}, db)
	assert.Error(t, err)
}

package uploads

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gcsmedia/backend/internal/hooks"
	"gcsmedia/backend/internal/options"
	"gcsmedia/backend/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLocation() UploadLocation {
	return UploadLocation{
		Path:    "/var/www/wp-content/uploads/2016/11",
		URL:     "http://example.com/wp-content/uploads/2016/11",
		Subdir:  "/2016/11",
		Basedir: "/var/www/wp-content/uploads",
		BaseURL: "http://example.com/wp-content/uploads",
		Error:   "",
	}
}

func TestFilterUploadDir_NoBucketIsNoop(t *testing.T) {
	ctx := context.Background()
	store := options.NewMemoryStore()
	u := New(store)

	in := sampleLocation()
	assert.Equal(t, in, u.FilterUploadDir(ctx, in))

	require.NoError(t, store.Update(ctx, BucketOption, "   "))
	assert.Equal(t, in, u.FilterUploadDir(ctx, in))

	withError := UploadLocation{Error: "Unable to create directory"}
	assert.Equal(t, withError, u.FilterUploadDir(ctx, withError))
}

func TestFilterUploadDir_RewritesToBucket(t *testing.T) {
	ctx := context.Background()
	store := options.NewMemoryStore()
	require.NoError(t, store.Update(ctx, BucketOption, "b"))
	u := New(store)

	in := sampleLocation()
	in.Error = "kept"
	out := u.FilterUploadDir(ctx, in)

	assert.Equal(t, "gs://b/1/2016/11", out.Path)
	assert.Equal(t, "gs://b/1", out.Basedir)
	assert.Equal(t, "https://storage.googleapis.com/b/1/2016/11", out.URL)
	assert.Equal(t, "https://storage.googleapis.com/b/1", out.BaseURL)
	assert.Equal(t, "/2016/11", out.Subdir)
	assert.Equal(t, "kept", out.Error)
}

func TestFilterUploadDir_EmptySubdir(t *testing.T) {
	ctx := context.Background()
	store := options.NewMemoryStore()
	require.NoError(t, store.Update(ctx, BucketOption, "media"))
	u := New(store)

	out := u.FilterUploadDir(ctx, UploadLocation{})
	assert.Equal(t, "gs://media/1", out.Path)
	assert.Equal(t, "https://storage.googleapis.com/media/1", out.URL)
}

type brokenStore struct{ *options.MemoryStore }

func (b *brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("store unavailable")
}

func TestFilterUploadDir_StoreErrorIsNoop(t *testing.T) {
	u := New(&brokenStore{MemoryStore: options.NewMemoryStore()})
	in := sampleLocation()
	assert.Equal(t, in, u.FilterUploadDir(context.Background(), in))
}

func TestFilterDeleteFile(t *testing.T) {
	u := New(options.NewMemoryStore())
	for _, file := range []string{"", "gs://b/1/2016/11/cat.png", "/tmp/x", "anything at all"} {
		assert.Equal(t, file, u.FilterDeleteFile(context.Background(), file))
	}
}

func TestValidators(t *testing.T) {
	assert.False(t, ValidateUseHTTPS("0"))
	assert.True(t, ValidateUseHTTPS("1"))
	assert.False(t, ValidateUseHTTPS(""))
	assert.True(t, ValidateUseHTTPS("on"))

	assert.Equal(t, "my-bucket", ValidateBucket("  my-bucket \n"))
	assert.Equal(t, "Not A Valid Name!", ValidateBucket("Not A Valid Name!"))
}

func TestForms(t *testing.T) {
	ctx := context.Background()
	store := options.NewMemoryStore()
	u := New(store)

	var sb strings.Builder
	require.NoError(t, u.BucketForm(ctx, &sb))
	assert.Contains(t, sb.String(), `<input id="gcs_bucket" name="gcs_bucket" type="text" value="">`)

	sb.Reset()
	require.NoError(t, u.UseHTTPSForm(ctx, &sb))
	assert.Contains(t, sb.String(), `input id="gcs_use_https_for_media" name="gcs_use_https_for_media" type="checkbox"`)
	assert.NotContains(t, sb.String(), "checked")

	require.NoError(t, store.Update(ctx, BucketOption, `my"bucket`))
	require.NoError(t, store.Update(ctx, UseHTTPSOption, "1"))

	sb.Reset()
	require.NoError(t, u.BucketForm(ctx, &sb))
	assert.Contains(t, sb.String(), `value="my&#34;bucket"`)

	sb.Reset()
	require.NoError(t, u.UseHTTPSForm(ctx, &sb))
	assert.Contains(t, sb.String(), " checked>")
}

func TestRegisterSettings(t *testing.T) {
	ctx := context.Background()
	store := options.NewMemoryStore()
	reg := settings.NewRegistry()
	u := New(store)

	_, ok, err := store.Get(ctx, UseHTTPSOption)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, u.RegisterSettings(ctx, reg))
	v, ok, err := store.Get(ctx, UseHTTPSOption)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok, err = store.Get(ctx, BucketOption)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Update(ctx, UseHTTPSOption, "0"))
	require.NoError(t, u.RegisterSettings(ctx, reg))
	v, _, _ = store.Get(ctx, UseHTTPSOption)
	assert.Equal(t, "0", v, "registering again must not reset the option")

	assert.Equal(t, []string{BucketOption, UseHTTPSOption}, reg.Fields(OptionGroup))

	sanitized, err := reg.Sanitize(UseHTTPSOption, "yes")
	require.NoError(t, err)
	assert.Equal(t, "1", sanitized)
	sanitized, err = reg.Sanitize(UseHTTPSOption, "0")
	require.NoError(t, err)
	assert.Equal(t, "0", sanitized)
	sanitized, err = reg.Sanitize(BucketOption, " b ")
	require.NoError(t, err)
	assert.Equal(t, "b", sanitized)

	var sb strings.Builder
	require.NoError(t, reg.RenderSections(ctx, &sb, SettingsPage))
	assert.Equal(t, 1, strings.Count(sb.String(), `<input id="gcs_bucket"`))
	assert.Equal(t, 1, strings.Count(sb.String(), `<input id="gcs_use_https_for_media"`))
}

func TestSeedDefaults(t *testing.T) {
	ctx := context.Background()
	store := options.NewMemoryStore()
	u := New(store)

	require.NoError(t, u.SeedDefaults(ctx, ""))
	_, ok, _ := store.Get(ctx, BucketOption)
	assert.False(t, ok)
	v, _, _ := store.Get(ctx, UseHTTPSOption)
	assert.Equal(t, "1", v)

	require.NoError(t, u.SeedDefaults(ctx, " seeded "))
	v, _, _ = store.Get(ctx, BucketOption)
	assert.Equal(t, "seeded", v)

	require.NoError(t, u.SeedDefaults(ctx, "other"))
	v, _, _ = store.Get(ctx, BucketOption)
	assert.Equal(t, "seeded", v)
}

func TestFilterAttachmentURL(t *testing.T) {
	ctx := context.Background()
	store := options.NewMemoryStore()
	u := New(store)

	insecure := "http://storage.googleapis.com/b/1/2016/11/cat.png"
	assert.Equal(t, insecure, u.FilterAttachmentURL(ctx, insecure))

	require.NoError(t, store.Update(ctx, UseHTTPSOption, "1"))
	assert.Equal(t, "https://storage.googleapis.com/b/1/2016/11/cat.png", u.FilterAttachmentURL(ctx, insecure))
	assert.Equal(t, "http://localhost/uploads/cat.png", u.FilterAttachmentURL(ctx, "http://localhost/uploads/cat.png"))
}

func TestRegisterOnBus(t *testing.T) {
	ctx := context.Background()
	store := options.NewMemoryStore()
	require.NoError(t, store.Update(ctx, BucketOption, "b"))
	bus := hooks.New()
	New(store).Register(bus)

	assert.True(t, bus.HasFilter(hooks.UploadDir))
	assert.True(t, bus.HasFilter(hooks.DeleteFile))

	out := hooks.ApplyFilters(ctx, bus, hooks.UploadDir, UploadLocation{Subdir: "/2016/11"})
	assert.Equal(t, "gs://b/1/2016/11", out.Path)
	assert.Equal(t, "gs://b/1/x.png", hooks.ApplyFilters(ctx, bus, hooks.DeleteFile, "gs://b/1/x.png"))
}

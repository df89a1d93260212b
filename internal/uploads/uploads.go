// Package uploads rewrites the media upload location to a Cloud Storage
// bucket and owns the settings that configure it.
package uploads

import (
	"context"
	"html/template"
	"io"
	"strings"

	"gcsmedia/backend/internal/hooks"
	"gcsmedia/backend/internal/options"
	"gcsmedia/backend/internal/settings"
	phxlog "gcsmedia/backend/pkg/log"
	phxmetrics "gcsmedia/backend/pkg/metrics"

	"go.uber.org/zap"
)

const (
	BucketOption   = "gcs_bucket"
	UseHTTPSOption = "gcs_use_https_for_media"

	OptionGroup     = "gcs"
	SettingsPage    = "gcs"
	SettingsSection = "gcs-uploads"

	// StorageBaseURL is the public HTTPS endpoint objects are served from.
	StorageBaseURL = "https://storage.googleapis.com/"

	// namespaceSegment sits between the bucket and the subdir of every
	// rewritten location. Existing objects live under it, so it is kept as is.
	namespaceSegment = "1"
)

// UploadLocation is the upload-location descriptor passed through the
// upload_dir filter.
type UploadLocation struct {
	Path    string `json:"path"`
	URL     string `json:"url"`
	Subdir  string `json:"subdir"`
	Basedir string `json:"basedir"`
	BaseURL string `json:"baseurl"`
	Error   string `json:"error"`
}

// Uploads reads the bucket settings from the options store on every call.
type Uploads struct {
	store  options.Store
	logger *zap.Logger
}

// New returns the upload filters reading their settings from store.
func New(store options.Store) *Uploads {
	return &Uploads{store: store, logger: phxlog.L.Named("uploads")}
}

// Bucket returns the configured bucket, or "" when none is set.
func (u *Uploads) Bucket(ctx context.Context) (string, error) {
	bucket, err := options.GetString(ctx, u.store, BucketOption, "")
	return strings.TrimSpace(bucket), err
}

// FilterUploadDir points values at gs://{bucket}/1 and the matching public
// URL. Without a bucket values is returned unchanged.
func (u *Uploads) FilterUploadDir(ctx context.Context, values UploadLocation) UploadLocation {
	bucket, err := u.Bucket(ctx)
	if err != nil {
		u.logger.Warn("Failed to read bucket option, leaving upload location unchanged", zap.Error(err))
	}
	if bucket == "" {
		phxmetrics.UploadDirFilterCounter.WithLabelValues("passthrough").Inc()
		return values
	}

	base := "gs://" + bucket + "/" + namespaceSegment
	httpBase := StorageBaseURL + bucket + "/" + namespaceSegment

	values.Path = base + values.Subdir
	values.Basedir = base
	values.URL = httpBase + values.Subdir
	values.BaseURL = httpBase

	phxmetrics.UploadDirFilterCounter.WithLabelValues("rewritten").Inc()
	return values
}

// FilterDeleteFile returns file unchanged; deletion of gs:// paths is
// handled by the storage provider.
func (u *Uploads) FilterDeleteFile(_ context.Context, file string) string {
	return file
}

// FilterAttachmentURL upgrades plain-HTTP storage URLs to HTTPS when the
// use-HTTPS option is on.
func (u *Uploads) FilterAttachmentURL(ctx context.Context, url string) string {
	const insecure = "http://storage.googleapis.com/"
	if !strings.HasPrefix(url, insecure) {
		return url
	}
	useHTTPS, err := options.GetBool(ctx, u.store, UseHTTPSOption, false)
	if err != nil {
		u.logger.Warn("Failed to read use-HTTPS option", zap.Error(err))
	}
	if !useHTTPS {
		return url
	}
	return StorageBaseURL + strings.TrimPrefix(url, insecure)
}

// ValidateBucket accepts any bucket name; only surrounding whitespace is dropped.
func ValidateBucket(value string) string {
	return strings.TrimSpace(value)
}

// ValidateUseHTTPS coerces a submitted value to a boolean.
func ValidateUseHTTPS(value string) bool {
	return options.Truthy(value)
}

var (
	bucketFormTmpl = template.Must(template.New("bucket").Parse(
		`<input id="` + BucketOption + `" name="` + BucketOption + `" type="text" value="{{.}}">
<p class="description">Cloud Storage bucket that receives uploaded media. Leave empty to keep uploads on local disk.</p>
`))
	useHTTPSFormTmpl = template.Must(template.New("use_https").Parse(
		`<input id="` + UseHTTPSOption + `" name="` + UseHTTPSOption + `" type="checkbox" value="1"{{if .}} checked{{end}}>
<p class="description">Serve media URLs over HTTPS.</p>
`))
)

// BucketForm renders the bucket text input with the stored value.
func (u *Uploads) BucketForm(ctx context.Context, w io.Writer) error {
	bucket, err := options.GetString(ctx, u.store, BucketOption, "")
	if err != nil {
		return err
	}
	return bucketFormTmpl.Execute(w, bucket)
}

// UseHTTPSForm renders the use-HTTPS checkbox.
func (u *Uploads) UseHTTPSForm(ctx context.Context, w io.Writer) error {
	useHTTPS, err := options.GetBool(ctx, u.store, UseHTTPSOption, false)
	if err != nil {
		return err
	}
	return useHTTPSFormTmpl.Execute(w, useHTTPS)
}

// RegisterSettings declares both options with their sanitize callbacks and
// adds their fields to the settings page. The use-HTTPS option is created
// with "1" the first time; existing values are left alone.
func (u *Uploads) RegisterSettings(ctx context.Context, reg *settings.Registry) error {
	reg.RegisterSetting(OptionGroup, BucketOption, ValidateBucket)
	reg.RegisterSetting(OptionGroup, UseHTTPSOption, func(raw string) string {
		return options.FormatBool(ValidateUseHTTPS(raw))
	})

	reg.AddSection(SettingsPage, SettingsSection, "Upload Settings", nil)
	reg.AddField(SettingsPage, SettingsSection, BucketOption, "Bucket name for uploaded files", u.BucketForm)
	reg.AddField(SettingsPage, SettingsSection, UseHTTPSOption, "Use secure URLs for serving media files", u.UseHTTPSForm)

	if _, err := u.store.Add(ctx, UseHTTPSOption, "1"); err != nil {
		return err
	}
	return nil
}

// SeedDefaults runs on activation. It creates the use-HTTPS option and,
// when defaultBucket is set, the bucket option; neither overwrites a value.
func (u *Uploads) SeedDefaults(ctx context.Context, defaultBucket string) error {
	if _, err := u.store.Add(ctx, UseHTTPSOption, "1"); err != nil {
		return err
	}
	defaultBucket = ValidateBucket(defaultBucket)
	if defaultBucket == "" {
		return nil
	}
	added, err := u.store.Add(ctx, BucketOption, defaultBucket)
	if err != nil {
		return err
	}
	if added {
		u.logger.Info("Seeded default bucket", zap.String("bucket", defaultBucket))
	}
	return nil
}

// Register subscribes the upload filters on bus.
func (u *Uploads) Register(bus *hooks.Bus) {
	hooks.AddFilter[UploadLocation](bus, hooks.UploadDir, u.FilterUploadDir, hooks.DefaultPriority)
	hooks.AddFilter[string](bus, hooks.DeleteFile, u.FilterDeleteFile, hooks.DefaultPriority)
	hooks.AddFilter[string](bus, hooks.AttachmentURL, u.FilterAttachmentURL, hooks.DefaultPriority)
}

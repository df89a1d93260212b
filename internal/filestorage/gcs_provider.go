package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	phxlog "gcsmedia/backend/pkg/log"
	phxmetrics "gcsmedia/backend/pkg/metrics"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

// GCSStorageProvider implements FileStorageProvider using Google Cloud Storage.
// The bucket is passed per call because it comes from the settings store
// and can change between requests.
type GCSStorageProvider struct {
	client *storage.Client
}

// NewGCSStorageProvider wraps client, usually built by NewStorageClient.
func NewGCSStorageProvider(client *storage.Client) *GCSStorageProvider {
	return &GCSStorageProvider{client: client}
}

// UploadFile writes content to bucket/objectName if no object of that name
// exists yet.
func (g *GCSStorageProvider) UploadFile(ctx context.Context, bucket, objectName, contentType string, content io.Reader) (res UploadResult, err error) {
	defer func() { phxmetrics.ObserveStorage("upload", err) }()

	if g.client == nil {
		return UploadResult{}, ErrNotConfigured
	}
	if bucket == "" || objectName == "" {
		return UploadResult{}, fmt.Errorf("bucket and object name are required for UploadFile")
	}

	obj := g.client.Bucket(bucket).Object(objectName).If(storage.Conditions{DoesNotExist: true})
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := io.Copy(wc, content); err != nil {
		_ = wc.Close()
		return UploadResult{}, fmt.Errorf("failed to copy file content to GCS object writer: %w", err)
	}
	if err := wc.Close(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
			return UploadResult{}, fmt.Errorf("%w: gs://%s/%s", ErrObjectExists, bucket, objectName)
		}
		return UploadResult{}, fmt.Errorf("failed to close GCS object writer: %w", err)
	}

	attrs := wc.Attrs()
	res = UploadResult{Bucket: bucket, Name: objectName}
	if attrs != nil {
		res.Name = attrs.Name
		res.Generation = attrs.Generation
		res.Size = attrs.Size
	}

	phxlog.L.Info("File uploaded successfully to GCS",
		zap.String("bucket", bucket),
		zap.String("objectName", res.Name),
		zap.Int64("generation", res.Generation))
	return res, nil
}

// DeleteFile removes bucket/objectName. A missing object counts as deleted.
func (g *GCSStorageProvider) DeleteFile(ctx context.Context, bucket, objectName string) (err error) {
	defer func() { phxmetrics.ObserveStorage("delete", err) }()

	if g.client == nil {
		return ErrNotConfigured
	}
	if objectName == "" {
		return fmt.Errorf("object name cannot be empty for DeleteFile")
	}

	if err := g.client.Bucket(bucket).Object(objectName).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			phxlog.L.Info("GCS DeleteFile: object not found, treating as deleted",
				zap.String("objectName", objectName),
				zap.String("bucket", bucket))
			return nil
		}
		return fmt.Errorf("failed to delete object '%s' from GCS bucket '%s': %w", objectName, bucket, err)
	}

	phxlog.L.Info("File deleted successfully from GCS",
		zap.String("bucket", bucket),
		zap.String("objectName", objectName))
	return nil
}

// GetSignedURL returns a V4 signed GET URL for bucket/objectName.
func (g *GCSStorageProvider) GetSignedURL(ctx context.Context, bucket, objectName string, durationMinutes int) (signed string, err error) {
	defer func() { phxmetrics.ObserveStorage("sign", err) }()

	if g.client == nil {
		return "", ErrNotConfigured
	}
	if objectName == "" {
		return "", fmt.Errorf("object name cannot be empty for GetSignedURL")
	}

	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(time.Duration(durationMinutes) * time.Minute),
	}
	signed, err = g.client.Bucket(bucket).SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL for GCS object '%s': %w", objectName, err)
	}
	return signed, nil
}

package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// GSScheme prefixes every Cloud Storage location.
const GSScheme = "gs://"

var (
	// ErrNotConfigured is returned when no storage client is available.
	ErrNotConfigured = errors.New("file storage provider not configured")
	// ErrInvalidGSURI is returned for locations that are not gs://bucket[/object].
	ErrInvalidGSURI = errors.New("invalid gs:// URI")
	// ErrObjectExists is returned by UploadFile when the object name is taken.
	ErrObjectExists = errors.New("object already exists")
)

// UploadResult describes a stored object.
type UploadResult struct {
	Bucket     string
	Name       string
	Generation int64
	Size       int64
}

// FileStorageProvider stores media files in a remote bucket.
// UploadFile never replaces an existing object; it returns ErrObjectExists
// instead.
type FileStorageProvider interface {
	UploadFile(ctx context.Context, bucket, objectName, contentType string, content io.Reader) (UploadResult, error)
	DeleteFile(ctx context.Context, bucket, objectName string) error
	GetSignedURL(ctx context.Context, bucket, objectName string, durationMinutes int) (string, error)
}

// IsGSURI reports whether location points into Cloud Storage.
func IsGSURI(location string) bool {
	return strings.HasPrefix(location, GSScheme)
}

// ParseGSURI splits "gs://bucket/a/b" into ("bucket", "a/b").
func ParseGSURI(uri string) (bucket, object string, err error) {
	if !IsGSURI(uri) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidGSURI, uri)
	}
	rest := strings.TrimPrefix(uri, GSScheme)
	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%w: %q has no bucket", ErrInvalidGSURI, uri)
	}
	return bucket, strings.Trim(object, "/"), nil
}

// JoinObject joins object path segments with single slashes.
func JoinObject(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return strings.Join(cleaned, "/")
}

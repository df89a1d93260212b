// Package media stores uploaded files at the location produced by the
// upload_dir filter and keeps a record of each one.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gcsmedia/backend/internal/auth"
	"gcsmedia/backend/internal/filestorage"
	"gcsmedia/backend/internal/hooks"
	"gcsmedia/backend/internal/models"
	"gcsmedia/backend/internal/uploads"
	phxlog "gcsmedia/backend/pkg/log"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned for unknown media IDs.
	ErrNotFound        = errors.New("media object not found")
	ErrNotInBucket     = errors.New("media object is not stored in Cloud Storage")
	ErrInvalidFileName = errors.New("invalid file name")
)

// Config carries the service's collaborators.
type Config struct {
	DB       *gorm.DB
	Bus      *hooks.Bus
	Provider filestorage.FileStorageProvider
	// UploadsDir and UploadsBaseURL describe the local upload location used
	// when no filter moves uploads elsewhere.
	UploadsDir     string
	UploadsBaseURL string
}

// Service uploads, lists and deletes media files and their records.
type Service struct {
	cfg    Config
	now    func() time.Time
	logger *zap.Logger
}

// NewService returns a media service. A nil cfg.Provider disables bucket
// uploads.
func NewService(cfg Config) *Service {
	cfg.UploadsBaseURL = strings.TrimRight(cfg.UploadsBaseURL, "/")
	return &Service{cfg: cfg, now: time.Now, logger: phxlog.L.Named("media")}
}

// UploadDir returns the filtered upload location for subdir. An empty
// subdir means the current "/YYYY/MM".
func (s *Service) UploadDir(ctx context.Context, subdir string) uploads.UploadLocation {
	if subdir == "" {
		subdir = s.now().UTC().Format("/2006/01")
	} else if !strings.HasPrefix(subdir, "/") {
		subdir = "/" + subdir
	}
	loc := uploads.UploadLocation{
		Path:    s.cfg.UploadsDir + subdir,
		URL:     s.cfg.UploadsBaseURL + subdir,
		Subdir:  subdir,
		Basedir: s.cfg.UploadsDir,
		BaseURL: s.cfg.UploadsBaseURL,
	}
	return hooks.ApplyFilters[uploads.UploadLocation](ctx, s.cfg.Bus, hooks.UploadDir, loc)
}

func cleanFileName(name string) (string, error) {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Join(strings.Fields(name), "-")
	if name == "" || name == "." || name == "/" {
		return "", ErrInvalidFileName
	}
	return name, nil
}

// Upload stores content under the filtered upload location and records it.
func (s *Service) Upload(ctx context.Context, viewer auth.Viewer, fileName, contentType string, content io.Reader) (*models.MediaObject, error) {
	name, err := cleanFileName(fileName)
	if err != nil {
		return nil, err
	}

	loc := s.UploadDir(ctx, "")
	if loc.Error != "" {
		return nil, fmt.Errorf("upload location unavailable: %s", loc.Error)
	}

	obj := &models.MediaObject{
		Subdir:      loc.Subdir,
		FileName:    name,
		ContentType: contentType,
	}
	if !viewer.IsAnonymous() {
		uploadedBy := viewer.UserID
		obj.UploadedBy = &uploadedBy
	}

	if filestorage.IsGSURI(loc.Path) {
		if err := s.uploadToBucket(ctx, loc, obj, content); err != nil {
			return nil, err
		}
	} else {
		if err := s.uploadToDisk(loc, obj, content); err != nil {
			return nil, err
		}
	}

	if err := s.cfg.DB.WithContext(ctx).Create(obj).Error; err != nil {
		s.discard(ctx, obj)
		return nil, fmt.Errorf("failed to record media object: %w", err)
	}

	s.logger.Info("Media uploaded",
		zap.String("id", obj.ID.String()),
		zap.String("backend", string(obj.Backend)),
		zap.String("path", obj.Path))
	return obj, nil
}

// maxBucketNameAttempts bounds the "-N" suffixes tried for a taken object name.
const maxBucketNameAttempts = 100

func (s *Service) uploadToBucket(ctx context.Context, loc uploads.UploadLocation, obj *models.MediaObject, content io.Reader) error {
	if s.cfg.Provider == nil {
		return filestorage.ErrNotConfigured
	}
	bucket, prefix, err := filestorage.ParseGSURI(loc.Path)
	if err != nil {
		return err
	}

	// A taken name means another record owns that object. Retrying under a
	// new name needs the content again, so it only works for seekable readers.
	seeker, _ := content.(io.Seeker)
	name := obj.FileName
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	var res filestorage.UploadResult
	for i := 1; ; i++ {
		res, err = s.cfg.Provider.UploadFile(ctx, bucket, filestorage.JoinObject(prefix, name), obj.ContentType, content)
		if err == nil {
			break
		}
		if !errors.Is(err, filestorage.ErrObjectExists) || seeker == nil || i > maxBucketNameAttempts {
			return err
		}
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("failed to rewind upload content: %w", err)
		}
		name = stem + "-" + strconv.Itoa(i) + ext
	}

	obj.Backend = models.BackendGCS
	obj.FileName = name
	obj.Bucket = res.Bucket
	obj.ObjectName = res.Name
	obj.Generation = res.Generation
	obj.Size = res.Size
	obj.Path = filestorage.GSScheme + res.Bucket + "/" + res.Name
	obj.URL = loc.URL + "/" + name
	return nil
}

func (s *Service) uploadToDisk(loc uploads.UploadLocation, obj *models.MediaObject, content io.Reader) error {
	if err := os.MkdirAll(loc.Path, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := obj.FileName
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	var f *os.File
	for i := 1; ; i++ {
		var err error
		f, err = os.OpenFile(filepath.Join(loc.Path, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("failed to create file: %w", err)
		}
		name = stem + "-" + strconv.Itoa(i) + ext
	}

	size, copyErr := io.Copy(f, content)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("failed to write file: %w", err)
	}

	obj.Backend = models.BackendLocal
	obj.FileName = name
	obj.Size = size
	obj.Path = f.Name()
	obj.URL = loc.URL + "/" + name
	return nil
}

// discard removes a stored file that never got a record.
func (s *Service) discard(ctx context.Context, obj *models.MediaObject) {
	var err error
	switch obj.Backend {
	case models.BackendGCS:
		err = s.cfg.Provider.DeleteFile(ctx, obj.Bucket, obj.ObjectName)
	case models.BackendLocal:
		err = os.Remove(obj.Path)
	}
	if err != nil {
		s.logger.Error("Failed to remove unrecorded upload", zap.String("path", obj.Path), zap.Error(err))
	}
}

// List returns media records, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.MediaObject, int64, error) {
	var total int64
	if err := s.cfg.DB.WithContext(ctx).Model(&models.MediaObject{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count media objects: %w", err)
	}

	var objs []models.MediaObject
	if err := s.cfg.DB.WithContext(ctx).Order("created_at desc").Limit(limit).Offset(offset).Find(&objs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list media objects: %w", err)
	}
	for i := range objs {
		objs[i].URL = hooks.ApplyFilters[string](ctx, s.cfg.Bus, hooks.AttachmentURL, objs[i].URL)
	}
	return objs, total, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*models.MediaObject, error) {
	var obj models.MediaObject
	if err := s.cfg.DB.WithContext(ctx).First(&obj, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load media object: %w", err)
	}
	return &obj, nil
}

// Get returns the record with its URL passed through wp_get_attachment_url.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.MediaObject, error) {
	obj, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	obj.URL = hooks.ApplyFilters[string](ctx, s.cfg.Bus, hooks.AttachmentURL, obj.URL)
	return obj, nil
}

// Delete removes the stored file and its record. The stored path goes
// through wp_delete_file first; an empty result keeps the file and only
// drops the record.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	obj, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	path := hooks.ApplyFilters[string](ctx, s.cfg.Bus, hooks.DeleteFile, obj.Path)
	switch {
	case path == "":
		s.logger.Info("Delete filter cleared the path, keeping file", zap.String("id", id.String()))
	case filestorage.IsGSURI(path):
		if s.cfg.Provider == nil {
			return filestorage.ErrNotConfigured
		}
		bucket, object, err := filestorage.ParseGSURI(path)
		if err != nil {
			return err
		}
		if err := s.cfg.Provider.DeleteFile(ctx, bucket, object); err != nil {
			return err
		}
	default:
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove file: %w", err)
		}
	}

	if err := s.cfg.DB.WithContext(ctx).Delete(&models.MediaObject{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete media record: %w", err)
	}
	return nil
}

// SignedURL returns a time-limited URL for a record stored in a bucket.
func (s *Service) SignedURL(ctx context.Context, id uuid.UUID, minutes int) (string, error) {
	obj, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}
	if obj.Backend != models.BackendGCS {
		return "", ErrNotInBucket
	}
	if s.cfg.Provider == nil {
		return "", filestorage.ErrNotConfigured
	}
	return s.cfg.Provider.GetSignedURL(ctx, obj.Bucket, obj.ObjectName, minutes)
}

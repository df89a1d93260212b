package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gcsmedia/backend/internal/auth"
	"gcsmedia/backend/internal/filestorage"
	"gcsmedia/backend/internal/media"
	"gcsmedia/backend/pkg/features"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultSignedURLDurationMinutes = 15
	maxSignedURLDurationMinutes     = 60 * 24 * 7
)

// UploadDirHandler returns the upload location after the upload_dir filter.
func (h *Handler) UploadDirHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.Media.UploadDir(c.Request.Context(), c.Query("subdir")))
}

// UploadMediaHandler stores the multipart "file" field.
func (h *Handler) UploadMediaHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File upload error: " + err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open uploaded file"})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	obj, err := h.Media.Upload(c.Request.Context(), auth.ViewerFromContext(c), fileHeader.Filename, contentType, file)
	if err != nil {
		h.respondMediaError(c, "Failed to upload file", err)
		return
	}
	c.JSON(http.StatusCreated, obj)
}

// ListMediaHandler returns media records, newest first.
func (h *Handler) ListMediaHandler(c *gin.Context) {
	page, pageSize := GetPaginationParams(c)
	objs, total, err := h.Media.List(c.Request.Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		h.respondMediaError(c, "Failed to list media", err)
		return
	}
	c.JSON(http.StatusOK, newPaginatedResponse(objs, total, page, pageSize))
}

func parseMediaID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid media ID format"})
		return uuid.Nil, false
	}
	return id, true
}

// GetMediaHandler returns one media record.
func (h *Handler) GetMediaHandler(c *gin.Context) {
	id, ok := parseMediaID(c)
	if !ok {
		return
	}
	obj, err := h.Media.Get(c.Request.Context(), id)
	if err != nil {
		h.respondMediaError(c, "Failed to load media", err)
		return
	}
	c.JSON(http.StatusOK, obj)
}

// DeleteMediaHandler removes a media file and its record.
func (h *Handler) DeleteMediaHandler(c *gin.Context) {
	id, ok := parseMediaID(c)
	if !ok {
		return
	}
	if err := h.Media.Delete(c.Request.Context(), id); err != nil {
		h.respondMediaError(c, "Failed to delete media", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSignedURLHandler returns a time-limited URL for a bucket-backed record.
// Query param: ?durationMinutes=30 (optional, default 15).
func (h *Handler) GetSignedURLHandler(c *gin.Context) {
	if !features.IsEnabled(features.SignedURLs) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Signed URLs are disabled"})
		return
	}
	id, ok := parseMediaID(c)
	if !ok {
		return
	}

	durationMinutes := defaultSignedURLDurationMinutes
	if durationStr := c.Query("durationMinutes"); durationStr != "" {
		val, err := strconv.Atoi(durationStr)
		if err != nil || val <= 0 || val > maxSignedURLDurationMinutes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid durationMinutes, must be a positive integer (max 10080 for 7 days)."})
			return
		}
		durationMinutes = val
	}

	signedURL, err := h.Media.SignedURL(c.Request.Context(), id, durationMinutes)
	if err != nil {
		h.respondMediaError(c, "Failed to generate signed URL", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signed_url": signedURL})
}

func (h *Handler) respondMediaError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, media.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
	case errors.Is(err, media.ErrInvalidFileName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, media.ErrNotInBucket), errors.Is(err, filestorage.ErrObjectExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, filestorage.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg + ": " + err.Error()})
	}
}

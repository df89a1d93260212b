package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleEditor UserRole = "editor"
	RoleUser   UserRole = "user"
)

// User is an account allowed to sign in to the admin surface.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;"`
	Name         string    `gorm:"size:255;not null"`
	Email        string    `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         UserRole  `gorm:"type:varchar(50);not null;default:'user'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

// StorageBackend tells where a media object's bytes live.
type StorageBackend string

const (
	BackendGCS   StorageBackend = "gcs"
	BackendLocal StorageBackend = "local"
)

// MediaObject records an uploaded file. Path is the filtered upload
// location of the file itself (gs://bucket/object or a local path), URL the
// public address handed back to clients.
type MediaObject struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;" json:"id"`
	Backend     StorageBackend `gorm:"type:varchar(20);not null" json:"backend"`
	Bucket      string         `gorm:"size:255" json:"bucket,omitempty"`
	ObjectName  string         `gorm:"size:1024" json:"object_name,omitempty"`
	Generation  int64          `json:"generation,omitempty"`
	Path        string         `gorm:"size:2048;not null" json:"path"`
	URL         string         `gorm:"size:2048;not null" json:"url"`
	Subdir      string         `gorm:"size:255" json:"subdir"`
	FileName    string         `gorm:"size:255;not null" json:"file_name"`
	ContentType string         `gorm:"size:255" json:"content_type"`
	Size        int64          `json:"size"`
	UploadedBy  *uuid.UUID     `gorm:"type:uuid" json:"uploaded_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (m *MediaObject) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}

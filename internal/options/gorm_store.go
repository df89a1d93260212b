package options

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gcsmedia/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists options in the options table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore returns a store over the options table.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, name string) (string, bool, error) {
	var opt models.Option
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&opt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read option %q: %w", name, err)
	}
	return opt.Value, true, nil
}

func (s *GormStore) Add(ctx context.Context, name, value string) (bool, error) {
	opt := models.Option{Name: name, Value: value, Autoload: true}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&opt)
	if res.Error != nil {
		return false, fmt.Errorf("failed to add option %q: %w", name, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) Update(ctx context.Context, name, value string) error {
	opt := models.Option{Name: name, Value: value, Autoload: true, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&opt).Error
	if err != nil {
		return fmt.Errorf("failed to update option %q: %w", name, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, name string) error {
	if err := s.db.WithContext(ctx).Where("name = ?", name).Delete(&models.Option{}).Error; err != nil {
		return fmt.Errorf("failed to delete option %q: %w", name, err)
	}
	return nil
}

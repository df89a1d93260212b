package models

import "time"

// Option is one row of the persistent key/value settings store.
// Values are stored as strings; booleans use "1" and "0".
type Option struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"type:varchar(191);uniqueIndex;not null"`
	Value     string `gorm:"type:text;not null"`
	Autoload  bool   `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Option) TableName() string {
	return "options"
}

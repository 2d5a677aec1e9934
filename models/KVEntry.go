package models

import "time"

// KVEntry stores an opaque document under a fixed key.
type KVEntry struct {
	Key       string    `gorm:"primaryKey;type:varchar(128)"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chromastudio/internal/calc"
	"chromastudio/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CalcStateKey is the key/value row holding calculator state.
const CalcStateKey = "calc-store:v1"

// GormStore keeps the snapshot document in a single models.KVEntry row.
type GormStore struct {
	db  *gorm.DB
	key string
}

// NewGormStore wraps database. The kv_entries table must already be migrated.
func NewGormStore(database *gorm.DB) (*GormStore, error) {
	if database == nil {
		return nil, errors.New("database handle is nil")
	}
	return &GormStore{db: database, key: CalcStateKey}, nil
}

// Load reads the document row. A missing row yields an empty map.
func (s *GormStore) Load(ctx context.Context) (map[string]calc.Snapshot, error) {
	var entry models.KVEntry
	err := s.db.WithContext(ctx).Where(&models.KVEntry{Key: s.key}).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return map[string]calc.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state row: %w", err)
	}
	return decode([]byte(entry.Value))
}

// Save upserts the document row.
func (s *GormStore) Save(ctx context.Context, snapshots map[string]calc.Snapshot) error {
	b, err := json.Marshal(snapshots)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	entry := models.KVEntry{Key: s.key, Value: string(b), UpdatedAt: time.Now().UTC()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("save state row: %w", err)
	}
	return nil
}

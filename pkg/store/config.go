package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetConfig returns the JSON document stored under key.
func (s *Store) GetConfig(ctx context.Context, key string) (json.RawMessage, error) {
	var rec ConfigRecord
	err := s.db.WithContext(ctx).Where("type = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "config", Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load setting %q: %w", key, err)
	}
	return json.RawMessage(rec.Value), nil
}

// SetConfig stores value under key, replacing any prior document
// wholesale, never merging. The value must be well-formed JSON; shape
// validation per key belongs to the config facade.
func (s *Store) SetConfig(ctx context.Context, key string, value json.RawMessage) error {
	if strings.TrimSpace(key) == "" {
		return &ValidationError{Field: "config.key", Reason: "must be non-empty"}
	}
	if !json.Valid(value) {
		return &ValidationError{Field: key, Reason: "value is not well-formed JSON"}
	}

	rec := ConfigRecord{Key: key, Value: string(value)}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to store setting %q: %w", key, err)
	}
	return nil
}

// ListConfig returns every stored setting row, ordered by key.
func (s *Store) ListConfig(ctx context.Context) ([]ConfigRecord, error) {
	var recs []ConfigRecord
	if err := s.db.WithContext(ctx).Order("type").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return recs, nil
}

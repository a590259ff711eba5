package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"
)

// RecordMeasurement appends one sample to the history. The (zone, metric,
// timestamp) triple is unique: resubmission fails with
// DuplicateSampleError and leaves the store untouched. Duplicates signal
// a caller bug or a retried delivery, never an overwrite.
func (s *Store) RecordMeasurement(ctx context.Context, smp Sample) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return recordSample(tx, smp)
	})
}

// RecordMeasurements appends a burst of samples in a single transaction,
// the way collectors submit one probe cycle (six RH-probe metrics, three
// NPK metrics). Either every sample lands or none does.
func (s *Store) RecordMeasurements(ctx context.Context, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, smp := range samples {
			if err := recordSample(tx, smp); err != nil {
				return err
			}
		}
		return nil
	})
}

func recordSample(tx *gorm.DB, smp Sample) error {
	if err := validateSample(smp); err != nil {
		return err
	}

	var zone Zone
	if err := tx.Where("name = ?", smp.Zone).First(&zone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Kind: "zone", Key: smp.Zone}
		}
		return fmt.Errorf("failed to look up zone %q: %w", smp.Zone, err)
	}

	m := Measurement{
		ZoneID:  zone.ID,
		Metric:  smp.Metric,
		TSUTC:   smp.Timestamp.UTC().Unix(),
		TZ:      smp.TZ,
		Reading: smp.Value,
		Unit:    smp.Unit,
	}
	if err := tx.Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return &DuplicateSampleError{Zone: smp.Zone, Metric: smp.Metric, Timestamp: m.Time()}
		}
		return fmt.Errorf("failed to record %s for zone %q: %w", smp.Metric, smp.Zone, err)
	}
	return nil
}

func validateSample(smp Sample) error {
	if strings.TrimSpace(smp.Zone) == "" {
		return &ValidationError{Field: "sample.zone", Reason: "must be non-empty"}
	}
	if strings.TrimSpace(smp.Metric) == "" {
		return &ValidationError{Field: "sample.metric", Reason: "must be non-empty"}
	}
	if smp.Timestamp.IsZero() {
		return &ValidationError{Field: "sample.timestamp", Reason: "must be set"}
	}
	if math.IsNaN(smp.Value) || math.IsInf(smp.Value, 0) {
		return &ValidationError{Field: "sample.value", Reason: "must be finite"}
	}
	return nil
}

// isUniqueViolation matches the duplicate-key shapes the SQLite driver
// can produce under GORM.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Measurements returns up to limit samples for the zone/metric pair,
// newest first. Dashboards bound limit with the trend_max_samples
// setting; limit <= 0 returns the full history.
func (s *Store) Measurements(ctx context.Context, zone, metric string, limit int) ([]Measurement, error) {
	z, err := s.GetZone(ctx, zone)
	if err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).
		Where("zone_id = ? AND name = ?", z.ID, metric).
		Order("ts_utc DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []Measurement
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load %s history for zone %q: %w", metric, zone, err)
	}
	return out, nil
}

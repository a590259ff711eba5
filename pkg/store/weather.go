package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// RecordWeather appends one fetch row. Re-fetches of the same forecast
// hour are accepted: each fetch is its own immutable row, and readers
// see the newest one through the latest-weather reduction.
func (s *Store) RecordWeather(ctx context.Context, w Weather) error {
	return s.RecordWeatherBatch(ctx, []Weather{w})
}

// RecordWeatherBatch appends one fetch cycle's rows in a single
// transaction: either the whole cycle lands or none of it does.
func (s *Store) RecordWeatherBatch(ctx context.Context, rows []Weather) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		if err := validateWeather(rows[i]); err != nil {
			return err
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			w := rows[i]
			w.ID = 0
			if err := tx.Create(&w).Error; err != nil {
				return fmt.Errorf("failed to record weather for forecast hour %d: %w", w.ForecastTSUTC, err)
			}
		}
		return nil
	})
}

func validateWeather(w Weather) error {
	if w.ForecastTSUTC <= 0 {
		return &ValidationError{Field: "weather.forecast_ts_utc", Reason: "forecast hour must be set"}
	}
	if w.CollectedAtUTC <= 0 {
		return &ValidationError{Field: "weather.collected_at_utc", Reason: "collection timestamp must be set"}
	}
	return nil
}

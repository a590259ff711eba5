package store

import (
	"context"
	"fmt"
	"time"
)

// DefaultWindowBefore and DefaultWindowAfter bound the scheduler's
// standard forecast horizon around "now".
const (
	DefaultWindowBefore = 12 * time.Hour
	DefaultWindowAfter  = 12 * time.Hour
)

// WeatherWindow returns the latest-resolved weather rows whose forecast
// hour falls within [now-before, now+after], inclusive on both ends,
// ordered by forecast hour ascending. The window is computed fresh from
// the caller-supplied now on every call and never cached, so results are
// only as current as the stored fetches and the caller's clock. Only the
// latest fetch per forecast hour contributes, never raw rows.
func (s *Store) WeatherWindow(ctx context.Context, now time.Time, before, after time.Duration) ([]Weather, error) {
	if before < 0 || after < 0 {
		return nil, &ValidationError{Field: "window", Reason: "bounds must be non-negative"}
	}

	from := now.Add(-before).UTC().Unix()
	to := now.Add(after).UTC().Unix()

	var rows []Weather
	err := s.db.WithContext(ctx).Raw(`
		SELECT * FROM latest_weather
		 WHERE forecast_ts_utc >= ? AND forecast_ts_utc <= ?
		 ORDER BY forecast_ts_utc`, from, to).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query weather window: %w", err)
	}
	return rows, nil
}

package store

import (
	"context"
	"fmt"
	"strconv"
)

// The latest_* views reduce the append-only history per key: max ts_utc
// per (zone, metric), max collected_at_utc per forecast hour. They are
// installed by the repeatable view migration and recomputed per query.

// LatestMeasurement returns the newest stored sample for the zone/metric
// pair.
func (s *Store) LatestMeasurement(ctx context.Context, zone, metric string) (Measurement, error) {
	var rows []Measurement
	err := s.db.WithContext(ctx).Raw(`
		SELECT lm.* FROM latest_measurement lm
		  JOIN zone z ON z.id = lm.zone_id
		 WHERE z.name = ? AND lm.name = ?`, zone, metric).Scan(&rows).Error
	if err != nil {
		return Measurement{}, fmt.Errorf("failed to resolve latest %s for zone %q: %w", metric, zone, err)
	}
	if len(rows) == 0 {
		return Measurement{}, &NotFoundError{Kind: "measurement", Key: zone + "/" + metric}
	}
	return rows[0], nil
}

// LatestByZone returns every zone together with the latest reading per
// metric observed in it. Zones with no measurements still appear, with
// an empty Metrics slice. Zones order by name, metrics by metric name.
func (s *Store) LatestByZone(ctx context.Context) ([]ZoneLatest, error) {
	zones, err := s.ListZones(ctx)
	if err != nil {
		return nil, err
	}

	var latest []Measurement
	err = s.db.WithContext(ctx).
		Raw("SELECT * FROM latest_measurement ORDER BY zone_id, name").
		Scan(&latest).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve latest measurements: %w", err)
	}

	byZone := make(map[int64][]Measurement, len(zones))
	for _, m := range latest {
		byZone[m.ZoneID] = append(byZone[m.ZoneID], m)
	}

	out := make([]ZoneLatest, 0, len(zones))
	for _, z := range zones {
		metrics := byZone[z.ID]
		if metrics == nil {
			metrics = []Measurement{}
		}
		out = append(out, ZoneLatest{Zone: z, Metrics: metrics})
	}
	return out, nil
}

// LatestWeather returns the newest fetch per forecast hour for the whole
// history, ordered by forecast hour ascending.
func (s *Store) LatestWeather(ctx context.Context) ([]Weather, error) {
	var rows []Weather
	err := s.db.WithContext(ctx).
		Raw("SELECT * FROM latest_weather ORDER BY forecast_ts_utc").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve latest weather: %w", err)
	}
	return rows, nil
}

// LatestWeatherAt returns the newest fetch for one forecast hour (Unix
// seconds, UTC): the fetch with the maximum collection timestamp, even
// when an earlier fetch for the same hour carried different values.
func (s *Store) LatestWeatherAt(ctx context.Context, forecastTS int64) (Weather, error) {
	var rows []Weather
	err := s.db.WithContext(ctx).
		Raw("SELECT * FROM latest_weather WHERE forecast_ts_utc = ?", forecastTS).
		Scan(&rows).Error
	if err != nil {
		return Weather{}, fmt.Errorf("failed to resolve latest weather for hour %d: %w", forecastTS, err)
	}
	if len(rows) == 0 {
		return Weather{}, &NotFoundError{Kind: "weather", Key: strconv.FormatInt(forecastTS, 10)}
	}
	return rows[0], nil
}

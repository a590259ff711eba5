package store

import (
	"context"
	"testing"
	"time"
)

func TestWeatherWindowBoundsInclusive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	edges := map[string]time.Time{
		"just before window": now.Add(-DefaultWindowBefore - time.Second),
		"lower edge":         now.Add(-DefaultWindowBefore),
		"center":             now,
		"upper edge":         now.Add(DefaultWindowAfter),
		"just past window":   now.Add(DefaultWindowAfter + time.Second),
	}
	for _, ts := range edges {
		if err := s.RecordWeather(ctx, forecastRow(ts.Unix(), 100, fp(25))); err != nil {
			t.Fatalf("record %v: %v", ts, err)
		}
	}

	rows, err := s.WeatherWindow(ctx, now, DefaultWindowBefore, DefaultWindowAfter)
	if err != nil {
		t.Fatalf("WeatherWindow: %v", err)
	}

	// Both edges are inside, one second beyond either edge is out.
	want := []int64{
		now.Add(-DefaultWindowBefore).Unix(),
		now.Unix(),
		now.Add(DefaultWindowAfter).Unix(),
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, ts := range want {
		if rows[i].ForecastTSUTC != ts {
			t.Errorf("row %d: expected forecast %d, got %d", i, ts, rows[i].ForecastTSUTC)
		}
	}
}

func TestWeatherWindowReducesPerHour(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	hour := now.Add(2 * time.Hour).Unix()

	if err := s.RecordWeather(ctx, forecastRow(hour, 100, fp(40))); err != nil {
		t.Fatalf("record first fetch: %v", err)
	}
	if err := s.RecordWeather(ctx, forecastRow(hour, 200, fp(10))); err != nil {
		t.Fatalf("record second fetch: %v", err)
	}

	rows, err := s.WeatherWindow(ctx, now, DefaultWindowBefore, DefaultWindowAfter)
	if err != nil {
		t.Fatalf("WeatherWindow: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one reduced row, got %d", len(rows))
	}
	if rows[0].CollectedAtUTC != 200 {
		t.Errorf("expected the newest fetch, got collected=%d", rows[0].CollectedAtUTC)
	}
}

func TestWeatherWindowAsymmetric(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, off := range []time.Duration{-time.Hour, 0, time.Hour, 3 * time.Hour} {
		if err := s.RecordWeather(ctx, forecastRow(now.Add(off).Unix(), 100, fp(20))); err != nil {
			t.Fatalf("record offset %v: %v", off, err)
		}
	}

	rows, err := s.WeatherWindow(ctx, now, 0, 2*time.Hour)
	if err != nil {
		t.Fatalf("WeatherWindow: %v", err)
	}
	want := []int64{now.Unix(), now.Add(time.Hour).Unix()}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, ts := range want {
		if rows[i].ForecastTSUTC != ts {
			t.Errorf("row %d: expected forecast %d, got %d", i, ts, rows[i].ForecastTSUTC)
		}
	}
}

func TestWeatherWindowRejectsNegativeBounds(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	if _, err := s.WeatherWindow(context.Background(), now, -time.Second, 0); !IsValidation(err) {
		t.Errorf("negative before: expected ValidationError, got %v", err)
	}
	if _, err := s.WeatherWindow(context.Background(), now, 0, -time.Second); !IsValidation(err) {
		t.Errorf("negative after: expected ValidationError, got %v", err)
	}
}

func TestWeatherWindowEmpty(t *testing.T) {
	s := openTestStore(t)

	rows, err := s.WeatherWindow(context.Background(), time.Now(), DefaultWindowBefore, DefaultWindowAfter)
	if err != nil {
		t.Fatalf("WeatherWindow: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows in an empty store, got %d", len(rows))
	}
}

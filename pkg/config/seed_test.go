package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/waterlyhq/waterly/pkg/store"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing seed file: %v", err)
	}
	return path
}

func TestApplySeedFile(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	path := writeSeedFile(t, `
units:
  value: metric
watering_max_minutes_per_zone:
  value: 15
watering_start_time:
  value: "20:45"
humidity_target_percent:
  Z1: 65.5
  Z2: 70
  Z3: 80
gardening_season:
  start: "04-15"
  stop: "09-30"
`)

	applied, err := f.ApplySeedFile(ctx, path)
	if err != nil {
		t.Fatalf("ApplySeedFile: %v", err)
	}
	if applied != 5 {
		t.Fatalf("expected 5 settings applied, got %d", applied)
	}

	units, err := f.Units(ctx)
	if err != nil {
		t.Fatalf("Units: %v", err)
	}
	if units != UnitsMetric {
		t.Errorf("expected metric, got %q", units)
	}
	if minutes, _ := f.WateringMaxMinutes(ctx); minutes != 15 {
		t.Errorf("expected cap 15, got %d", minutes)
	}
	if start, _ := f.WateringStartTime(ctx); start != "20:45" {
		t.Errorf("expected start 20:45, got %q", start)
	}
	targets, err := f.HumidityTargets(ctx)
	if err != nil {
		t.Fatalf("HumidityTargets: %v", err)
	}
	if targets["Z1"] != 65.5 || targets["Z2"] != 70 || targets["Z3"] != 80 {
		t.Errorf("unexpected targets: %v", targets)
	}
	season, err := f.Season(ctx)
	if err != nil {
		t.Fatalf("Season: %v", err)
	}
	if season.Start != "04-15" || season.Stop != "09-30" {
		t.Errorf("unexpected season: %+v", season)
	}
}

func TestApplySeedFileRejectsUnknownKey(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	if _, err := f.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	path := writeSeedFile(t, `
units:
  value: metric
sprinkler_color:
  value: red
`)

	if _, err := f.ApplySeedFile(ctx, path); !store.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	// Validation happens before any write: the good entry did not land.
	units, err := f.Units(ctx)
	if err != nil {
		t.Fatalf("Units: %v", err)
	}
	if units != UnitsImperial {
		t.Fatalf("rejected file still changed units to %q", units)
	}
}

func TestApplySeedFileRejectsBadShape(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	path := writeSeedFile(t, `
watering_start_time:
  value: late evening
`)

	if _, err := f.ApplySeedFile(ctx, path); !store.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestApplySeedFileMissing(t *testing.T) {
	f := newTestFacade(t)

	if _, err := f.ApplySeedFile(context.Background(), filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

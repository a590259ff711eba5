package config

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/waterlyhq/waterly/internal/log"
	"github.com/waterlyhq/waterly/pkg/store"
)

// Facade wraps a store with typed, shape-validated access to the
// settings vocabulary. All writes are validated against the key's
// document shape before they reach the store; reads decode the stored
// document into the key's native type.
type Facade struct {
	store *store.Store
}

// New returns a settings facade over s.
func New(s *store.Store) *Facade {
	return &Facade{store: s}
}

// Raw returns the stored JSON document for key.
func (f *Facade) Raw(ctx context.Context, key Setting) (json.RawMessage, error) {
	if !Known(key) {
		return nil, &store.ValidationError{Field: string(key), Reason: "unknown setting"}
	}
	return f.store.GetConfig(ctx, string(key))
}

// SetRaw validates raw against key's document shape and stores it.
func (f *Facade) SetRaw(ctx context.Context, key Setting, raw json.RawMessage) error {
	if !Known(key) {
		return &store.ValidationError{Field: string(key), Reason: "unknown setting"}
	}
	if err := validateShape(key, raw); err != nil {
		return err
	}
	return f.store.SetConfig(ctx, string(key), raw)
}

// Seed inserts the factory default for every setting that does not yet
// have a stored value. Existing values are never overwritten. It returns
// the number of settings inserted.
func (f *Facade) Seed(ctx context.Context) (int, error) {
	defaults := Defaults()
	seeded := 0
	for _, key := range allSettings {
		_, err := f.store.GetConfig(ctx, string(key))
		if err == nil {
			continue
		}
		if !store.IsNotFound(err) {
			return seeded, err
		}
		if err := f.store.SetConfig(ctx, string(key), defaults[key]); err != nil {
			return seeded, err
		}
		seeded++
	}
	if seeded > 0 {
		log.Infof("seeded %d default settings", seeded)
	}
	return seeded, nil
}

// get decodes the stored document for key into out.
func (f *Facade) get(ctx context.Context, key Setting, out interface{}) error {
	raw, err := f.store.GetConfig(ctx, string(key))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("setting %s holds a malformed document: %w", key, err)
	}
	return nil
}

// put validates doc against key's shape and stores it.
func (f *Facade) put(ctx context.Context, key Setting, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding setting %s: %w", key, err)
	}
	if err := validateShape(key, raw); err != nil {
		return err
	}
	return f.store.SetConfig(ctx, string(key), raw)
}

// HumidityTargets returns the target soil humidity percentage per zone.
func (f *Facade) HumidityTargets(ctx context.Context) (map[string]float64, error) {
	var m map[string]float64
	if err := f.get(ctx, SettingHumidityTargetPercent, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// SetHumidityTargets replaces the per-zone humidity targets.
func (f *Facade) SetHumidityTargets(ctx context.Context, targets map[string]float64) error {
	return f.put(ctx, SettingHumidityTargetPercent, targets)
}

// MinimumSensorHumidity returns the per-zone floor below which a sensor
// reading is treated as implausible.
func (f *Facade) MinimumSensorHumidity(ctx context.Context) (map[string]float64, error) {
	var m map[string]float64
	if err := f.get(ctx, SettingMinimumSensorHumidityPercent, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// SetMinimumSensorHumidity replaces the per-zone sensor humidity floors.
func (f *Facade) SetMinimumSensorHumidity(ctx context.Context, floors map[string]float64) error {
	return f.put(ctx, SettingMinimumSensorHumidityPercent, floors)
}

// WateringStartTime returns the daily watering start as "HH:MM".
func (f *Facade) WateringStartTime(ctx context.Context) (string, error) {
	var doc stringDoc
	if err := f.get(ctx, SettingWateringStartTime, &doc); err != nil {
		return "", err
	}
	return doc.Value, nil
}

// SetWateringStartTime sets the daily watering start, given as "HH:MM".
func (f *Facade) SetWateringStartTime(ctx context.Context, hhmm string) error {
	return f.put(ctx, SettingWateringStartTime, stringDoc{Value: hhmm})
}

// WateringMaxMinutes returns the per-zone watering cap in minutes.
func (f *Facade) WateringMaxMinutes(ctx context.Context) (int, error) {
	var doc intDoc
	if err := f.get(ctx, SettingWateringMaxMinutesPerZone, &doc); err != nil {
		return 0, err
	}
	return doc.Value, nil
}

// SetWateringMaxMinutes sets the per-zone watering cap in minutes.
func (f *Facade) SetWateringMaxMinutes(ctx context.Context, minutes int) error {
	return f.put(ctx, SettingWateringMaxMinutesPerZone, intDoc{Value: minutes})
}

// LastWateringDate returns the date of the last completed watering run.
// ok is false when no run has completed yet.
func (f *Facade) LastWateringDate(ctx context.Context) (date time.Time, ok bool, err error) {
	var doc nullableStringDoc
	if err := f.get(ctx, SettingLastWateringDate, &doc); err != nil {
		return time.Time{}, false, err
	}
	if doc.Value == nil {
		return time.Time{}, false, nil
	}
	d, err := time.Parse("2006-01-02", *doc.Value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("setting %s holds a malformed date: %w", SettingLastWateringDate, err)
	}
	return d, true, nil
}

// SetLastWateringDate records the date of the last completed watering run.
func (f *Facade) SetLastWateringDate(ctx context.Context, date time.Time) error {
	v := date.Format("2006-01-02")
	return f.put(ctx, SettingLastWateringDate, nullableStringDoc{Value: &v})
}

// RainCancelThreshold returns the precipitation probability percentage at
// or above which a watering run is skipped.
func (f *Facade) RainCancelThreshold(ctx context.Context) (float64, error) {
	var doc floatDoc
	if err := f.get(ctx, SettingRainCancelProbabilityThreshold, &doc); err != nil {
		return 0, err
	}
	return doc.Value, nil
}

// SetRainCancelThreshold sets the rain-cancel probability percentage.
func (f *Facade) SetRainCancelThreshold(ctx context.Context, percent float64) error {
	return f.put(ctx, SettingRainCancelProbabilityThreshold, floatDoc{Value: percent})
}

// Units returns the display unit system, either UnitsMetric or
// UnitsImperial.
func (f *Facade) Units(ctx context.Context) (string, error) {
	var doc stringDoc
	if err := f.get(ctx, SettingUnits, &doc); err != nil {
		return "", err
	}
	return doc.Value, nil
}

// SetUnits sets the display unit system.
func (f *Facade) SetUnits(ctx context.Context, units string) error {
	return f.put(ctx, SettingUnits, stringDoc{Value: units})
}

// WeatherCheckInterval returns the steady-state forecast refresh interval.
func (f *Facade) WeatherCheckInterval(ctx context.Context) (time.Duration, error) {
	return f.getInterval(ctx, SettingWeatherCheckIntervalSeconds)
}

// SetWeatherCheckInterval sets the steady-state forecast refresh interval.
func (f *Facade) SetWeatherCheckInterval(ctx context.Context, d time.Duration) error {
	return f.putInterval(ctx, SettingWeatherCheckIntervalSeconds, d)
}

// WeatherCheckPreWatering returns the tighter refresh interval used just
// before a scheduled watering run.
func (f *Facade) WeatherCheckPreWatering(ctx context.Context) (time.Duration, error) {
	return f.getInterval(ctx, SettingWeatherCheckPreWateringSeconds)
}

// SetWeatherCheckPreWatering sets the pre-watering forecast refresh interval.
func (f *Facade) SetWeatherCheckPreWatering(ctx context.Context, d time.Duration) error {
	return f.putInterval(ctx, SettingWeatherCheckPreWateringSeconds, d)
}

// SensorReadInterval returns the soil sensor polling interval.
func (f *Facade) SensorReadInterval(ctx context.Context) (time.Duration, error) {
	return f.getInterval(ctx, SettingSensorReadIntervalSeconds)
}

// SetSensorReadInterval sets the soil sensor polling interval.
func (f *Facade) SetSensorReadInterval(ctx context.Context, d time.Duration) error {
	return f.putInterval(ctx, SettingSensorReadIntervalSeconds, d)
}

// WeatherLastCheck returns the time of the last forecast fetch. ok is
// false when no fetch has happened yet.
func (f *Facade) WeatherLastCheck(ctx context.Context) (t time.Time, ok bool, err error) {
	var doc nullableIntDoc
	if err := f.get(ctx, SettingWeatherLastCheckTimestamp, &doc); err != nil {
		return time.Time{}, false, err
	}
	if doc.Value == nil {
		return time.Time{}, false, nil
	}
	return time.Unix(*doc.Value, 0).UTC(), true, nil
}

// SetWeatherLastCheck records the time of the last forecast fetch.
func (f *Facade) SetWeatherLastCheck(ctx context.Context, t time.Time) error {
	v := t.UTC().Unix()
	return f.put(ctx, SettingWeatherLastCheckTimestamp, nullableIntDoc{Value: &v})
}

// TrendMaxSamples returns the cap on samples kept for trend analysis.
func (f *Facade) TrendMaxSamples(ctx context.Context) (int, error) {
	var doc intDoc
	if err := f.get(ctx, SettingTrendMaxSamples, &doc); err != nil {
		return 0, err
	}
	return doc.Value, nil
}

// SetTrendMaxSamples sets the cap on samples kept for trend analysis.
func (f *Facade) SetTrendMaxSamples(ctx context.Context, n int) error {
	return f.put(ctx, SettingTrendMaxSamples, intDoc{Value: n})
}

// LocalTimezone returns the controller's IANA timezone, loaded and ready
// to use.
func (f *Facade) LocalTimezone(ctx context.Context) (*time.Location, error) {
	var doc stringDoc
	if err := f.get(ctx, SettingLocalTimezone, &doc); err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(doc.Value)
	if err != nil {
		return nil, fmt.Errorf("setting %s holds unknown timezone %q: %w", SettingLocalTimezone, doc.Value, err)
	}
	return loc, nil
}

// SetLocalTimezone sets the controller's IANA timezone name.
func (f *Facade) SetLocalTimezone(ctx context.Context, name string) error {
	return f.put(ctx, SettingLocalTimezone, stringDoc{Value: name})
}

// Location returns the controller's geographic position.
func (f *Facade) Location(ctx context.Context) (Location, error) {
	var loc Location
	if err := f.get(ctx, SettingLocation, &loc); err != nil {
		return Location{}, err
	}
	return loc, nil
}

// SetLocation sets the controller's geographic position.
func (f *Facade) SetLocation(ctx context.Context, loc Location) error {
	return f.put(ctx, SettingLocation, loc)
}

// Season returns the gardening season bounds as inclusive MM-DD dates.
func (f *Facade) Season(ctx context.Context) (Season, error) {
	var s Season
	if err := f.get(ctx, SettingGardeningSeason, &s); err != nil {
		return Season{}, err
	}
	return s, nil
}

// SetSeason sets the gardening season bounds.
func (f *Facade) SetSeason(ctx context.Context, s Season) error {
	return f.put(ctx, SettingGardeningSeason, s)
}

func (f *Facade) getInterval(ctx context.Context, key Setting) (time.Duration, error) {
	var doc intDoc
	if err := f.get(ctx, key, &doc); err != nil {
		return 0, err
	}
	return time.Duration(doc.Value) * time.Second, nil
}

func (f *Facade) putInterval(ctx context.Context, key Setting, d time.Duration) error {
	if d < time.Second || d%time.Second != 0 {
		return &store.ValidationError{Field: string(key), Reason: "interval must be a whole number of seconds, at least one"}
	}
	return f.put(ctx, key, intDoc{Value: int(d / time.Second)})
}

// Package config provides typed access to the waterly settings table: a
// fixed vocabulary of keys, each with its own JSON document shape,
// validated before any write. The store keeps the documents; this
// package knows their shapes.
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/waterlyhq/waterly/pkg/store"
)

// Setting identifies one operator-tunable setting.
type Setting string

// The settings vocabulary. Each key's value shape is fixed; see the
// typed accessors on Facade.
const (
	SettingHumidityTargetPercent          Setting = "humidity_target_percent"
	SettingWateringStartTime              Setting = "watering_start_time"
	SettingWateringMaxMinutesPerZone      Setting = "watering_max_minutes_per_zone"
	SettingLastWateringDate               Setting = "last_watering_date"
	SettingRainCancelProbabilityThreshold Setting = "rain_cancel_probability_threshold"
	SettingUnits                          Setting = "units"
	SettingWeatherCheckIntervalSeconds    Setting = "weather_check_interval_seconds"
	SettingWeatherCheckPreWateringSeconds Setting = "weather_check_pre_watering_seconds"
	SettingWeatherLastCheckTimestamp      Setting = "weather_last_check_timestamp"
	SettingSensorReadIntervalSeconds      Setting = "sensor_read_interval_seconds"
	SettingMinimumSensorHumidityPercent   Setting = "minimum_sensor_humidity_percent"
	SettingTrendMaxSamples                Setting = "trend_max_samples"
	SettingLocalTimezone                  Setting = "local_timezone"
	SettingLocation                       Setting = "location"
	SettingGardeningSeason                Setting = "gardening_season"
)

// Values accepted by the units setting.
const (
	UnitsMetric   = "metric"
	UnitsImperial = "imperial"
)

// allSettings fixes the canonical ordering used by Seed and listings.
var allSettings = []Setting{
	SettingHumidityTargetPercent,
	SettingWateringStartTime,
	SettingWateringMaxMinutesPerZone,
	SettingLastWateringDate,
	SettingRainCancelProbabilityThreshold,
	SettingUnits,
	SettingWeatherCheckIntervalSeconds,
	SettingWeatherCheckPreWateringSeconds,
	SettingWeatherLastCheckTimestamp,
	SettingSensorReadIntervalSeconds,
	SettingMinimumSensorHumidityPercent,
	SettingTrendMaxSamples,
	SettingLocalTimezone,
	SettingLocation,
	SettingGardeningSeason,
}

// Known reports whether key belongs to the settings vocabulary.
func Known(key Setting) bool {
	for _, s := range allSettings {
		if s == key {
			return true
		}
	}
	return false
}

// Settings returns the vocabulary in canonical order.
func Settings() []Setting {
	out := make([]Setting, len(allSettings))
	copy(out, allSettings)
	return out
}

// Defaults returns the factory document for every setting.
func Defaults() map[Setting]json.RawMessage {
	return map[Setting]json.RawMessage{
		SettingHumidityTargetPercent:          json.RawMessage(`{"Z1":70.0,"Z2":70.0,"Z3":70.0}`),
		SettingWateringStartTime:              json.RawMessage(`{"value":"20:30"}`),
		SettingWateringMaxMinutesPerZone:      json.RawMessage(`{"value":10}`),
		SettingLastWateringDate:               json.RawMessage(`{"value":null}`),
		SettingRainCancelProbabilityThreshold: json.RawMessage(`{"value":50.0}`),
		SettingUnits:                          json.RawMessage(`{"value":"imperial"}`),
		SettingWeatherCheckIntervalSeconds:    json.RawMessage(`{"value":21600}`),
		SettingWeatherCheckPreWateringSeconds: json.RawMessage(`{"value":1800}`),
		SettingWeatherLastCheckTimestamp:      json.RawMessage(`{"value":null}`),
		SettingSensorReadIntervalSeconds:      json.RawMessage(`{"value":600}`),
		SettingMinimumSensorHumidityPercent:   json.RawMessage(`{"Z1":30.0,"Z2":30.0,"Z3":30.0}`),
		SettingTrendMaxSamples:                json.RawMessage(`{"value":3000}`),
		SettingLocalTimezone:                  json.RawMessage(`{"value":"UTC"}`),
		SettingLocation:                       json.RawMessage(`{"longitude":0.0,"latitude":0.0}`),
		SettingGardeningSeason:                json.RawMessage(`{"start":"03-31","stop":"10-31"}`),
	}
}

// Location is the controller's geographic position.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Season bounds the gardening season with inclusive MM-DD dates.
type Season struct {
	Start string `json:"start"`
	Stop  string `json:"stop"`
}

// Per-key document shapes.
type stringDoc struct {
	Value string `json:"value"`
}

type intDoc struct {
	Value int `json:"value"`
}

type floatDoc struct {
	Value float64 `json:"value"`
}

type nullableStringDoc struct {
	Value *string `json:"value"`
}

type nullableIntDoc struct {
	Value *int64 `json:"value"`
}

type locationDoc struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type seasonDoc struct {
	Start *string `json:"start"`
	Stop  *string `json:"stop"`
}

// validateShape is the per-variant decode step: it checks that raw is a
// structurally valid document for key. Every write path (typed setters,
// raw sets, seed files) goes through here before the store is touched.
func validateShape(key Setting, raw json.RawMessage) error {
	invalid := func(reason string) error {
		return &store.ValidationError{Field: string(key), Reason: reason}
	}

	switch key {
	case SettingHumidityTargetPercent, SettingMinimumSensorHumidityPercent:
		var m map[string]float64
		if err := json.Unmarshal(raw, &m); err != nil {
			return invalid("must be a map of zone name to percentage")
		}
		if len(m) == 0 {
			return invalid("must name at least one zone")
		}
		for zone := range m {
			if strings.TrimSpace(zone) == "" {
				return invalid("zone names must be non-empty")
			}
		}

	case SettingWateringStartTime:
		var doc stringDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return invalid("must be {\"value\":\"HH:MM\"}")
		}
		if _, err := time.Parse("15:04", doc.Value); err != nil {
			return invalid(fmt.Sprintf("%q is not a valid HH:MM time", doc.Value))
		}

	case SettingWateringMaxMinutesPerZone, SettingTrendMaxSamples,
		SettingWeatherCheckIntervalSeconds, SettingWeatherCheckPreWateringSeconds,
		SettingSensorReadIntervalSeconds:
		var doc intDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return invalid("must be {\"value\":<integer>}")
		}
		if doc.Value <= 0 {
			return invalid("value must be positive")
		}

	case SettingLastWateringDate:
		var doc nullableStringDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return invalid("must be {\"value\":null} or {\"value\":\"YYYY-MM-DD\"}")
		}
		if doc.Value != nil {
			if _, err := time.Parse("2006-01-02", *doc.Value); err != nil {
				return invalid(fmt.Sprintf("%q is not a valid YYYY-MM-DD date", *doc.Value))
			}
		}

	case SettingRainCancelProbabilityThreshold:
		var doc floatDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return invalid("must be {\"value\":<number>}")
		}
		if doc.Value < 0 || doc.Value > 100 {
			return invalid("value must be a percentage between 0 and 100")
		}

	case SettingUnits:
		var doc stringDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return invalid("must be {\"value\":\"metric\"|\"imperial\"}")
		}
		if doc.Value != UnitsMetric && doc.Value != UnitsImperial {
			return invalid(fmt.Sprintf("%q is not one of %q, %q", doc.Value, UnitsMetric, UnitsImperial))
		}

	case SettingWeatherLastCheckTimestamp:
		var doc nullableIntDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return invalid("must be {\"value\":null} or {\"value\":<unix seconds>}")
		}
		if doc.Value != nil && *doc.Value < 0 {
			return invalid("value must not be negative")
		}

	case SettingLocalTimezone:
		var doc stringDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return invalid("must be {\"value\":\"<IANA timezone>\"}")
		}
		if _, err := time.LoadLocation(doc.Value); err != nil {
			return invalid(fmt.Sprintf("%q is not a known timezone", doc.Value))
		}

	case SettingLocation:
		var doc locationDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return invalid("must be {\"latitude\":<number>,\"longitude\":<number>}")
		}
		if doc.Latitude == nil || doc.Longitude == nil {
			return invalid("latitude and longitude are both required")
		}
		if *doc.Latitude < -90 || *doc.Latitude > 90 {
			return invalid("latitude must be between -90 and 90")
		}
		if *doc.Longitude < -180 || *doc.Longitude > 180 {
			return invalid("longitude must be between -180 and 180")
		}

	case SettingGardeningSeason:
		var doc seasonDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return invalid("must be {\"start\":\"MM-DD\",\"stop\":\"MM-DD\"}")
		}
		if doc.Start == nil || doc.Stop == nil {
			return invalid("start and stop are both required")
		}
		for _, v := range []string{*doc.Start, *doc.Stop} {
			if _, err := time.Parse("01-02", v); err != nil {
				return invalid(fmt.Sprintf("%q is not a valid MM-DD date", v))
			}
		}

	default:
		return invalid("unknown setting")
	}

	return nil
}

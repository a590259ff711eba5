package store

import (
	"time"
)

// Zone represents an irrigation/monitoring zone and its hardware mapping.
// Name is unique and immutable once assigned; the sensor and relay
// addresses are bus addresses (I2C/Modbus) and may be absent.
type Zone struct {
	ID               int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Name             string    `gorm:"column:name;not null;unique"`
	Description      string    `gorm:"column:description"`
	RHSensorAddress  *int      `gorm:"column:rh_sensor_address"`
	NPKSensorAddress *int      `gorm:"column:npk_sensor_address"`
	RelayAddress     *int      `gorm:"column:relay_address"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for Zone
func (Zone) TableName() string {
	return "zone"
}

// Measurement is one stored sensor reading. TSUTC is Unix seconds, UTC;
// TZ is the capture-time timezone label and travels as an opaque string,
// as does Unit. Rows are immutable once inserted.
type Measurement struct {
	ID         int64     `gorm:"primaryKey;autoIncrement;column:id"`
	ZoneID     int64     `gorm:"column:zone_id;not null"`
	Metric     string    `gorm:"column:name;not null"`
	TSUTC      int64     `gorm:"column:ts_utc;not null"`
	TZ         string    `gorm:"column:tz"`
	Reading    float64   `gorm:"column:reading;not null"`
	Unit       string    `gorm:"column:unit"`
	InsertedAt time.Time `gorm:"column:inserted_at;autoCreateTime"`
}

// TableName specifies the table name for Measurement
func (Measurement) TableName() string {
	return "measurement"
}

// Time returns the reading's capture instant.
func (m Measurement) Time() time.Time {
	return time.Unix(m.TSUTC, 0).UTC()
}

// Sample is one reading submitted for ingestion, keyed by zone name. The
// timestamp is truncated to whole UTC seconds on insert.
type Sample struct {
	Zone      string
	Metric    string
	Timestamp time.Time
	TZ        string
	Value     float64
	Unit      string
}

// Weather is one forecast fetch row. CollectedAtUTC is when the fetch
// happened, ForecastTSUTC the forecast hour it describes; both are Unix
// seconds, UTC. Field pointers are nil where the source supplied no
// value; current-conditions rows carry no precipitation probability.
type Weather struct {
	ID                       int64     `gorm:"primaryKey;autoIncrement;column:id"`
	CollectedAtUTC           int64     `gorm:"column:collected_at_utc;not null"`
	ForecastTSUTC            int64     `gorm:"column:forecast_ts_utc;not null"`
	TZ                       string    `gorm:"column:tz"`
	Tag                      string    `gorm:"column:tag"`
	Temperature              *float64  `gorm:"column:temperature_2m"`
	TemperatureUnit          string    `gorm:"column:temperature_unit"`
	PrecipitationProbability *float64  `gorm:"column:precipitation_probability"`
	Precipitation            *float64  `gorm:"column:precipitation"`
	PrecipitationUnit        string    `gorm:"column:precipitation_unit"`
	SoilMoisture             *float64  `gorm:"column:soil_moisture_1_to_3cm"`
	MoistureUnit             string    `gorm:"column:moisture_unit"`
	SurfacePressure          *float64  `gorm:"column:surface_pressure"`
	PressureUnit             string    `gorm:"column:pressure_unit"`
	InsertedAt               time.Time `gorm:"column:inserted_at;autoCreateTime"`
}

// TableName specifies the table name for Weather
func (Weather) TableName() string {
	return "weather"
}

// CollectedTime returns the fetch instant.
func (w Weather) CollectedTime() time.Time {
	return time.Unix(w.CollectedAtUTC, 0).UTC()
}

// ForecastTime returns the forecast hour.
func (w Weather) ForecastTime() time.Time {
	return time.Unix(w.ForecastTSUTC, 0).UTC()
}

// ConfigRecord is one settings row. Value always holds well-formed JSON;
// the column is named "type" for the setting key.
type ConfigRecord struct {
	Key       string    `gorm:"primaryKey;column:type"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for ConfigRecord
func (ConfigRecord) TableName() string {
	return "config"
}

// ZoneLatest pairs a zone with the latest stored reading for each metric
// observed in it. Metrics is empty for zones with no measurements.
type ZoneLatest struct {
	Zone    Zone
	Metrics []Measurement
}

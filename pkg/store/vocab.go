package store

// Metric names recorded by the controller's collectors.
const (
	MetricHumidity               = "humidity"
	MetricTemperature            = "temperature"
	MetricPH                     = "ph"
	MetricElectricalConductivity = "electrical_conductivity"
	MetricSalinity               = "salinity"
	MetricTotalDissolvedSolids   = "total_dissolved_solids"
	MetricNitrogen               = "nitrogen"
	MetricPhosphorus             = "phosphorus"
	MetricPotassium              = "potassium"
	MetricWater                  = "water"
	MetricRPITemperature         = "rpi_temperature"
)

// RPIZoneName is the reserved zone for controller-board telemetry.
const RPIZoneName = "RPI"

// Unit strings as they travel through the ingestion contract. The store
// performs no conversion; these exist so collectors and dashboards agree
// on spelling.
const (
	UnitCelsius      = "°C"
	UnitFahrenheit   = "°F"
	UnitLiters       = "L"
	UnitGallons      = "gal"
	UnitPPM          = "ppm"
	UnitPPT          = "ppt"
	UnitConductivity = "µS/cm"
	UnitPH           = "pH"
	UnitPercent      = "%"
	UnitMgPerKg      = "mg/kg"
	UnitInches       = "in"
	UnitMillimeters  = "mm"
	UnitM3PerM3      = "m³/m³"
	UnitHPa          = "hPa"
	UnitSeconds      = "s"
	UnitMillis       = "ms"
)

package models

import "time"

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate lies within WGS84 bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Station is a fixed observation site operated by the historical provider.
// Immutable after creation.
type Station struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Coord     Coordinate `json:"coord"`
	DistanceM *float64   `json:"distanceM,omitempty"`
}

// ElementValue is a single measured quantity with its reporting unit.
type ElementValue struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// ObservationRecord is one station's measurements at one reference time.
// Not every element is reported every hour, and the provider does not
// guarantee records arrive sorted or deduplicated by timestamp.
type ObservationRecord struct {
	ReferenceTime time.Time               `json:"referenceTime"`
	Elements      map[string]ElementValue `json:"elements"`
}

// ForecastInstant holds the point-in-time details of a forecast step.
type ForecastInstant struct {
	TemperatureC     *float64 `json:"temperatureC,omitempty"`
	WindSpeedMS      *float64 `json:"windSpeedMS,omitempty"`
	WindDirectionDeg *float64 `json:"windDirectionDeg,omitempty"`
	HumidityPct      *float64 `json:"humidityPct,omitempty"`
	PressureHpa      *float64 `json:"pressureHpa,omitempty"`
}

// ForecastPeriod is a next-N-hours prediction block.
type ForecastPeriod struct {
	PrecipitationMM *float64 `json:"precipitationMM,omitempty"`
	SymbolCode      string   `json:"symbolCode,omitempty"`
}

// ForecastPoint is one step of the gridded forecast time series. The
// provider emits these ordered, but consumers must not rely on that.
type ForecastPoint struct {
	Time       time.Time       `json:"time"`
	Instant    ForecastInstant `json:"instant"`
	Next1Hours *ForecastPeriod `json:"next1Hours,omitempty"`
	Next6Hours *ForecastPeriod `json:"next6Hours,omitempty"`
}

// Place is a geocoding match for a free-text location query.
type Place struct {
	Name        string     `json:"name"`
	Coord       Coordinate `json:"coord"`
	CountryCode string     `json:"countryCode,omitempty"`
}

// UnifiedDataPoint is one entry of the merged observation/forecast series.
// SnowDepthCM nil means no estimate is possible, which is distinct from a
// depth of zero. The merge step creates these; the snow depth estimator
// mutates SnowDepthCM in a single forward pass; after that the series is
// read-only.
type UnifiedDataPoint struct {
	Time             time.Time `json:"time"`
	PrecipitationMM  float64   `json:"precipitationMM"`
	SnowDepthCM      *float64  `json:"snowDepthCM,omitempty"`
	TemperatureC     *float64  `json:"temperatureC,omitempty"`
	WindSpeedMS      *float64  `json:"windSpeedMS,omitempty"`
	WindDirectionDeg *float64  `json:"windDirectionDeg,omitempty"`
	IsForecast       bool      `json:"isForecast"`
}

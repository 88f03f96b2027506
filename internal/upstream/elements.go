package upstream

import "strings"

// Element identifiers used by the historical observations provider.
const (
	ElementSnowDepth     = "surface_snow_thickness"
	ElementTemperature   = "air_temperature"
	ElementWindSpeed     = "wind_speed"
	ElementWindDirection = "wind_from_direction"

	// The precipitation element carries an aggregation-period suffix that
	// varies by station, e.g. "sum(precipitation_amount PT1H)" or
	// "sum(precipitation_amount PT6H)". Queries use the hourly form;
	// matching responses goes through IsPrecipitationElement.
	ElementPrecipitationHourly = "sum(precipitation_amount PT1H)"

	precipitationPrefix = "sum(precipitation_amount"
)

// ObservationElements is the full element set requested for historical
// observation fetches.
var ObservationElements = []string{
	ElementPrecipitationHourly,
	ElementSnowDepth,
	ElementTemperature,
	ElementWindSpeed,
	ElementWindDirection,
}

// SnowElements are the two elements a station must expose to be preferred
// by the nearest-station search.
var SnowElements = []string{
	ElementPrecipitationHourly,
	ElementSnowDepth,
}

// IsPrecipitationElement reports whether an element identifier is a
// precipitation accumulation, whatever its aggregation-period suffix.
func IsPrecipitationElement(id string) bool {
	return strings.HasPrefix(id, precipitationPrefix)
}

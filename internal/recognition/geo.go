package recognition

import "strconv"

// Geo is an optional coordinate pair attached to detection events.
// A nil field means the client did not send that coordinate.
type Geo struct {
	Latitude  *float64
	Longitude *float64
}

// ParseGeo parses optional latitude/longitude form values. Parsing is
// best-effort: an empty string means the value was not sent, and if
// either non-empty value fails to parse as a float BOTH are dropped.
// Identification proceeds without geolocation either way, so there is
// no error return.
func ParseGeo(latStr, lngStr string) Geo {
	var geo Geo

	if latStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return Geo{}
		}
		geo.Latitude = &lat
	}
	if lngStr != "" {
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			return Geo{}
		}
		geo.Longitude = &lng
	}
	return geo
}

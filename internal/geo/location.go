// Package geo models observer locations and resolves them to place names.
package geo

import (
	"fmt"
	"math"
)

// UnknownCity is used when neither geocoding nor the timezone table yields a place
const UnknownCity = "Unknown location"

// Location is an observer position. A nil *Location means "no location".
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone,omitempty"`
	City      string  `json:"city,omitempty"`
}

// Validate checks the coordinates are on the globe
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("latitude out of range: %v", l.Latitude)
	}
	if math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("longitude out of range: %v", l.Longitude)
	}
	return nil
}

// timezoneDefaults maps browser timezones to a representative city
var timezoneDefaults = map[string]Location{
	"America/Mexico_City":  {Latitude: 19.4326, Longitude: -99.1332, City: "Ciudad de México"},
	"America/Bogota":       {Latitude: 4.7110, Longitude: -74.0721, City: "Bogotá"},
	"America/Lima":         {Latitude: -12.0464, Longitude: -77.0428, City: "Lima"},
	"America/Buenos_Aires": {Latitude: -34.6037, Longitude: -58.3816, City: "Buenos Aires"},
	"America/Santiago":     {Latitude: -33.4489, Longitude: -70.6693, City: "Santiago"},
	"Europe/Madrid":        {Latitude: 40.4168, Longitude: -3.7038, City: "Madrid"},
}

// DefaultLocation returns a representative location for a timezone, or 0,0 when
// the timezone is not in the table
func DefaultLocation(timezone string) Location {
	loc, ok := timezoneDefaults[timezone]
	if !ok {
		return Location{Timezone: timezone, City: UnknownCity}
	}
	loc.Timezone = timezone
	return loc
}

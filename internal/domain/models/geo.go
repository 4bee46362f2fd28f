package models

import "math"

// Location is a WGS84 coordinate pair with an optional reported accuracy
// radius in meters.
type Location struct {
	Latitude  float64  `json:"latitude" bson:"latitude" db:"latitude"`
	Longitude float64  `json:"longitude" bson:"longitude" db:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty" bson:"accuracy,omitempty" db:"accuracy"`
}

// Validate checks coordinate ranges
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 || l.Longitude < -180 || l.Longitude > 180 {
		return ErrInvalidLocation
	}
	return nil
}

const earthRadiusKm = 6371.0

// Distance returns the haversine great-circle distance between two
// locations in kilometers.
func Distance(a, b Location) float64 {
	lat1Rad := a.Latitude * math.Pi / 180
	lat2Rad := b.Latitude * math.Pi / 180
	deltaLat := (b.Latitude - a.Latitude) * math.Pi / 180
	deltaLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

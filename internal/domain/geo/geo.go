package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EarthRadiusMeters is the mean radius of Earth used for Haversine distance.
const EarthRadiusMeters = 6_371_000.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// NewPoint validates latitude/longitude and returns a Point.
func NewPoint(lat, lon float64) (Point, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || !ValidateCoordinates(lat, lon) {
		return Point{}, fmt.Errorf("coordinates out of range: lat=%v lon=%v", lat, lon)
	}
	return Point{Lat: lat, Lon: lon}, nil
}

// ParsePoint parses textual latitude/longitude as supplied in query properties.
// Decimal commas ("51,17") are accepted.
func ParsePoint(lat, lon string) (Point, error) {
	la, err := parseDegrees(lat)
	if err != nil {
		return Point{}, fmt.Errorf("latitude: %w", err)
	}
	lo, err := parseDegrees(lon)
	if err != nil {
		return Point{}, fmt.Errorf("longitude: %w", err)
	}
	return NewPoint(la, lo)
}

func parseDegrees(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

// Haversine returns the great-circle distance in meters between two points
// specified by latitude and longitude in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// DistanceKm returns the great-circle distance between two points in kilometres.
func DistanceKm(a, b Point) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon) / 1000
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

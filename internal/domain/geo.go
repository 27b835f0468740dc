package domain

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusKM is the mean Earth radius used for great-circle distances.
const EarthRadiusKM = 6371.0

// Geo represents a WGS-84 latitude/longitude coordinate pair in degrees.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate lies within the WGS-84 ranges.
func (g Geo) Valid() bool {
	return g.Lat >= -90 && g.Lat <= 90 && g.Lon >= -180 && g.Lon <= 180 &&
		!math.IsNaN(g.Lat) && !math.IsNaN(g.Lon)
}

// Haversine returns the great-circle distance between a and b in kilometres:
//
//	a = sin²(Δlat/2) + cos(lat1)·cos(lat2)·sin²(Δlon/2)
//	d = 2·R·atan2(√a, √(1-a))
func Haversine(a, b Geo) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return 2 * EarthRadiusKM * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Bounds is a latitude/longitude box used to prefilter rows in SQL before
// the exact distance check.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains reports whether g lies inside the box, edges included.
func (b Bounds) Contains(g Geo) bool {
	return g.Lat >= b.MinLat && g.Lat <= b.MaxLat && g.Lon >= b.MinLon && g.Lon <= b.MaxLon
}

// BoundsAround returns a box that encloses every point within radiusKM of
// center. Boxes that wrap the antimeridian widen to the full longitude range.
func BoundsAround(center Geo, radiusKM float64) Bounds {
	angle := s1.Angle(radiusKM / EarthRadiusKM)

	lngSpan := s1.Angle(2 * math.Pi)
	if cosLat := math.Cos(center.Lat * math.Pi / 180); cosLat > 1e-9 {
		lngSpan = 2 * angle / s1.Angle(cosLat)
	}

	rect := s2.RectFromCenterSize(
		s2.LatLngFromDegrees(center.Lat, center.Lon),
		s2.LatLng{Lat: 2 * angle, Lng: lngSpan},
	)

	b := Bounds{
		MinLat: rect.Lat.Lo * 180 / math.Pi,
		MaxLat: rect.Lat.Hi * 180 / math.Pi,
		MinLon: -180,
		MaxLon: 180,
	}
	touchesPole := rect.Lat.Hi >= math.Pi/2 || rect.Lat.Lo <= -math.Pi/2
	if !touchesPole && !rect.Lng.IsFull() && !rect.Lng.IsInverted() {
		b.MinLon = rect.Lng.Lo * 180 / math.Pi
		b.MaxLon = rect.Lng.Hi * 180 / math.Pi
	}
	return b
}

package services

import "math"

const earthRadiusMeters = 6371000

// Geofence is a fixed-radius circular area around the warehouse reference
// point. Check-ins outside it are rejected.
type Geofence struct {
	Lat          float64
	Lng          float64
	RadiusMeters float64
}

// NewGeofence creates a geofence centered on the given reference point
func NewGeofence(lat, lng, radiusMeters float64) *Geofence {
	return &Geofence{Lat: lat, Lng: lng, RadiusMeters: radiusMeters}
}

// DistanceMeters returns the haversine distance from the reference point
func (g *Geofence) DistanceMeters(lat, lng float64) float64 {
	return HaversineMeters(g.Lat, g.Lng, lat, lng)
}

// Contains reports whether the coordinates fall inside the fence
func (g *Geofence) Contains(lat, lng float64) bool {
	return g.DistanceMeters(lat, lng) <= g.RadiusMeters
}

// HaversineMeters computes the great-circle distance between two coordinates
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

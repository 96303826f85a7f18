// utils/geo.go
package utils

import "math"

const earthRadiusMeters = 6371000.0

// GeofenceRadiusMeters is the distance within which a checkpoint task unlocks.
const GeofenceRadiusMeters = 100.0

// HaversineMeters returns the great-circle distance between two coordinates.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// WithinGeofence reports whether a player position is close enough to a checkpoint.
func WithinGeofence(playerLat, playerLng, pointLat, pointLng float64) bool {
	return HaversineMeters(playerLat, playerLng, pointLat, pointLng) <= GeofenceRadiusMeters
}

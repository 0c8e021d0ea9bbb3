package routing

import (
	"math"

	"github.com/instafit/fieldops-backend/pkg/maps"
)

// EarthRadiusKM is the sphere radius used for straight-line distances.
const EarthRadiusKM = 6371.0

// HaversineKM returns the great-circle distance between a and b.
func HaversineKM(a, b maps.LatLng) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLng := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKM * math.Asin(math.Sqrt(h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

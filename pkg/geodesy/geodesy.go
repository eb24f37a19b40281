package geodesy

import (
	"math"
)

// EarthRadiusNM is the mean Earth radius in nautical miles.
const EarthRadiusNM = 3440.065

// DistanceNM returns the great-circle distance between two coordinates in
// nautical miles, using the haversine formula.
func DistanceNM(lat1, lon1, lat2, lon2 float64) float64 {
	r1 := lat1 * math.Pi / 180
	r2 := lat2 * math.Pi / 180

	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	// handle dateline crossing
	for dLon > math.Pi {
		dLon -= 2 * math.Pi
	}
	for dLon < -math.Pi {
		dLon += 2 * math.Pi
	}

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(r1)*math.Cos(r2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return EarthRadiusNM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// InitialBearing returns the initial great-circle bearing from the first
// coordinate towards the second, in compass degrees (0-360).
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	r1 := lat1 * math.Pi / 180
	r2 := lat2 * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(r2)
	x := math.Cos(r1)*math.Sin(r2) - math.Sin(r1)*math.Cos(r2)*math.Cos(dLon)

	bearing := math.Atan2(y, x) * 180 / math.Pi
	if bearing < 0 {
		bearing += 360
	}
	return bearing
}

// Midpoint returns the arithmetic midpoint between two coordinates. Good
// enough for placing an enroute sector center; not a true great-circle
// midpoint.
func Midpoint(lat1, lon1, lat2, lon2 float64) (float64, float64) {
	return (lat1 + lat2) / 2, (lon1 + lon2) / 2
}

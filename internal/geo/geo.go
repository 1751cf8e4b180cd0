package geo

import (
	"math"
	"time"
)

// Mean earth radius in meters, used for all great-circle math.
const EarthRadiusMeters = 6371000.0

// Fix is a single timestamped location reading from a provider.
type Fix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// Distance computes the haversine great-circle distance in meters
// between two latitude/longitude pairs given in degrees.
func Distance(lat1 float64, lon1 float64, lat2 float64, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// Bearing computes the heading in degrees from the first fix to the
// second, via atan2 on the coordinate deltas.
func Bearing(lat1 float64, lon1 float64, lat2 float64, lon2 float64) float64 {
	return math.Atan2(lon2-lon1, lat2-lat1) * 180 / math.Pi
}

// Speed computes ground speed in meters per second between two
// timestamped fixes. Returns 0 when the fixes are not ordered in time.
func Speed(lat1 float64, lon1 float64, t1 time.Time, lat2 float64, lon2 float64, t2 time.Time) float64 {
	elapsed := t2.Sub(t1).Seconds()
	if elapsed <= 0 {
		return 0
	}

	return Distance(lat1, lon1, lat2, lon2) / elapsed
}

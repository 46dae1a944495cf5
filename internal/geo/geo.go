// Package geo provides great-circle and relative-motion geometry for
// aircraft conflict assessment. All functions are pure and total:
// degenerate inputs (zero speed, identical points) yield well-defined
// results, never NaN from division by zero.
package geo

import "math"

// EarthRadiusNM is the mean Earth radius in nautical miles.
const EarthRadiusNM = 3440.065

// Distance returns the great-circle distance between two points in
// nautical miles, using the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusNM * c
}

// Bearing returns the initial great-circle bearing from point 1 to
// point 2, in degrees in [0, 360).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dLambda := radians(lon2 - lon1)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)

	deg := degrees(math.Atan2(y, x))
	return math.Mod(deg+360, 360)
}

// ClosingSpeed returns the magnitude of the difference of the two
// aircraft's ground velocity vectors, in knots. Headings are degrees
// true; speeds are ground speed in knots. This is a planar
// approximation that ignores vertical rate.
func ClosingSpeed(speed1, track1, speed2, track2 float64) float64 {
	vx1 := speed1 * math.Sin(radians(track1))
	vy1 := speed1 * math.Cos(radians(track1))
	vx2 := speed2 * math.Sin(radians(track2))
	vy2 := speed2 * math.Cos(radians(track2))

	dx := vx1 - vx2
	dy := vy1 - vy2
	return math.Sqrt(dx*dx + dy*dy)
}

// TimeToClosestApproach returns the projected time in seconds until the
// two aircraft reach minimum separation, assuming constant velocity.
// Returns +Inf when the relative speed is zero or negative (no closure).
func TimeToClosestApproach(distanceNM, relativeSpeedKt float64) float64 {
	if relativeSpeedKt <= 0 {
		return math.Inf(1)
	}
	return distanceNM / relativeSpeedKt * 3600
}

// ClosestApproachDistance returns the first-order estimate of minimum
// separation in nautical miles given the current distance, relative
// speed and time to closest approach. Never negative; with +Inf time
// the current distance is returned unchanged.
func ClosestApproachDistance(distanceNM, relativeSpeedKt, ttcaSeconds float64) float64 {
	if math.IsInf(ttcaSeconds, 1) || relativeSpeedKt <= 0 {
		return distanceNM
	}
	closed := relativeSpeedKt * ttcaSeconds / 3600
	if closed >= distanceNM {
		return 0
	}
	return distanceNM - closed
}

// compassPoints is the 16-point compass rose in clockwise order.
var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CompassPoint returns the 16-point compass direction nearest to the
// given bearing in degrees.
func CompassPoint(bearing float64) string {
	b := math.Mod(bearing, 360)
	if b < 0 {
		b += 360
	}
	idx := int(math.Round(b/22.5)) % 16
	return compassPoints[idx]
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// Package physics holds the small amount of navigation math the telemetry
// simulator needs.
package physics

import (
	"math"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

const (
	FeetToMeters = 0.3048
	KnotsToMs    = 0.514444 // Conversion factor from Knots to m/s
	MsToKnots    = 1.94384  // Conversion factor from m/s to Knots
)

// Vector2D represents a 2D vector (magnitude, direction)
type Vector2D struct {
	X float64 // East component
	Y float64 // North component
}

// HeadingToVector converts a heading (degrees) and magnitude to X/Y components
func HeadingToVector(headingDeg float64, magnitude float64) Vector2D {
	rad := (90 - headingDeg) * math.Pi / 180 // Convert compass heading to math angle
	return Vector2D{
		X: magnitude * math.Cos(rad),
		Y: magnitude * math.Sin(rad),
	}
}

// NormalizeHeading wraps a heading in degrees into [0, 360)
func NormalizeHeading(headingDeg float64) float64 {
	h := math.Mod(headingDeg, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// CalculateMagneticVariation calculates the magnetic declination for a given position and time
// Returns declination in degrees (+East, -West)
func CalculateMagneticVariation(lat, lon, altFt float64, date time.Time) float64 {
	altM := altFt * FeetToMeters

	loc := egm96.NewLocationGeodetic(lat, lon, altM)

	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		// Return 0 for safety if calculation fails
		return 0.0
	}

	return mag.D() // Declination
}

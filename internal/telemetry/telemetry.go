// Package telemetry defines the aircraft state sample that drives the ATC
// session and the provider interface that produces it.
package telemetry

import (
	"time"

	"github.com/walker79/offline-atc/pkg/geodesy"
)

// State is a single snapshot of the aircraft, sampled once per session tick
type State struct {
	Timestamp     time.Time `json:"timestamp"`
	Latitude      float64   `json:"lat"`
	Longitude     float64   `json:"lon"`
	AltitudeMSL   float64   `json:"altitude_msl"` // feet
	AltitudeAGL   float64   `json:"altitude_agl"` // feet above the nearest field
	Groundspeed   float64   `json:"groundspeed"`  // knots
	Heading       float64   `json:"heading"`      // true degrees
	MagHeading    float64   `json:"mag_heading"`  // magnetic degrees
	VerticalSpeed float64   `json:"vertical_speed"` // feet per minute, positive up
	OnGround      bool      `json:"on_ground"`
}

// DistanceTo returns the great-circle distance in nautical miles from the
// sampled position to the given point
func (s *State) DistanceTo(lat, lon float64) float64 {
	return geodesy.DistanceNM(s.Latitude, s.Longitude, lat, lon)
}

// Provider produces telemetry samples. The built-in simulator implements it;
// a live sim-connect bridge would too.
type Provider interface {
	// State returns the current aircraft state
	State() State
}

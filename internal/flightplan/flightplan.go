// Package flightplan defines the flight plan that seeds an ATC session and
// the SimBrief importer that can fetch a real one.
package flightplan

import (
	"fmt"
	"math/rand"
	"strings"
)

// FlightPlan holds everything the controller needs to know about the flight
// before the first transmission
type FlightPlan struct {
	Callsign        string   `json:"callsign"`
	Origin          string   `json:"origin"`
	Destination     string   `json:"destination"`
	DepartureRunway string   `json:"departure_runway"`
	ArrivalRunway   string   `json:"arrival_runway"`
	SID             string   `json:"sid"`
	STAR            string   `json:"star"`
	CruiseAltitude  int      `json:"cruise_altitude"` // feet MSL
	FlightLevel     string   `json:"flight_level"`    // display form, e.g. "FL370"
	Route           string   `json:"route"`
	RouteDistanceNM float64  `json:"route_distance_nm"`
	Waypoints       []string `json:"waypoints,omitempty"`
	Squawk          string   `json:"squawk"`
}

// Reserved transponder codes that must never be assigned: VFR conspicuity
// zero, hijack, radio failure, emergency.
var reservedSquawks = map[string]struct{}{
	"0000": {},
	"7500": {},
	"7600": {},
	"7700": {},
}

// GenerateSquawk returns a random four-digit octal transponder code,
// avoiding the reserved codes
func GenerateSquawk(rng *rand.Rand) string {
	for {
		code := fmt.Sprintf("%d%d%d%d",
			rng.Intn(8), rng.Intn(8), rng.Intn(8), rng.Intn(8))
		if _, reserved := reservedSquawks[code]; !reserved {
			return code
		}
	}
}

// TODDistanceNM returns the distance from the destination at which descent
// should begin, using the 3-to-1 rule with a 10 nm buffer: three miles per
// thousand feet to lose down to 3000 AGL.
func (fp *FlightPlan) TODDistanceNM() float64 {
	altitudeToLose := float64(fp.CruiseAltitude) - 3000
	if altitudeToLose < 0 {
		altitudeToLose = 0
	}
	return altitudeToLose/1000*3 + 10
}

// FlightLevelString formats an altitude in feet as a flight level or a plain
// altitude readback ("FL370" above the transition, "5000 feet" below)
func FlightLevelString(altitudeFt int) string {
	if altitudeFt >= 18000 {
		return fmt.Sprintf("FL%d", altitudeFt/100)
	}
	return fmt.Sprintf("%d feet", altitudeFt)
}

// Demo returns the built-in Heathrow to Frankfurt plan used when no SimBrief
// plan is available. The squawk is freshly generated so repeated sessions
// don't share a code.
func Demo(rng *rand.Rand) *FlightPlan {
	return &FlightPlan{
		Callsign:        "SPEEDBIRD123",
		Origin:          "EGLL",
		Destination:     "EDDF",
		DepartureRunway: "27R",
		ArrivalRunway:   "25C",
		SID:             "BUZAD2G",
		STAR:            "TEKTU1A",
		CruiseAltitude:  37000,
		FlightLevel:     "FL370",
		Route:           "BUZAD L9 KONAN",
		RouteDistanceNM: 420.0,
		Waypoints:       []string{"BUZAD", "KONAN"},
		Squawk:          GenerateSquawk(rng),
	}
}

// Validate checks that a plan carries the fields the session cannot run
// without
func (fp *FlightPlan) Validate() error {
	if strings.TrimSpace(fp.Callsign) == "" {
		return fmt.Errorf("flight plan has no callsign")
	}
	if len(fp.Origin) != 4 {
		return fmt.Errorf("invalid origin ICAO: %q", fp.Origin)
	}
	if len(fp.Destination) != 4 {
		return fmt.Errorf("invalid destination ICAO: %q", fp.Destination)
	}
	if fp.CruiseAltitude <= 0 {
		return fmt.Errorf("invalid cruise altitude: %d", fp.CruiseAltitude)
	}
	return nil
}

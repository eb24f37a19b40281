package atc

import (
	"fmt"

	"github.com/walker79/offline-atc/internal/airports"
	"github.com/walker79/offline-atc/internal/telemetry"
)

// AirspaceClass is one of the six ICAO-style airspace classifications
type AirspaceClass string

const (
	ClassA AirspaceClass = "Class A" // FL180 and above
	ClassB AirspaceClass = "Class B" // Major airport terminal areas
	ClassC AirspaceClass = "Class C" // Medium airport terminal areas
	ClassD AirspaceClass = "Class D" // Small controlled airports
	ClassE AirspaceClass = "Class E" // General controlled airspace
	ClassG AirspaceClass = "Class G" // Uncontrolled airspace
)

func (c AirspaceClass) String() string { return string(c) }

// AirspaceVolume is a cylindrical airspace volume with an altitude band
type AirspaceVolume struct {
	Name           string        `json:"name"`
	Classification AirspaceClass `json:"class"`
	CenterLat      float64       `json:"center_lat"`
	CenterLon      float64       `json:"center_lon"`
	RadiusNM       float64       `json:"radius_nm"`
	FloorFt        float64       `json:"floor_ft"`
	CeilingFt      float64       `json:"ceiling_ft"`
}

// Contains reports whether the aircraft is inside the volume: altitude
// within the band and position within the radius
func (v *AirspaceVolume) Contains(state *telemetry.State) bool {
	if state.AltitudeMSL < v.FloorFt || state.AltitudeMSL > v.CeilingFt {
		return false
	}
	return state.DistanceTo(v.CenterLat, v.CenterLon) <= v.RadiusNM
}

// AirspaceMonitor tracks the aircraft's current airspace classification and
// detects transitions. Construction order of the volume list is the
// classification priority after the Class A altitude shortcut.
type AirspaceMonitor struct {
	current AirspaceClass
	volumes []AirspaceVolume
}

// NewAirspaceMonitor builds a monitor with one global Class A volume, one
// Class B terminal area per known airport, and a global Class E layer.
// Class G is the implicit default.
func NewAirspaceMonitor(db *airports.DB) *AirspaceMonitor {
	m := &AirspaceMonitor{current: ClassG}

	m.volumes = append(m.volumes, AirspaceVolume{
		Name: "High Altitude Airspace", Classification: ClassA,
		CenterLat: 0, CenterLon: 0, RadiusNM: 999999,
		FloorFt: 18000, CeilingFt: 60000,
	})

	for _, apt := range db.Majors() {
		m.volumes = append(m.volumes, AirspaceVolume{
			Name:           fmt.Sprintf("%s Class B", apt.Name),
			Classification: ClassB,
			CenterLat:      apt.Latitude, CenterLon: apt.Longitude,
			RadiusNM: 30, FloorFt: 0, CeilingFt: 10000,
		})
	}

	m.volumes = append(m.volumes, AirspaceVolume{
		Name: "Controlled Airspace", Classification: ClassE,
		CenterLat: 0, CenterLon: 0, RadiusNM: 999999,
		FloorFt: 1200, CeilingFt: 17999,
	})

	return m
}

// Classify returns the airspace class for a state without touching monitor
// state. At or above 18000 MSL it is always Class A; otherwise the first
// containing volume in construction order wins; otherwise Class G.
func (m *AirspaceMonitor) Classify(state *telemetry.State) AirspaceClass {
	if state.AltitudeMSL >= 18000 {
		return ClassA
	}
	for i := range m.volumes {
		if m.volumes[i].Contains(state) {
			return m.volumes[i].Classification
		}
	}
	return ClassG
}

// Check reclassifies, updates the current class, and reports whether it
// changed
func (m *AirspaceMonitor) Check(state *telemetry.State) (AirspaceClass, bool) {
	next := m.Classify(state)
	changed := next != m.current
	m.current = next
	return next, changed
}

// Current returns the last classification recorded by Check
func (m *AirspaceMonitor) Current() AirspaceClass {
	return m.current
}

// EntryMessage returns the announcement for entering a class, or "" when
// that class has no announcement
func EntryMessage(class AirspaceClass, callsign string) string {
	switch class {
	case ClassA:
		return fmt.Sprintf("%s, entering Class Alpha airspace, flight level one eight zero and above.", callsign)
	case ClassB:
		return fmt.Sprintf("%s, entering Class Bravo airspace, maintain assigned altitude.", callsign)
	case ClassC:
		return fmt.Sprintf("%s, Class Charlie airspace, radar contact.", callsign)
	case ClassD:
		return fmt.Sprintf("%s, entering Class Delta airspace.", callsign)
	case ClassE:
		return fmt.Sprintf("%s, controlled airspace.", callsign)
	case ClassG:
		return fmt.Sprintf("%s, uncontrolled airspace, VFR advisories available.", callsign)
	}
	return ""
}

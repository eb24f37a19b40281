package atc

import (
	"fmt"
	"math/rand"

	"github.com/walker79/offline-atc/internal/airports"
	"github.com/walker79/offline-atc/internal/config"
	"github.com/walker79/offline-atc/internal/flightplan"
	"github.com/walker79/offline-atc/internal/telemetry"
	"github.com/walker79/offline-atc/pkg/geodesy"
)

// Sector is a controller-owned volume of airspace: a cylinder around a
// center point with an altitude band, bound to one position type, one
// frequency and one personality.
type Sector struct {
	Name        string      `json:"name"`
	Position    Position    `json:"position"`
	Frequency   string      `json:"frequency"`
	CenterLat   float64     `json:"center_lat"`
	CenterLon   float64     `json:"center_lon"`
	RadiusNM    float64     `json:"radius_nm"`
	AltMinFt    float64     `json:"alt_min_ft"`
	AltMaxFt    float64     `json:"alt_max_ft"`
	Personality Personality `json:"personality"`
}

// Contains reports whether the aircraft is inside the sector volume
func (s *Sector) Contains(state *telemetry.State) bool {
	if state.AltitudeMSL < s.AltMinFt || state.AltitudeMSL > s.AltMaxFt {
		return false
	}
	return state.DistanceTo(s.CenterLat, s.CenterLon) <= s.RadiusNM
}

// DistanceToBoundary returns how far the aircraft is from the sector's
// lateral boundary; negative when outside the radius
func (s *Sector) DistanceToBoundary(state *telemetry.State) float64 {
	return s.RadiusNM - state.DistanceTo(s.CenterLat, s.CenterLon)
}

// FrequencyInfo is one row of the frequency list shown to the user
type FrequencyInfo struct {
	Position  Position `json:"position"`
	Frequency string   `json:"frequency"`
	Sector    string   `json:"sector"`
}

// Registry owns the flight's ordered sector list and tracks the active
// sector and frequency. The list order is the membership tie-break and must
// not be reordered; overlapping volumes (ground and tower at the same field)
// resolve to the earlier entry.
type Registry struct {
	sectors            []Sector
	activeFrequency    string
	activeSector       *Sector
	handoffThresholdNM float64
}

// GenerateFrequency produces a frequency string for one band, snapped down
// to the 25 kHz channel grid
func GenerateFrequency(band config.FrequencyBand, rng *rand.Rand) string {
	decimal := band.MinKHz + rng.Intn(band.MaxKHz-band.MinKHz+1)
	decimal = (decimal / 25) * 25
	return fmt.Sprintf("%d.%03d", band.BaseMHz, decimal)
}

// NewRegistry builds the fixed-order sector list for a flight plan:
// departure clearance, ground, tower and departure control, the enroute
// center, then arrival approach, tower and ground.
func NewRegistry(fp *flightplan.FlightPlan, db *airports.DB, cfg config.FrequenciesConfig, personalities map[Position]Personality, rng *rand.Rand) *Registry {
	dep := db.GetOrZero(fp.Origin)
	arr := db.GetOrZero(fp.Destination)

	r := &Registry{handoffThresholdNM: cfg.HandoffThresholdNM}

	add := func(name string, pos Position, band config.FrequencyBand, lat, lon, radius, altMin, altMax float64) {
		r.sectors = append(r.sectors, Sector{
			Name:        name,
			Position:    pos,
			Frequency:   GenerateFrequency(band, rng),
			CenterLat:   lat,
			CenterLon:   lon,
			RadiusNM:    radius,
			AltMinFt:    altMin,
			AltMaxFt:    altMax,
			Personality: personalities[pos],
		})
	}

	add(fp.Origin+" Clearance", PositionClearance, cfg.Clearance, dep.Latitude, dep.Longitude, 5, 0, 1000)
	add(fp.Origin+" Ground", PositionGround, cfg.Ground, dep.Latitude, dep.Longitude, 5, 0, 500)
	add(fp.Origin+" Tower", PositionTower, cfg.Tower, dep.Latitude, dep.Longitude, 10, 0, 3000)
	add(fp.Origin+" Departure", PositionDeparture, cfg.Departure, dep.Latitude, dep.Longitude, 40, 500, 18000)

	midLat, midLon := geodesy.Midpoint(dep.Latitude, dep.Longitude, arr.Latitude, arr.Longitude)
	add("Center", PositionCenter, cfg.Center, midLat, midLon, 200, 18000, 60000)

	add(fp.Destination+" Approach", PositionApproach, cfg.Approach, arr.Latitude, arr.Longitude, 40, 1000, 18000)
	add(fp.Destination+" Tower", PositionTower, cfg.Tower, arr.Latitude, arr.Longitude, 10, 0, 3000)
	add(fp.Destination+" Ground", PositionGround, cfg.Ground, arr.Latitude, arr.Longitude, 5, 0, 500)

	return r
}

// SetActiveFrequency makes the sector carrying the given frequency active.
// Returns false and leaves state unchanged when no sector matches; that is
// a normal outcome, not an error.
func (r *Registry) SetActiveFrequency(frequency string) bool {
	for i := range r.sectors {
		if r.sectors[i].Frequency == frequency {
			r.activeFrequency = frequency
			r.activeSector = &r.sectors[i]
			return true
		}
	}
	return false
}

// FindMatching returns the first sector in list order containing the
// aircraft, or nil
func (r *Registry) FindMatching(state *telemetry.State) *Sector {
	for i := range r.sectors {
		if r.sectors[i].Contains(state) {
			return &r.sectors[i]
		}
	}
	return nil
}

// CheckHandoff returns the sector the aircraft should be handed to, or nil.
// A handoff only surfaces when the aircraft is near the active sector's own
// boundary; being inside another sector's volume is not enough by itself.
func (r *Registry) CheckHandoff(state *telemetry.State) *Sector {
	if r.activeSector == nil {
		return nil
	}

	if r.activeSector.DistanceToBoundary(state) < r.handoffThresholdNM {
		if next := r.FindMatching(state); next != nil && next != r.activeSector {
			return next
		}
	}
	return nil
}

// ActiveSector returns the currently active sector, or nil before the first
// SetActiveFrequency
func (r *Registry) ActiveSector() *Sector {
	return r.activeSector
}

// ActiveFrequency returns the currently tuned frequency
func (r *Registry) ActiveFrequency() string {
	return r.activeFrequency
}

// Sectors returns the sector list in construction order
func (r *Registry) Sectors() []Sector {
	return r.sectors
}

// Frequency returns the frequency of the first sector with the given
// position type: the departure-side one when both ends of the flight have a
// sector of that type
func (r *Registry) Frequency(pos Position) string {
	for i := range r.sectors {
		if r.sectors[i].Position == pos {
			return r.sectors[i].Frequency
		}
	}
	return ""
}

// ArrivalFrequency returns the frequency of the last sector with the given
// position type: the arrival-side one
func (r *Registry) ArrivalFrequency(pos Position) string {
	for i := len(r.sectors) - 1; i >= 0; i-- {
		if r.sectors[i].Position == pos {
			return r.sectors[i].Frequency
		}
	}
	return ""
}

// FrequencyList returns the distinct (position, frequency) pairs for display
func (r *Registry) FrequencyList() []FrequencyInfo {
	var list []FrequencyInfo
	seen := make(map[string]struct{})
	for i := range r.sectors {
		key := string(r.sectors[i].Position) + "|" + r.sectors[i].Frequency
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		list = append(list, FrequencyInfo{
			Position:  r.sectors[i].Position,
			Frequency: r.sectors[i].Frequency,
			Sector:    r.sectors[i].Name,
		})
	}
	return list
}

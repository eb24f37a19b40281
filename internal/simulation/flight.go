// Package simulation provides the built-in telemetry source: a dead-reckoned
// single-aircraft flight model that reacts to the controller's current phase.
// It stands in for a live sim-connect bridge and feeds the session loop
// through the telemetry.Provider interface.
package simulation

import (
	"math"
	"sync"
	"time"

	"github.com/walker79/offline-atc/internal/airports"
	"github.com/walker79/offline-atc/internal/atc"
	"github.com/walker79/offline-atc/internal/config"
	"github.com/walker79/offline-atc/internal/flightplan"
	"github.com/walker79/offline-atc/internal/physics"
	"github.com/walker79/offline-atc/internal/telemetry"
	"github.com/walker79/offline-atc/pkg/geodesy"
	"github.com/walker79/offline-atc/pkg/logger"
)

const (
	pushbackSpeedKts = 3
	// Field elevation lookups only make sense near an airport; beyond this
	// range AGL falls back to MSL.
	fieldElevationRangeNM = 50
)

// Flight is a simulated single-aircraft flight following the flight plan from
// origin to destination. Advance moves the model forward in time; the profile
// (hold, roll, climb, cruise, descend, land, taxi) is selected by the ATC
// phase the controller currently has the flight in.
type Flight struct {
	plan   *flightplan.FlightPlan
	cfg    config.SimulationConfig
	logger *logger.Logger

	originLat  float64
	originLon  float64
	originElev float64
	destLat    float64
	destLon    float64
	destElev   float64

	mutex         sync.RWMutex
	lat           float64
	lon           float64
	altMSL        float64
	groundspeed   float64
	heading       float64
	verticalSpeed float64
	onGround      bool
}

// NewFlight creates a flight parked at the origin airport
func NewFlight(plan *flightplan.FlightPlan, db *airports.DB, cfg config.SimulationConfig, log *logger.Logger) *Flight {
	origin := db.GetOrZero(plan.Origin)
	dest := db.GetOrZero(plan.Destination)

	f := &Flight{
		plan:       plan,
		cfg:        cfg,
		logger:     log.Named("simulation"),
		originLat:  origin.Latitude,
		originLon:  origin.Longitude,
		originElev: origin.ElevationFt,
		destLat:    dest.Latitude,
		destLon:    dest.Longitude,
		destElev:   dest.ElevationFt,
		lat:        origin.Latitude,
		lon:        origin.Longitude,
		altMSL:     origin.ElevationFt,
		onGround:   true,
	}
	f.heading = geodesy.InitialBearing(f.lat, f.lon, f.destLat, f.destLon)
	return f
}

// Plan returns the flight plan this flight follows
func (f *Flight) Plan() *flightplan.FlightPlan {
	return f.plan
}

// Advance moves the flight forward by dt using the profile for the given
// phase. It is safe to call concurrently with State.
func (f *Flight) Advance(dt time.Duration, phase atc.Phase) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	seconds := dt.Seconds()
	if seconds <= 0 {
		return
	}

	switch phase {
	case atc.PhaseColdAndDark, atc.PhaseClearanceDelivery:
		f.groundspeed = 0
		f.verticalSpeed = 0

	case atc.PhasePushbackApproved:
		f.groundspeed = stepToward(f.groundspeed, pushbackSpeedKts, f.cfg.LandingDecelKts, seconds)
		f.verticalSpeed = 0

	case atc.PhaseTaxiOut:
		f.groundspeed = stepToward(f.groundspeed, f.cfg.TaxiSpeedKts, f.cfg.TakeoffAccelKts, seconds)
		f.moveLocked(seconds)

	case atc.PhaseLineUp:
		f.groundspeed = stepToward(f.groundspeed, 0, f.cfg.LandingDecelKts, seconds)
		f.moveLocked(seconds)

	case atc.PhaseTakeoffClearance:
		f.groundspeed = stepToward(f.groundspeed, f.cfg.CruiseSpeedKts, f.cfg.TakeoffAccelKts, seconds)
		if f.onGround && f.groundspeed >= f.cfg.RotateSpeedKts {
			f.onGround = false
			f.logger.Info("Airborne",
				logger.Float64("groundspeed_kts", f.groundspeed),
				logger.String("runway", f.plan.DepartureRunway))
		}
		if !f.onGround {
			f.climbLocked(seconds, float64(f.plan.CruiseAltitude))
		}
		f.moveLocked(seconds)

	case atc.PhaseDeparture, atc.PhaseClimb:
		f.groundspeed = stepToward(f.groundspeed, f.cfg.CruiseSpeedKts, f.cfg.TakeoffAccelKts, seconds)
		f.climbLocked(seconds, float64(f.plan.CruiseAltitude))
		f.steerLocked()
		f.moveLocked(seconds)

	case atc.PhaseCruise:
		f.groundspeed = stepToward(f.groundspeed, f.cfg.CruiseSpeedKts, f.cfg.TakeoffAccelKts, seconds)
		f.climbLocked(seconds, float64(f.plan.CruiseAltitude))
		f.steerLocked()
		f.moveLocked(seconds)

	case atc.PhaseTopOfDescent, atc.PhaseDescent, atc.PhaseApproach:
		if f.altMSL < 10000 {
			f.groundspeed = stepToward(f.groundspeed, f.cfg.ApproachSpeedKts, f.cfg.LandingDecelKts, seconds)
		}
		f.descendLocked(seconds, f.destElev)
		f.steerLocked()
		f.moveLocked(seconds)

	case atc.PhaseFinalApproach, atc.PhaseLandingClearance:
		f.groundspeed = stepToward(f.groundspeed, f.cfg.ApproachSpeedKts, f.cfg.LandingDecelKts, seconds)
		f.descendLocked(seconds, f.destElev)
		f.steerLocked()
		if !f.onGround && f.altMSL <= f.destElev {
			f.altMSL = f.destElev
			f.onGround = true
			f.verticalSpeed = 0
			f.logger.Info("Touchdown",
				logger.Float64("groundspeed_kts", f.groundspeed),
				logger.String("runway", f.plan.ArrivalRunway))
		}
		if f.onGround {
			f.groundspeed = stepToward(f.groundspeed, f.cfg.TaxiSpeedKts, f.cfg.LandingDecelKts, seconds)
		}
		f.moveLocked(seconds)

	case atc.PhaseLanded, atc.PhaseTaxiIn:
		f.groundspeed = stepToward(f.groundspeed, f.cfg.TaxiSpeedKts, f.cfg.LandingDecelKts, seconds)
		f.verticalSpeed = 0
		f.moveLocked(seconds)

	case atc.PhaseParking, atc.PhaseComplete:
		f.groundspeed = stepToward(f.groundspeed, 0, f.cfg.LandingDecelKts, seconds)
		f.verticalSpeed = 0
	}
}

// State implements telemetry.Provider
func (f *Flight) State() telemetry.State {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	now := time.Now().UTC()
	variation := physics.CalculateMagneticVariation(f.lat, f.lon, f.altMSL, now)

	return telemetry.State{
		Timestamp:     now,
		Latitude:      f.lat,
		Longitude:     f.lon,
		AltitudeMSL:   f.altMSL,
		AltitudeAGL:   f.aglLocked(),
		Groundspeed:   f.groundspeed,
		Heading:       f.heading,
		MagHeading:    physics.NormalizeHeading(f.heading - variation),
		VerticalSpeed: f.verticalSpeed,
		OnGround:      f.onGround,
	}
}

// steerLocked points the flight along the great circle to the destination
func (f *Flight) steerLocked() {
	if geodesy.DistanceNM(f.lat, f.lon, f.destLat, f.destLon) < 0.1 {
		return
	}
	f.heading = geodesy.InitialBearing(f.lat, f.lon, f.destLat, f.destLon)
}

// moveLocked dead-reckons the position along the current heading.
// 1 degree latitude is about 60 nautical miles; longitude shrinks with
// cos(lat).
func (f *Flight) moveLocked(seconds float64) {
	distanceNM := f.groundspeed * seconds / 3600
	if distanceNM <= 0 {
		return
	}
	v := physics.HeadingToVector(f.heading, distanceNM)
	f.lat += v.Y / 60
	f.lon += v.X / (60 * math.Cos(f.lat*math.Pi/180))
}

func (f *Flight) climbLocked(seconds, targetMSL float64) {
	if f.altMSL >= targetMSL {
		f.altMSL = targetMSL
		f.verticalSpeed = 0
		return
	}
	f.verticalSpeed = f.cfg.ClimbRateFPM
	f.altMSL += f.verticalSpeed * seconds / 60
	if f.altMSL >= targetMSL {
		f.altMSL = targetMSL
		f.verticalSpeed = 0
	}
}

func (f *Flight) descendLocked(seconds, floorMSL float64) {
	if f.onGround || f.altMSL <= floorMSL {
		f.verticalSpeed = 0
		return
	}
	f.verticalSpeed = -f.cfg.DescentRateFPM
	f.altMSL += f.verticalSpeed * seconds / 60
	if f.altMSL < floorMSL {
		f.altMSL = floorMSL
		f.verticalSpeed = 0
	}
}

// aglLocked returns height above the nearest field when one is in range
func (f *Flight) aglLocked() float64 {
	distOrigin := geodesy.DistanceNM(f.lat, f.lon, f.originLat, f.originLon)
	distDest := geodesy.DistanceNM(f.lat, f.lon, f.destLat, f.destLon)

	switch {
	case distOrigin <= fieldElevationRangeNM && distOrigin <= distDest:
		return f.altMSL - f.originElev
	case distDest <= fieldElevationRangeNM:
		return f.altMSL - f.destElev
	default:
		return f.altMSL
	}
}

// stepToward moves current toward target at rate units per second
func stepToward(current, target, rate, seconds float64) float64 {
	if rate <= 0 {
		return target
	}
	step := rate * seconds
	diff := target - current
	if math.Abs(diff) <= step {
		return target
	}
	if diff > 0 {
		return current + step
	}
	return current - step
}

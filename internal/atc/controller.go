package atc

import (
	"math/rand"
	"time"

	"github.com/walker79/offline-atc/internal/airports"
	"github.com/walker79/offline-atc/internal/config"
	"github.com/walker79/offline-atc/internal/flightplan"
	"github.com/walker79/offline-atc/internal/telemetry"
	"github.com/walker79/offline-atc/pkg/logger"
)

// Transmission is one emitted ATC message. Delay is a pacing hint telling
// the announcer not to render the message before that much time has passed
// since the previous one; the core itself never sleeps.
type Transmission struct {
	Message   string        `json:"message"`
	Position  Position      `json:"position"`
	Phase     Phase         `json:"phase"`
	Frequency string        `json:"frequency"`
	Delay     time.Duration `json:"delay"`
}

// Announcer receives transmissions in emission order, synchronously during
// Update and command calls
type Announcer interface {
	Announce(tx Transmission)
}

// CommandOutcome reports what a manual command call did. Rejection and
// already-in-phase are both no-ops but are distinguishable on purpose.
type CommandOutcome string

const (
	OutcomeExecuted           CommandOutcome = "executed"
	OutcomeRejectedWrongPhase CommandOutcome = "rejected_wrong_phase"
	OutcomeAlreadyInPhase     CommandOutcome = "already_in_phase"
	OutcomeUnknownCommand     CommandOutcome = "unknown_command"
)

// WindFunc returns the current wind phrase for takeoff and landing
// clearances ("wind 240 at 8"). A nil WindFunc means calm wind.
type WindFunc func() string

// ControllerInfo describes the active controller for display
type ControllerInfo struct {
	Sector      string `json:"sector"`
	Frequency   string `json:"frequency"`
	Personality string `json:"personality"`
}

// Controller is the session core: it owns the flight phase, the per-phase
// idempotency flags, the sector registry and the airspace monitor. It is
// single-threaded; the caller drives it with Update once per telemetry
// sample and commands in between, never concurrently.
type Controller struct {
	flightPlan    *flightplan.FlightPlan
	registry      *Registry
	airspace      *AirspaceMonitor
	personalities map[Position]Personality
	announcer     Announcer
	wind          WindFunc
	rng           *rand.Rand
	logger        *logger.Logger
	cfg           config.PhasesConfig

	phase              Phase
	currentPersonality Personality

	// Idempotency flags, reset when their owning phase is (re)entered
	phaseAnnounced  bool
	cruiseCheckDone bool
	todAnnounced    bool
	descentStep     int

	destLat float64
	destLon float64

	rules map[Phase][]autoRule
}

// autoRule is one automatic transition: evaluated against the current phase
// each update. Evaluation stops after the first firing rule unless that rule
// sets next, which lets independent rules of the same phase fire in one
// update.
type autoRule struct {
	guard func(tick) bool
	fire  func(tick)
	next  bool
}

// tick bundles the per-update inputs every rule sees
type tick struct {
	state      *telemetry.State
	distToDest float64
}

// NewController builds a session controller seeded by the flight plan. The
// first sector in registry order (departure clearance) starts active.
func NewController(
	fp *flightplan.FlightPlan,
	db *airports.DB,
	freqCfg config.FrequenciesConfig,
	phaseCfg config.PhasesConfig,
	announcer Announcer,
	wind WindFunc,
	rng *rand.Rand,
	log *logger.Logger,
) *Controller {
	personalities := DefaultPersonalities()
	registry := NewRegistry(fp, db, freqCfg, personalities, rng)

	dest := db.GetOrZero(fp.Destination)

	c := &Controller{
		flightPlan:    fp,
		registry:      registry,
		airspace:      NewAirspaceMonitor(db),
		personalities: personalities,
		announcer:     announcer,
		wind:          wind,
		rng:           rng,
		logger:        log.Named("atc"),
		cfg:           phaseCfg,
		phase:         PhaseColdAndDark,
		destLat:       dest.Latitude,
		destLon:       dest.Longitude,
	}

	if sectors := registry.Sectors(); len(sectors) > 0 {
		registry.SetActiveFrequency(sectors[0].Frequency)
		c.currentPersonality = sectors[0].Personality
	} else {
		c.currentPersonality = personalities[PositionClearance]
	}

	c.rules = c.buildRules()
	return c
}

// buildRules declares the automatic transition table: per phase, guarded
// actions evaluated in order on each update
func (c *Controller) buildRules() map[Phase][]autoRule {
	return map[Phase][]autoRule{
		PhaseTakeoffClearance: {{
			guard: func(t tick) bool {
				return t.state.AltitudeAGL > c.cfg.TakeoffAltitudeAGLFt && !c.phaseAnnounced
			},
			fire: func(t tick) {
				msg, pos := ContactDeparture(c.flightPlan.Callsign, c.registry.Frequency(PositionDeparture))
				c.emit(msg, pos, 0, true)
				c.setPhase(PhaseDeparture)
			},
		}},
		PhaseDeparture: {{
			guard: func(t tick) bool {
				return t.state.AltitudeAGL > c.cfg.InitialClimbAGLFt && !c.phaseAnnounced
			},
			fire: func(t tick) {
				msg, pos := ClimbClearance(c.flightPlan.Callsign, c.cruiseFL())
				c.emit(msg, pos, 0, true)
				c.setPhase(PhaseClimb)
			},
		}},
		PhaseClimb: {{
			guard: func(t tick) bool {
				return t.state.AltitudeMSL > float64(c.flightPlan.CruiseAltitude)-1000
			},
			fire: func(t tick) {
				c.setPhase(PhaseCruise)
			},
		}},
		PhaseCruise: {
			{
				guard: func(t tick) bool { return !c.cruiseCheckDone },
				fire: func(t tick) {
					msg, pos := CruiseCheck(c.flightPlan.Callsign, c.cruiseFL())
					c.emit(msg, pos, c.delay(c.cfg.CruiseCheckDelaySecs), true)
					c.cruiseCheckDone = true
				},
				next: true,
			},
			{
				guard: func(t tick) bool {
					return t.distToDest <= c.flightPlan.TODDistanceNM() && !c.todAnnounced
				},
				fire: func(t tick) {
					msg, pos := TopOfDescent(c.flightPlan.Callsign, int(t.distToDest))
					c.emit(msg, pos, 0, true)
					c.todAnnounced = true
					c.setPhase(PhaseTopOfDescent)
				},
			},
		},
		PhaseDescent: {
			{
				guard: func(t tick) bool { return c.descentStep == 1 && t.state.AltitudeMSL < 29000 },
				fire: func(t tick) {
					msg, pos := DescentClearance(c.flightPlan.Callsign, 18000)
					c.emit(msg, pos, 0, true)
					c.descentStep = 2
				},
			},
			{
				guard: func(t tick) bool { return c.descentStep == 2 && t.state.AltitudeMSL < 19000 },
				fire: func(t tick) {
					msg, pos := ExpectSTAR(c.flightPlan.Callsign, c.flightPlan.STAR, c.flightPlan.ArrivalRunway)
					c.emit(msg, pos, 0, true)
					c.descentStep = 3
				},
			},
			{
				guard: func(t tick) bool {
					return c.descentStep == 3 && t.state.AltitudeMSL < c.cfg.ApproachAltitudeFt
				},
				fire: func(t tick) {
					msg, pos := ApproachClearance(c.flightPlan.Callsign, c.flightPlan.ArrivalRunway)
					c.emit(msg, pos, 0, true)
					c.setPhase(PhaseApproach)
				},
			},
		},
		PhaseApproach: {{
			guard: func(t tick) bool {
				return t.state.AltitudeMSL < c.cfg.FinalApproachAltitudeFt && !c.phaseAnnounced
			},
			fire: func(t tick) {
				msg, pos := ContactTower(c.flightPlan.Callsign, c.registry.ArrivalFrequency(PositionTower))
				c.emit(msg, pos, 0, true)
				c.setPhase(PhaseFinalApproach)
			},
		}},
		PhaseLandingClearance: {{
			guard: func(t tick) bool {
				return t.state.OnGround && t.state.Groundspeed < c.cfg.LandingMaxSpeedKts
			},
			fire: func(t tick) {
				msg, pos := ExitRunway(c.flightPlan.Callsign)
				c.emit(msg, pos, 0, true)
				c.setPhase(PhaseLanded)
			},
		}},
		PhaseParking: {{
			guard: func(t tick) bool {
				return t.state.OnGround && t.state.Groundspeed < 1 && !c.phaseAnnounced
			},
			fire: func(t tick) {
				msg, pos := ParkingComplete(c.flightPlan.Callsign)
				c.emit(msg, pos, 0, true)
				c.phaseAnnounced = true
			},
		}},
	}
}

// Update feeds one telemetry sample through the session: airspace
// reclassification, sector handoff detection, then the current phase's
// automatic transitions, in that order.
func (c *Controller) Update(state *telemetry.State) {
	t := tick{
		state:      state,
		distToDest: state.DistanceTo(c.destLat, c.destLon),
	}

	c.checkAirspace(state)
	c.checkHandoff(state)

	for _, rule := range c.rules[c.phase] {
		if !rule.guard(t) {
			continue
		}
		rule.fire(t)
		if !rule.next {
			break
		}
	}
}

func (c *Controller) checkAirspace(state *telemetry.State) {
	class, changed := c.airspace.Check(state)
	if !changed {
		return
	}
	c.logger.Debug("Airspace transition", logger.String("class", class.String()))
	if msg := EntryMessage(class, c.flightPlan.Callsign); msg != "" {
		// Advisory wording is fixed; no personality pass
		c.emit(msg, PositionCenter, 0, false)
	}
}

func (c *Controller) checkHandoff(state *telemetry.State) {
	next := c.registry.CheckHandoff(state)
	if next == nil {
		return
	}

	current := c.registry.ActiveSector()
	msg, pos := FrequencyHandoff(c.flightPlan.Callsign, next.Name, next.Frequency, current.Position)
	c.emit(msg, pos, 0, true)

	c.registry.SetActiveFrequency(next.Frequency)
	c.currentPersonality = next.Personality
	c.logger.Info("Sector handoff",
		logger.String("from", current.Name),
		logger.String("to", next.Name),
		logger.String("frequency", next.Frequency))

	checkInDelay := c.delay(c.cfg.HandoffSwitchDelaySecs + c.cfg.CheckInDelaySecs)
	msg, pos = CheckIn(c.flightPlan.Callsign, c.cruiseFL(), next.Position)
	c.emit(msg, pos, checkInDelay, true)
}

// RequestClearance handles the pilot's IFR clearance request
func (c *Controller) RequestClearance() CommandOutcome {
	return c.command([]Phase{PhaseColdAndDark}, PhaseClearanceDelivery, func() {
		msg, pos := ClearanceDelivery(c.flightPlan, c.registry.Frequency(PositionDeparture))
		c.emitWith(msg, pos, 0, c.personalities[PositionClearance])
		c.setPhase(PhaseClearanceDelivery)
	})
}

// RequestPushback handles the pushback request
func (c *Controller) RequestPushback() CommandOutcome {
	return c.command([]Phase{PhaseClearanceDelivery, PhaseColdAndDark}, PhasePushbackApproved, func() {
		msg, pos := PushbackClearance(c.flightPlan.Callsign)
		c.emitWith(msg, pos, 0, c.personalities[PositionGround])
		c.setPhase(PhasePushbackApproved)
	})
}

// RequestTaxi handles the taxi request
func (c *Controller) RequestTaxi() CommandOutcome {
	return c.command([]Phase{PhasePushbackApproved, PhaseClearanceDelivery}, PhaseTaxiOut, func() {
		msg, pos := TaxiOut(c.flightPlan.Callsign, c.flightPlan.DepartureRunway)
		c.emitWith(msg, pos, 0, c.personalities[PositionGround])
		c.setPhase(PhaseTaxiOut)
	})
}

// RequestTakeoff handles the takeoff request: line-up first, then takeoff
// clearance after a pacing delay
func (c *Controller) RequestTakeoff() CommandOutcome {
	return c.command([]Phase{PhaseTaxiOut, PhaseLineUp}, PhaseTakeoffClearance, func() {
		tower := c.personalities[PositionTower]
		msg, pos := LineupClearance(c.flightPlan.Callsign, c.flightPlan.DepartureRunway)
		c.emitWith(msg, pos, 0, tower)

		msg, pos = TakeoffClearance(c.flightPlan.Callsign, c.flightPlan.DepartureRunway, c.windPhrase())
		c.emitWith(msg, pos, c.delay(c.cfg.LineupToTakeoffDelaySecs), tower)
		c.setPhase(PhaseTakeoffClearance)
	})
}

// RequestClimb handles the climb clearance request
func (c *Controller) RequestClimb() CommandOutcome {
	return c.command([]Phase{PhaseDeparture, PhaseClimb}, PhaseClimb, func() {
		msg, pos := ClimbClearance(c.flightPlan.Callsign, c.cruiseFL())
		c.emitWith(msg, pos, 0, c.personalities[PositionDeparture])
		c.setPhase(PhaseClimb)
	})
}

// RequestCruiseAltitude handles an enroute request for a higher cruise
// level. It re-clears two thousand feet above the filed cruise and does not
// change phase.
func (c *Controller) RequestCruiseAltitude() CommandOutcome {
	return c.command([]Phase{PhaseCruise}, PhaseCruise, func() {
		newAlt := c.flightPlan.CruiseAltitude + 2000
		msg, pos := ClimbClearance(c.flightPlan.Callsign, flightLevelDigits(newAlt))
		c.emitWith(msg, pos, 0, c.personalities[PositionCenter])
	})
}

// RequestDescent handles the descent request, starting the stepped descent
// ladder
func (c *Controller) RequestDescent() CommandOutcome {
	return c.command([]Phase{PhaseCruise, PhaseTopOfDescent}, PhaseDescent, func() {
		msg, pos := DescentClearance(c.flightPlan.Callsign, 28000)
		c.emitWith(msg, pos, 0, c.personalities[PositionCenter])
		c.setPhase(PhaseDescent)
		c.descentStep = 1
	})
}

// RequestLanding handles the landing clearance request
func (c *Controller) RequestLanding() CommandOutcome {
	return c.command([]Phase{PhaseApproach, PhaseFinalApproach}, PhaseLandingClearance, func() {
		msg, pos := LandingClearance(c.flightPlan.Callsign, c.flightPlan.ArrivalRunway, c.windPhrase())
		c.emitWith(msg, pos, 0, c.personalities[PositionTower])
		c.setPhase(PhaseLandingClearance)
	})
}

// RequestTaxiToGate handles the inbound taxi request
func (c *Controller) RequestTaxiToGate() CommandOutcome {
	return c.command([]Phase{PhaseLanded, PhaseTaxiIn}, PhaseParking, func() {
		msg, pos := TaxiToGate(c.flightPlan.Callsign)
		c.emitWith(msg, pos, 0, c.personalities[PositionGround])
		c.setPhase(PhaseParking)
	})
}

// forceable maps command names accepted by Force to their handlers
func (c *Controller) forceable() map[string]func() CommandOutcome {
	return map[string]func() CommandOutcome{
		"clearance":    c.RequestClearance,
		"pushback":     c.RequestPushback,
		"taxi":         c.RequestTaxi,
		"takeoff":      c.RequestTakeoff,
		"climb":        c.RequestClimb,
		"descent":      c.RequestDescent,
		"landing":      c.RequestLanding,
		"taxi_to_gate": c.RequestTaxiToGate,
	}
}

// Force re-issues the manual command for a named phase. The command's own
// phase precondition still applies.
func (c *Controller) Force(name string) CommandOutcome {
	handler, ok := c.forceable()[name]
	if !ok {
		return OutcomeUnknownCommand
	}
	return handler()
}

// Phase returns the current flight phase
func (c *Controller) Phase() Phase {
	return c.phase
}

// Airspace returns the last recorded airspace classification
func (c *Controller) Airspace() AirspaceClass {
	return c.airspace.Current()
}

// Registry exposes the sector registry for read-only use by the API layer
func (c *Controller) Registry() *Registry {
	return c.registry
}

// ActiveControllerInfo describes the active sector for display
func (c *Controller) ActiveControllerInfo() ControllerInfo {
	sector := c.registry.ActiveSector()
	if sector == nil {
		return ControllerInfo{Sector: "---", Frequency: "---", Personality: "---"}
	}
	return ControllerInfo{
		Sector:      sector.Name,
		Frequency:   sector.Frequency,
		Personality: sector.Personality.Describe(),
	}
}

// command runs fire when the current phase is in the allowed set. Otherwise
// it reports whether the no-op was a wrong-phase rejection or the session
// already being in the target phase.
func (c *Controller) command(allowed []Phase, target Phase, fire func()) CommandOutcome {
	for _, p := range allowed {
		if c.phase == p {
			fire()
			return OutcomeExecuted
		}
	}
	if c.phase == target {
		return OutcomeAlreadyInPhase
	}
	c.logger.Debug("Command rejected",
		logger.String("phase", c.phase.String()),
		logger.String("target", target.String()))
	return OutcomeRejectedWrongPhase
}

// setPhase advances the phase and resets the idempotency flags the new
// phase owns
func (c *Controller) setPhase(next Phase) {
	if next == c.phase {
		c.phaseAnnounced = false
		return
	}
	c.logger.Info("Phase transition",
		logger.String("from", c.phase.String()),
		logger.String("to", next.String()))
	c.phase = next
	c.phaseAnnounced = false
	switch next {
	case PhaseCruise:
		c.cruiseCheckDone = false
		c.todAnnounced = false
	case PhaseDescent:
		c.descentStep = 0
	}
}

// emit sends a transmission through the active-sector personality
func (c *Controller) emit(message string, pos Position, delay time.Duration, modulate bool) {
	if modulate {
		c.emitWith(message, pos, delay, c.currentPersonality)
		return
	}
	c.announce(message, pos, delay)
}

// emitWith sends a transmission through a specific personality
func (c *Controller) emitWith(message string, pos Position, delay time.Duration, p Personality) {
	c.announce(p.Modify(message, "", c.rng), pos, delay)
}

func (c *Controller) announce(message string, pos Position, delay time.Duration) {
	c.announcer.Announce(Transmission{
		Message:   message,
		Position:  pos,
		Phase:     c.phase,
		Frequency: c.registry.ActiveFrequency(),
		Delay:     delay,
	})
}

func (c *Controller) windPhrase() string {
	if c.wind == nil {
		return WindCalm
	}
	return c.wind()
}

func (c *Controller) cruiseFL() string {
	return flightLevelDigits(c.flightPlan.CruiseAltitude)
}

func (c *Controller) delay(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

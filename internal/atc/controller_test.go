package atc

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/walker79/offline-atc/internal/airports"
	"github.com/walker79/offline-atc/internal/config"
	"github.com/walker79/offline-atc/internal/flightplan"
	"github.com/walker79/offline-atc/internal/telemetry"
	"github.com/walker79/offline-atc/pkg/logger"
)

// recordingAnnouncer captures transmissions for assertions
type recordingAnnouncer struct {
	transmissions []Transmission
}

func (r *recordingAnnouncer) Announce(tx Transmission) {
	r.transmissions = append(r.transmissions, tx)
}

func (r *recordingAnnouncer) last() Transmission {
	return r.transmissions[len(r.transmissions)-1]
}

func (r *recordingAnnouncer) reset() {
	r.transmissions = nil
}

func testController(t *testing.T) (*Controller, *recordingAnnouncer, *flightplan.FlightPlan) {
	t.Helper()
	cfg := &config.Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	rng := rand.New(rand.NewSource(7))
	fp := flightplan.Demo(rng)
	rec := &recordingAnnouncer{}
	c := NewController(fp, airports.Builtin(), cfg.Frequencies, cfg.Phases, rec, nil, rng, log)
	return c, rec, fp
}

// stateAt builds a sample at the given offset from Heathrow
func stateAt(lat, lon, msl, agl, gs float64, onGround bool) *telemetry.State {
	return &telemetry.State{
		Latitude:    lat,
		Longitude:   lon,
		AltitudeMSL: msl,
		AltitudeAGL: agl,
		Groundspeed: gs,
		OnGround:    onGround,
	}
}

func TestCommandInWrongPhaseIsSilentNoOp(t *testing.T) {
	c, rec, _ := testController(t)

	if got := c.RequestTakeoff(); got != OutcomeRejectedWrongPhase {
		t.Errorf("RequestTakeoff in Cold & Dark = %v, want %v", got, OutcomeRejectedWrongPhase)
	}
	if c.Phase() != PhaseColdAndDark {
		t.Errorf("phase changed to %v on rejected command", c.Phase())
	}
	if len(rec.transmissions) != 0 {
		t.Errorf("rejected command emitted %d transmissions", len(rec.transmissions))
	}
}

func TestAlreadyInPhaseIsDistinguishable(t *testing.T) {
	c, _, _ := testController(t)

	if got := c.RequestClearance(); got != OutcomeExecuted {
		t.Fatalf("first clearance request = %v", got)
	}
	if got := c.RequestPushback(); got != OutcomeExecuted {
		t.Fatalf("pushback request = %v", got)
	}
	if got := c.RequestPushback(); got != OutcomeAlreadyInPhase {
		t.Errorf("repeated pushback request = %v, want %v", got, OutcomeAlreadyInPhase)
	}
}

func TestGroundSequence(t *testing.T) {
	c, rec, fp := testController(t)

	if got := c.RequestClearance(); got != OutcomeExecuted {
		t.Fatalf("clearance = %v", got)
	}
	if c.Phase() != PhaseClearanceDelivery {
		t.Fatalf("phase = %v after clearance", c.Phase())
	}
	clearanceMsg := rec.last().Message
	if !strings.Contains(clearanceMsg, "cleared to "+fp.Destination) {
		t.Errorf("clearance message missing destination: %q", clearanceMsg)
	}
	if !strings.Contains(clearanceMsg, "squawk") {
		t.Errorf("clearance message missing squawk: %q", clearanceMsg)
	}
	if rec.last().Position != PositionClearance {
		t.Errorf("clearance issued by %v", rec.last().Position)
	}

	c.RequestPushback()
	// Ground is strict and terse: the courtesy clause is stripped
	if got := rec.last().Message; strings.Contains(got, "advise ready to taxi") {
		t.Errorf("ground personality kept courtesy clause: %q", got)
	}

	c.RequestTaxi()
	if c.Phase() != PhaseTaxiOut {
		t.Fatalf("phase = %v after taxi", c.Phase())
	}

	rec.reset()
	if got := c.RequestTakeoff(); got != OutcomeExecuted {
		t.Fatalf("takeoff = %v", got)
	}
	if len(rec.transmissions) != 2 {
		t.Fatalf("takeoff emitted %d transmissions, want line-up then takeoff", len(rec.transmissions))
	}
	if !strings.Contains(rec.transmissions[0].Message, "line up and wait") {
		t.Errorf("first transmission %q is not the line-up", rec.transmissions[0].Message)
	}
	if !strings.Contains(rec.transmissions[1].Message, "cleared for takeoff") {
		t.Errorf("second transmission %q is not the takeoff clearance", rec.transmissions[1].Message)
	}
	if rec.transmissions[1].Delay <= 0 {
		t.Error("takeoff clearance carries no pacing delay after line-up")
	}
	if c.Phase() != PhaseTakeoffClearance {
		t.Errorf("phase = %v after takeoff", c.Phase())
	}
}

func TestAutoAdvanceThroughClimb(t *testing.T) {
	c, rec, _ := testController(t)
	c.RequestClearance()
	c.RequestTaxi()
	c.RequestTakeoff()
	rec.reset()

	// Airborne above the takeoff threshold
	c.Update(stateAt(51.47, -0.45, 300, 200, 160, false))
	if c.Phase() != PhaseDeparture {
		t.Fatalf("phase = %v after rotation, want Departure", c.Phase())
	}
	found := false
	for _, tx := range rec.transmissions {
		if strings.Contains(tx.Message, "contact departure") {
			found = true
		}
	}
	if !found {
		t.Error("no contact-departure transmission after rotation")
	}

	// Through initial climb
	c.Update(stateAt(51.5, -0.3, 2200, 2100, 250, false))
	if c.Phase() != PhaseClimb {
		t.Fatalf("phase = %v, want Climb", c.Phase())
	}

	// Level-off detection within 1000 ft of cruise
	c.Update(stateAt(51.6, 0.5, 36500, 36400, 450, false))
	if c.Phase() != PhaseCruise {
		t.Fatalf("phase = %v, want Cruise", c.Phase())
	}
}

func TestCruiseCheckFiresOnce(t *testing.T) {
	c, rec, _ := testController(t)
	c.RequestClearance()
	c.RequestTaxi()
	c.RequestTakeoff()
	c.Update(stateAt(51.47, -0.45, 300, 200, 160, false))
	c.Update(stateAt(51.5, -0.3, 2200, 2100, 250, false))
	c.Update(stateAt(51.6, 0.5, 36500, 36400, 450, false))
	rec.reset()

	// First cruise update: level check on center, far from destination
	c.Update(stateAt(51.6, 0.6, 37000, 36900, 450, false))
	check := 0
	for _, tx := range rec.transmissions {
		if strings.Contains(tx.Message, "maintaining flight level") {
			check++
		}
	}
	if check != 1 {
		t.Fatalf("cruise check fired %d times on first cruise update", check)
	}

	rec.reset()
	c.Update(stateAt(51.6, 0.7, 37000, 36900, 450, false))
	for _, tx := range rec.transmissions {
		if strings.Contains(tx.Message, "maintaining flight level") {
			t.Errorf("cruise check repeated: %q", tx.Message)
		}
	}
}

func TestTopOfDescentAdvisory(t *testing.T) {
	c, rec, fp := testController(t)
	c.RequestClearance()
	c.RequestTaxi()
	c.RequestTakeoff()
	c.Update(stateAt(51.47, -0.45, 300, 200, 160, false))
	c.Update(stateAt(51.5, -0.3, 2200, 2100, 250, false))
	c.Update(stateAt(51.6, 0.5, 36500, 36400, 450, false))
	rec.reset()

	// Inside the TOD distance of Frankfurt (112 nm for FL370)
	if fp.TODDistanceNM() < 100 {
		t.Fatalf("unexpected demo TOD distance %v", fp.TODDistanceNM())
	}
	c.Update(stateAt(50.3, 7.3, 37000, 36900, 450, false))
	if c.Phase() != PhaseTopOfDescent {
		t.Fatalf("phase = %v, want Top of Descent", c.Phase())
	}
	found := false
	for _, tx := range rec.transmissions {
		if strings.Contains(tx.Message, "top of descent in") {
			found = true
		}
	}
	if !found {
		t.Error("no top-of-descent advisory emitted")
	}
}

func TestDescentLadderOneStepPerUpdate(t *testing.T) {
	c, rec, _ := testController(t)
	c.RequestClearance()
	c.RequestTaxi()
	c.RequestTakeoff()
	c.Update(stateAt(51.47, -0.45, 300, 200, 160, false))
	c.Update(stateAt(51.5, -0.3, 2200, 2100, 250, false))
	c.Update(stateAt(51.6, 0.5, 36500, 36400, 450, false))
	c.Update(stateAt(50.3, 7.3, 37000, 36900, 450, false))

	if got := c.RequestDescent(); got != OutcomeExecuted {
		t.Fatalf("descent request = %v", got)
	}
	if c.Phase() != PhaseDescent {
		t.Fatalf("phase = %v, want Descent", c.Phase())
	}

	heard := func(substr string) bool {
		for _, tx := range rec.transmissions {
			if strings.Contains(tx.Message, substr) {
				return true
			}
		}
		return false
	}

	// Even though the aircraft is already below every ladder threshold, only
	// one step fires per update.
	rec.reset()
	c.Update(stateAt(50.2, 7.6, 9000, 8600, 320, false))
	if !heard("descend and maintain 18000 feet") {
		t.Error("first ladder step not emitted")
	}
	if heard("expect TEKTU1A arrival") || heard("cleared ILS approach") {
		t.Error("later ladder steps fired in the same update")
	}
	if c.Phase() != PhaseDescent {
		t.Fatalf("phase advanced early to %v", c.Phase())
	}

	rec.reset()
	c.Update(stateAt(50.2, 7.7, 9000, 8600, 320, false))
	if !heard("expect TEKTU1A arrival") {
		t.Error("second ladder step not emitted")
	}

	rec.reset()
	c.Update(stateAt(50.1, 7.8, 9000, 8600, 300, false))
	if !heard("cleared ILS approach") {
		t.Error("third ladder step not emitted")
	}
	if c.Phase() != PhaseApproach {
		t.Fatalf("phase = %v after approach clearance, want Approach", c.Phase())
	}
}

func TestApproachToParking(t *testing.T) {
	c, rec, _ := testController(t)
	c.RequestClearance()
	c.RequestTaxi()
	c.RequestTakeoff()
	c.Update(stateAt(51.47, -0.45, 300, 200, 160, false))
	c.Update(stateAt(51.5, -0.3, 2200, 2100, 250, false))
	c.Update(stateAt(51.6, 0.5, 36500, 36400, 450, false))
	c.Update(stateAt(50.3, 7.3, 37000, 36900, 450, false))
	c.RequestDescent()
	c.Update(stateAt(50.2, 7.6, 9000, 8600, 320, false))
	c.Update(stateAt(50.2, 7.7, 9000, 8600, 320, false))
	c.Update(stateAt(50.1, 7.8, 9000, 8600, 300, false))

	// Below final approach altitude: switched to tower
	c.Update(stateAt(50.08, 8.3, 2500, 2100, 180, false))
	if c.Phase() != PhaseFinalApproach {
		t.Fatalf("phase = %v, want Final Approach", c.Phase())
	}

	if got := c.RequestLanding(); got != OutcomeExecuted {
		t.Fatalf("landing request = %v", got)
	}

	// Rollout below the landing speed threshold
	rec.reset()
	c.Update(stateAt(50.0379, 8.5622, 370, 0, 40, true))
	if c.Phase() != PhaseLanded {
		t.Fatalf("phase = %v, want Landed", c.Phase())
	}
	if !strings.Contains(rec.transmissions[len(rec.transmissions)-1].Message, "exit next taxiway") {
		t.Errorf("rollout transmission = %q", rec.last().Message)
	}

	if got := c.RequestTaxiToGate(); got != OutcomeExecuted {
		t.Fatalf("taxi to gate = %v", got)
	}
	if c.Phase() != PhaseParking {
		t.Fatalf("phase = %v, want Parking", c.Phase())
	}

	// Stationary at the gate: parking complete, exactly once
	rec.reset()
	c.Update(stateAt(50.0379, 8.5622, 370, 0, 0, true))
	done := 0
	for _, tx := range rec.transmissions {
		if strings.Contains(tx.Message, "parking complete") {
			done++
		}
	}
	if done != 1 {
		t.Fatalf("parking complete fired %d times", done)
	}
	c.Update(stateAt(50.0379, 8.5622, 370, 0, 0, true))
	for _, tx := range rec.transmissions[done:] {
		if strings.Contains(tx.Message, "parking complete") {
			t.Error("parking complete repeated")
		}
	}
	if c.Phase() != PhaseParking {
		t.Errorf("phase = %v, parking is expected to be a resting state", c.Phase())
	}
}

func TestForceRespectsPreconditions(t *testing.T) {
	c, _, _ := testController(t)

	if got := c.Force("landing"); got != OutcomeRejectedWrongPhase {
		t.Errorf("forced landing from Cold & Dark = %v", got)
	}
	if got := c.Force("clearance"); got != OutcomeExecuted {
		t.Errorf("forced clearance = %v", got)
	}
	if got := c.Force("no_such_command"); got != OutcomeUnknownCommand {
		t.Errorf("unknown force = %v", got)
	}
}

func TestAirspaceEntryAnnouncement(t *testing.T) {
	c, rec, _ := testController(t)

	// On the ground inside the Heathrow Class B
	c.Update(stateAt(51.47, -0.45, 80, 0, 0, true))
	foundB := false
	for _, tx := range rec.transmissions {
		if strings.Contains(tx.Message, "Class Bravo") {
			foundB = true
		}
	}
	if !foundB {
		t.Error("no Class Bravo entry announcement on ground at Heathrow")
	}
	if c.Airspace() != ClassB {
		t.Errorf("airspace = %v, want Class B", c.Airspace())
	}

	// Climb into Class A
	rec.reset()
	c.Update(stateAt(51.6, 0.5, 20000, 19900, 400, false))
	foundA := false
	for _, tx := range rec.transmissions {
		if strings.Contains(tx.Message, "Class Alpha") {
			foundA = true
		}
	}
	if !foundA {
		t.Error("no Class Alpha entry announcement above FL180")
	}

	// Staying in Class A must not re-announce
	rec.reset()
	c.Update(stateAt(51.7, 0.8, 25000, 24900, 420, false))
	for _, tx := range rec.transmissions {
		if strings.Contains(tx.Message, "Class Alpha") {
			t.Error("Class Alpha re-announced without a transition")
		}
	}
}

func TestHandoffSwitchesSectorAndChecksIn(t *testing.T) {
	c, rec, _ := testController(t)

	initial := c.Registry().ActiveSector()
	if initial == nil || initial.Position != PositionClearance {
		t.Fatalf("initial active sector = %+v, want departure clearance", initial)
	}

	// Climbing out at 1500 ft, 8 nm from Heathrow: outside the clearance
	// volume, inside the departure tower's
	rec.reset()
	c.Update(stateAt(51.60, -0.50, 1500, 1400, 220, false))

	active := c.Registry().ActiveSector()
	if active == nil || active == initial {
		t.Fatalf("no sector switch, active = %+v", active)
	}

	var handoff, checkin bool
	for _, tx := range rec.transmissions {
		if strings.Contains(tx.Message, "contact "+active.Name) {
			handoff = true
		}
		if strings.Contains(tx.Message, "radar contact") {
			checkin = true
			if tx.Delay <= 0 {
				t.Error("check-in carries no pacing delay")
			}
			if tx.Position != active.Position {
				t.Errorf("check-in issued by %v, want %v", tx.Position, active.Position)
			}
		}
	}
	if !handoff {
		t.Error("no handoff transmission")
	}
	if !checkin {
		t.Error("no check-in acknowledgment")
	}

	// Same position again: no re-fire onto the same sector
	rec.reset()
	c.Update(stateAt(51.60, -0.50, 1500, 1400, 220, false))
	for _, tx := range rec.transmissions {
		if strings.Contains(tx.Message, "Good day") {
			t.Errorf("handoff re-fired: %q", tx.Message)
		}
	}
}

package simulation

import (
	"math/rand"
	"testing"
	"time"

	"github.com/walker79/offline-atc/internal/airports"
	"github.com/walker79/offline-atc/internal/atc"
	"github.com/walker79/offline-atc/internal/config"
	"github.com/walker79/offline-atc/internal/flightplan"
	"github.com/walker79/offline-atc/pkg/logger"
)

func testFlight(t *testing.T) *Flight {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	cfg := &config.Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	plan := flightplan.Demo(rand.New(rand.NewSource(3)))
	return NewFlight(plan, airports.Builtin(), cfg.Simulation, log)
}

func advance(f *Flight, phase atc.Phase, steps int) {
	for i := 0; i < steps; i++ {
		f.Advance(2*time.Second, phase)
	}
}

func TestStartsParkedAtOrigin(t *testing.T) {
	f := testFlight(t)
	state := f.State()

	if !state.OnGround {
		t.Error("expected flight to start on the ground")
	}
	if state.Groundspeed != 0 {
		t.Errorf("groundspeed = %.1f, want 0", state.Groundspeed)
	}
	if state.AltitudeAGL != 0 {
		t.Errorf("AGL = %.1f, want 0 at the gate", state.AltitudeAGL)
	}
	if dist := state.DistanceTo(51.4700, -0.4543); dist > 0.1 {
		t.Errorf("started %.2f nm from EGLL", dist)
	}
}

func TestTakeoffRollLiftsOffAtRotateSpeed(t *testing.T) {
	f := testFlight(t)

	// Roll for 40s: at 5 kt/s that passes the 145 kt rotate speed.
	advance(f, atc.PhaseTakeoffClearance, 20)

	state := f.State()
	if state.OnGround {
		t.Fatalf("still on the ground at %.1f kts", state.Groundspeed)
	}
	if state.Groundspeed < f.cfg.RotateSpeedKts {
		t.Errorf("airborne below rotate speed: %.1f kts", state.Groundspeed)
	}
	if state.VerticalSpeed <= 0 {
		t.Errorf("vertical speed = %.0f, want positive after liftoff", state.VerticalSpeed)
	}
}

func TestClimbLevelsOffAtCruise(t *testing.T) {
	f := testFlight(t)
	advance(f, atc.PhaseTakeoffClearance, 20)

	// 2400 fpm from near sea level to 37000 ft needs a bit over 15 minutes.
	advance(f, atc.PhaseClimb, 500)

	state := f.State()
	if state.AltitudeMSL != 37000 {
		t.Errorf("altitude = %.0f, want 37000", state.AltitudeMSL)
	}
	if state.VerticalSpeed != 0 {
		t.Errorf("vertical speed = %.0f after level-off", state.VerticalSpeed)
	}

	// Cruise holds altitude
	advance(f, atc.PhaseCruise, 10)
	if got := f.State().AltitudeMSL; got != 37000 {
		t.Errorf("altitude drifted to %.0f in cruise", got)
	}
}

func TestDescentStopsAtFieldElevation(t *testing.T) {
	f := testFlight(t)
	advance(f, atc.PhaseTakeoffClearance, 20)
	advance(f, atc.PhaseClimb, 500)

	advance(f, atc.PhaseDescent, 400)
	state := f.State()
	if state.AltitudeMSL >= 37000 {
		t.Fatalf("no descent: %.0f", state.AltitudeMSL)
	}
	if state.Groundspeed > f.cfg.CruiseSpeedKts {
		t.Errorf("accelerated in descent: %.1f kts", state.Groundspeed)
	}

	// Ride final all the way down: touchdown at the destination elevation.
	advance(f, atc.PhaseFinalApproach, 2000)
	state = f.State()
	if !state.OnGround {
		t.Fatalf("never touched down, altitude %.0f", state.AltitudeMSL)
	}
	if state.AltitudeMSL != 364 {
		t.Errorf("touchdown altitude = %.0f, want EDDF elevation 364", state.AltitudeMSL)
	}
}

func TestHeadingTracksDestination(t *testing.T) {
	f := testFlight(t)
	advance(f, atc.PhaseTakeoffClearance, 20)
	advance(f, atc.PhaseClimb, 100)

	state := f.State()
	// EGLL to EDDF is roughly east-southeast
	if state.Heading < 80 || state.Heading > 130 {
		t.Errorf("heading = %.1f, want roughly east toward EDDF", state.Heading)
	}

	before := state.DistanceTo(50.0379, 8.5622)
	advance(f, atc.PhaseCruise, 30)
	later := f.State()
	after := later.DistanceTo(50.0379, 8.5622)
	if after >= before {
		t.Errorf("distance to destination grew: %.1f -> %.1f nm", before, after)
	}
}

func TestStepToward(t *testing.T) {
	tests := []struct {
		current, target, rate, seconds, want float64
	}{
		{0, 100, 5, 2, 10},
		{100, 0, 4, 2, 92},
		{99, 100, 5, 2, 100}, // clamps at target
		{100, 100, 5, 2, 100},
	}
	for _, tt := range tests {
		if got := stepToward(tt.current, tt.target, tt.rate, tt.seconds); got != tt.want {
			t.Errorf("stepToward(%v, %v, %v, %v) = %v, want %v",
				tt.current, tt.target, tt.rate, tt.seconds, got, tt.want)
		}
	}
}

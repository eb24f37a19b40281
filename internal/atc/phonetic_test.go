package atc

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/walker79/offline-atc/internal/flightplan"
)

func TestPhoneticize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"27R", "Two Seven Romeo"},
		{"4521", "Four Five Two One"},
		{"abc", "Alpha Bravo Charlie"},
		{"9", "Niner"},
		{"A B", "Alpha Bravo"},
		{"X-1", "X-ray - One"},
	}
	for _, tt := range tests {
		if got := Phoneticize(tt.in); got != tt.want {
			t.Errorf("Phoneticize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCallsign(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SPEEDBIRD123", "Speedbird One Two Three"},
		{"LUFTHANSA49A", "Lufthansa Four Niner Alpha"},
		{"N123AB", "November One Two Three Alpha Bravo"},
		{"DELTA7", "Delta Seven"},
	}
	for _, tt := range tests {
		if got := FormatCallsign(tt.in); got != tt.want {
			t.Errorf("FormatCallsign(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPhraseologyPositions(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	fp := flightplan.Demo(rng)

	if msg, pos := ClearanceDelivery(fp, "119.500"); pos != PositionClearance {
		t.Errorf("clearance delivery position = %v", pos)
	} else if !strings.Contains(msg, "flight level 370") {
		t.Errorf("clearance delivery = %q", msg)
	}

	if _, pos := TaxiOut("SPEEDBIRD123", "27R"); pos != PositionGround {
		t.Errorf("taxi out position = %v", pos)
	}
	if _, pos := TakeoffClearance("SPEEDBIRD123", "27R", WindCalm); pos != PositionTower {
		t.Errorf("takeoff position = %v", pos)
	}
	if _, pos := ApproachClearance("SPEEDBIRD123", "25C"); pos != PositionApproach {
		t.Errorf("approach position = %v", pos)
	}

	// The handoff issues from whatever position the aircraft is actually on
	if msg, pos := FrequencyHandoff("SPEEDBIRD123", "EDDF Approach", "120.300", PositionCenter); pos != PositionCenter {
		t.Errorf("handoff position = %v", pos)
	} else if !strings.Contains(msg, "contact EDDF Approach 120.300") {
		t.Errorf("handoff = %q", msg)
	}
	if _, pos := FrequencyHandoff("SPEEDBIRD123", "EDDF Tower", "118.200", PositionApproach); pos != PositionApproach {
		t.Errorf("handoff position not taken from caller: %v", pos)
	}
}

func TestFormatWind(t *testing.T) {
	if got := FormatWind(0, 0); got != WindCalm {
		t.Errorf("calm wind = %q", got)
	}
	if got := FormatWind(240, 8); got != "wind 240 at 8" {
		t.Errorf("wind = %q", got)
	}
	if got := FormatWind(80, 12); got != "wind 080 at 12" {
		t.Errorf("wind = %q", got)
	}
}

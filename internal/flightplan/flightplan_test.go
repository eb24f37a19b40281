package flightplan

import (
	"math"
	"math/rand"
	"testing"
)

func TestGenerateSquawk(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		code := GenerateSquawk(rng)
		if len(code) != 4 {
			t.Fatalf("squawk %q is not four digits", code)
		}
		for _, ch := range code {
			if ch < '0' || ch > '7' {
				t.Fatalf("squawk %q contains non-octal digit %q", code, ch)
			}
		}
		switch code {
		case "0000", "7500", "7600", "7700":
			t.Fatalf("generated reserved squawk %q", code)
		}
	}
}

func TestTODDistanceNM(t *testing.T) {
	tests := []struct {
		name   string
		cruise int
		want   float64
	}{
		{"FL370", 37000, 112},
		{"FL290", 29000, 88},
		{"low cruise", 3000, 10},
		{"below buffer floor", 2000, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := &FlightPlan{CruiseAltitude: tt.cruise}
			got := fp.TODDistanceNM()
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("TODDistanceNM() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlightLevelString(t *testing.T) {
	if got := FlightLevelString(37000); got != "FL370" {
		t.Errorf("FlightLevelString(37000) = %q, want FL370", got)
	}
	if got := FlightLevelString(18000); got != "FL180" {
		t.Errorf("FlightLevelString(18000) = %q, want FL180", got)
	}
	if got := FlightLevelString(5000); got != "5000 feet" {
		t.Errorf("FlightLevelString(5000) = %q, want 5000 feet", got)
	}
}

func TestDemoPlan(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	fp := Demo(rng)
	if err := fp.Validate(); err != nil {
		t.Fatalf("demo plan failed validation: %v", err)
	}
	if fp.Origin != "EGLL" || fp.Destination != "EDDF" {
		t.Errorf("demo plan route = %s-%s, want EGLL-EDDF", fp.Origin, fp.Destination)
	}
	if fp.Squawk == "" {
		t.Error("demo plan has no squawk")
	}
}

func TestValidate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	fp := Demo(rng)
	fp.Callsign = "  "
	if err := fp.Validate(); err == nil {
		t.Error("expected error for blank callsign")
	}

	fp = Demo(rng)
	fp.Origin = "EGL"
	if err := fp.Validate(); err == nil {
		t.Error("expected error for short origin ICAO")
	}

	fp = Demo(rng)
	fp.CruiseAltitude = 0
	if err := fp.Validate(); err == nil {
		t.Error("expected error for zero cruise altitude")
	}
}

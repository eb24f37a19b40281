package weather

import (
	"encoding/json"
	"testing"
)

func TestWindDirUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		degrees  int
		variable bool
	}{
		{"number", `{"wdir": 240, "wspd": 8}`, 240, false},
		{"quoted number", `{"wdir": "180", "wspd": 5}`, 180, false},
		{"variable", `{"wdir": "VRB", "wspd": 3}`, 0, true},
		{"null", `{"wdir": null, "wspd": 0}`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m METARResponse
			if err := json.Unmarshal([]byte(tt.in), &m); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if m.Wdir.Degrees != tt.degrees || m.Wdir.Variable != tt.variable {
				t.Errorf("wdir = %+v, want degrees %d variable %v", m.Wdir, tt.degrees, tt.variable)
			}
		})
	}
}

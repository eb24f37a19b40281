// Package weather fetches METAR observations for the flight's airports and
// exposes the surface wind for takeoff and landing clearances.
package weather

import (
	"bytes"
	"strconv"
	"time"
)

// METARResponse is one observation from the AviationWeather.gov data API.
// wdir is a number in the usual case but the string "VRB" for variable wind,
// so it is decoded by hand.
type METARResponse struct {
	ICAOID  string  `json:"icaoId"`
	RawOb   string  `json:"rawOb"`
	ObsTime int64   `json:"obsTime"`
	Temp    float64 `json:"temp"`
	Wdir    WindDir `json:"wdir"`
	Wspd    int     `json:"wspd"`
}

// WindDir is a wind direction in degrees; Variable is set for "VRB"
type WindDir struct {
	Degrees  int
	Variable bool
}

// UnmarshalJSON accepts either a JSON number or the string "VRB"
func (d *WindDir) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte(`"VRB"`)) {
		d.Variable = true
		d.Degrees = 0
		return nil
	}
	if bytes.Equal(data, []byte(`null`)) {
		d.Variable = false
		d.Degrees = 0
		return nil
	}
	deg, err := strconv.Atoi(string(bytes.Trim(data, `"`)))
	if err != nil {
		// An unparseable direction reads as calm rather than failing the
		// whole observation
		d.Degrees = 0
		return nil
	}
	d.Degrees = deg
	return nil
}

// Observed returns the observation timestamp
func (m *METARResponse) Observed() time.Time {
	return time.Unix(m.ObsTime, 0).UTC()
}

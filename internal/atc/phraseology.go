package atc

import (
	"fmt"

	"github.com/walker79/offline-atc/internal/flightplan"
)

// Phraseology templates. Each function renders one ATC event from flight
// plan and contextual fields and returns the text plus the issuing position.
// All of them are pure; personality modulation happens at emission time in
// the Controller.

// ClearanceDelivery renders the IFR clearance readout
func ClearanceDelivery(fp *flightplan.FlightPlan, departureFreq string) (string, Position) {
	msg := fmt.Sprintf(
		"%s, Clearance Delivery, cleared to %s via %s departure, flight planned route, "+
			"climb and maintain flight level %s, departure frequency %s, squawk %s.",
		FormatCallsign(fp.Callsign), fp.Destination, fp.SID,
		flightLevelDigits(fp.CruiseAltitude), departureFreq, Phoneticize(fp.Squawk))
	return msg, PositionClearance
}

// PushbackClearance approves pushback off the gate
func PushbackClearance(callsign string) (string, Position) {
	msg := fmt.Sprintf("%s, pushback approved, tail north, advise ready to taxi.", FormatCallsign(callsign))
	return msg, PositionGround
}

// TaxiOut issues the taxi instruction to the departure runway
func TaxiOut(callsign, runway string) (string, Position) {
	msg := fmt.Sprintf("%s, taxi to runway %s via taxiway Alpha, hold short.", FormatCallsign(callsign), Phoneticize(runway))
	return msg, PositionGround
}

// LineupClearance puts the aircraft on the runway to wait
func LineupClearance(callsign, runway string) (string, Position) {
	msg := fmt.Sprintf("%s, runway %s, line up and wait.", FormatCallsign(callsign), Phoneticize(runway))
	return msg, PositionTower
}

// TakeoffClearance clears the aircraft for takeoff. The wind string comes
// from live weather when available; "wind calm" otherwise.
func TakeoffClearance(callsign, runway, wind string) (string, Position) {
	msg := fmt.Sprintf("%s, runway %s, %s, cleared for takeoff.", FormatCallsign(callsign), Phoneticize(runway), wind)
	return msg, PositionTower
}

// ContactDeparture switches the airborne aircraft to departure control
func ContactDeparture(callsign, freq string) (string, Position) {
	msg := fmt.Sprintf("%s, contact departure %s.", FormatCallsign(callsign), freq)
	return msg, PositionTower
}

// ClimbClearance clears a climb to the given flight level digits
func ClimbClearance(callsign, flightLevel string) (string, Position) {
	msg := fmt.Sprintf("%s, climb flight level %s.", FormatCallsign(callsign), flightLevel)
	return msg, PositionDeparture
}

// CruiseCheck is the level-off confirmation on center frequency
func CruiseCheck(callsign, flightLevel string) (string, Position) {
	msg := fmt.Sprintf("%s, maintaining flight level %s.", FormatCallsign(callsign), flightLevel)
	return msg, PositionCenter
}

// TopOfDescent advises the upcoming descent point
func TopOfDescent(callsign string, distanceNM int) (string, Position) {
	msg := fmt.Sprintf("%s, top of descent in %d miles.", FormatCallsign(callsign), distanceNM)
	return msg, PositionCenter
}

// DescentClearance clears a descent to the given altitude in feet
func DescentClearance(callsign string, altitudeFt int) (string, Position) {
	msg := fmt.Sprintf("%s, descend and maintain %d feet.", FormatCallsign(callsign), altitudeFt)
	return msg, PositionCenter
}

// ExpectSTAR advises the arrival procedure and runway
func ExpectSTAR(callsign, star, runway string) (string, Position) {
	msg := fmt.Sprintf("%s, expect %s arrival, runway %s.", FormatCallsign(callsign), star, Phoneticize(runway))
	return msg, PositionCenter
}

// ApproachClearance clears the ILS approach
func ApproachClearance(callsign, runway string) (string, Position) {
	msg := fmt.Sprintf("%s, cleared ILS approach runway %s.", FormatCallsign(callsign), Phoneticize(runway))
	return msg, PositionApproach
}

// ContactTower switches the arriving aircraft to tower
func ContactTower(callsign, freq string) (string, Position) {
	msg := fmt.Sprintf("%s, contact tower %s.", FormatCallsign(callsign), freq)
	return msg, PositionApproach
}

// LandingClearance clears the aircraft to land
func LandingClearance(callsign, runway, wind string) (string, Position) {
	msg := fmt.Sprintf("%s, runway %s, %s, cleared to land.", FormatCallsign(callsign), Phoneticize(runway), wind)
	return msg, PositionTower
}

// ExitRunway instructs the landed aircraft off the runway
func ExitRunway(callsign string) (string, Position) {
	msg := fmt.Sprintf("%s, exit next taxiway, contact ground point niner.", FormatCallsign(callsign))
	return msg, PositionTower
}

// TaxiToGate issues the inbound taxi instruction
func TaxiToGate(callsign string) (string, Position) {
	msg := fmt.Sprintf("%s, taxi to gate via taxiway Bravo.", FormatCallsign(callsign))
	return msg, PositionGround
}

// ParkingComplete closes out the flight at the gate
func ParkingComplete(callsign string) (string, Position) {
	msg := fmt.Sprintf("%s, parking complete, good day.", FormatCallsign(callsign))
	return msg, PositionGround
}

// FrequencyHandoff hands the aircraft to the next controller. The issuing
// position is the one the aircraft is actually on when the handoff fires.
func FrequencyHandoff(callsign, nextController, nextFreq string, current Position) (string, Position) {
	msg := fmt.Sprintf("%s, contact %s %s. Good day.", FormatCallsign(callsign), nextController, nextFreq)
	return msg, current
}

// CheckIn acknowledges the aircraft on a new frequency
func CheckIn(callsign, flightLevel string, pos Position) (string, Position) {
	msg := fmt.Sprintf("%s, radar contact. Maintain flight level %s.", FormatCallsign(callsign), flightLevel)
	return msg, pos
}

// WindCalm is the wind phrase used when no live weather is available
const WindCalm = "wind calm"

// FormatWind renders a METAR wind as a clearance phrase
func FormatWind(dirDeg, speedKts int) string {
	if speedKts <= 0 {
		return WindCalm
	}
	return fmt.Sprintf("wind %03d at %d", dirDeg, speedKts)
}

// flightLevelDigits renders an altitude as three spoken flight level digits
// ("370" for 37000)
func flightLevelDigits(altitudeFt int) string {
	return fmt.Sprintf("%03d", altitudeFt/100)
}

// Package atc implements the session core: the flight phase state machine,
// sector and frequency registry, airspace monitor, controller personalities,
// and the phraseology they emit.
package atc

// Phase is the flight lifecycle state owned by the Controller. The zero
// session starts in PhaseColdAndDark; PhaseComplete is terminal.
type Phase string

const (
	PhaseColdAndDark       Phase = "Cold & Dark"
	PhaseClearanceDelivery Phase = "Clearance Delivery"
	PhasePushbackApproved  Phase = "Pushback Approved"
	PhaseTaxiOut           Phase = "Taxi Out"
	PhaseLineUp            Phase = "Line Up"
	PhaseTakeoffClearance  Phase = "Takeoff Clearance"
	PhaseDeparture         Phase = "Departure"
	PhaseClimb             Phase = "Climb"
	PhaseCruise            Phase = "Cruise"
	PhaseTopOfDescent      Phase = "Top of Descent"
	PhaseDescent           Phase = "Descent"
	PhaseApproach          Phase = "Approach"
	PhaseFinalApproach     Phase = "Final Approach"
	PhaseLandingClearance  Phase = "Landing Clearance"
	PhaseLanded            Phase = "Landed"
	PhaseTaxiIn            Phase = "Taxi In"
	PhaseParking           Phase = "Parking"
	PhaseComplete          Phase = "Complete"
)

// Phases lists every phase in lifecycle order
var Phases = []Phase{
	PhaseColdAndDark,
	PhaseClearanceDelivery,
	PhasePushbackApproved,
	PhaseTaxiOut,
	PhaseLineUp,
	PhaseTakeoffClearance,
	PhaseDeparture,
	PhaseClimb,
	PhaseCruise,
	PhaseTopOfDescent,
	PhaseDescent,
	PhaseApproach,
	PhaseFinalApproach,
	PhaseLandingClearance,
	PhaseLanded,
	PhaseTaxiIn,
	PhaseParking,
	PhaseComplete,
}

func (p Phase) String() string { return string(p) }

// Position identifies a controller position type. Several sectors can share
// a position type (departure and arrival tower, for example) but each has
// its own frequency.
type Position string

const (
	PositionClearance Position = "Clearance"
	PositionGround    Position = "Ground"
	PositionTower     Position = "Tower"
	PositionDeparture Position = "Departure"
	PositionCenter    Position = "Center"
	PositionApproach  Position = "Approach"
)

func (p Position) String() string { return string(p) }

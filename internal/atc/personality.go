package atc

import (
	"math/rand"
	"strings"
)

// Personality holds the continuous traits that color a controller's
// phraseology. All traits are on a 0-1 scale; SpeechRate is a multiplier
// for whatever voice renders the transmission downstream.
type Personality struct {
	Name         string  `json:"name"`
	Formality    float64 `json:"formality"`
	Friendliness float64 `json:"friendliness"`
	Verbosity    float64 `json:"verbosity"`
	Strictness   float64 `json:"strictness"`
	SpeechRate   float64 `json:"speech_rate"`
}

var friendlyClosings = []string{"safe flight", "have a good one", "fly safe"}

// Modify applies the personality's phrase variations to a rendered message.
// Deterministic for a given rng state. The context string names the event
// kind and is reserved for future rules; the current rules are unconditional
// on it.
func (p Personality) Modify(message, context string, rng *rand.Rand) string {
	phrase := message

	// Friendly controllers sometimes swap the standard closing. The template
	// capitalizes the closing, so locate it case-insensitively and replace
	// the span that actually matched.
	if p.Friendliness > 0.7 {
		if idx := strings.Index(strings.ToLower(phrase), "good day"); idx >= 0 {
			if rng.Float64() < 0.3 {
				closing := friendlyClosings[rng.Intn(len(friendlyClosings))]
				phrase = phrase[:idx] + closing + phrase[idx+len("good day"):]
			}
		}
	}

	// Strict, terse controllers drop courtesy words
	if p.Strictness > 0.7 && p.Verbosity < 0.4 {
		phrase = strings.ReplaceAll(phrase, ", advise ready to taxi", "")
		phrase = strings.ReplaceAll(phrase, " please", "")
	}

	// Verbose controllers pad level instructions. The thanks goes before the
	// trailing period, never an interior one (frequencies contain dots).
	if p.Verbosity > 0.7 && strings.Contains(strings.ToLower(phrase), "maintain") {
		if rng.Float64() < 0.4 {
			if idx := strings.LastIndex(phrase, "."); idx >= 0 {
				phrase = phrase[:idx] + ", thank you" + phrase[idx:]
			}
		}
	}

	return phrase
}

// Describe returns a short display label derived from the trait thresholds
func (p Personality) Describe() string {
	var traits []string
	if p.Formality > 0.7 {
		traits = append(traits, "Formal")
	}
	if p.Friendliness > 0.6 {
		traits = append(traits, "Friendly")
	}
	if p.Strictness > 0.7 {
		traits = append(traits, "Strict")
	}
	if p.Verbosity < 0.4 {
		traits = append(traits, "Concise")
	} else if p.Verbosity > 0.7 {
		traits = append(traits, "Verbose")
	}
	if len(traits) == 0 {
		return "Personality: Standard"
	}
	return "Personality: " + strings.Join(traits, ", ")
}

// DefaultPersonalities returns the stock personality for each position type.
// One instance per position, shared read-only by every sector of that type.
func DefaultPersonalities() map[Position]Personality {
	return map[Position]Personality{
		PositionClearance: {
			Name: "Clearance Delivery", Formality: 0.9, Friendliness: 0.5,
			Verbosity: 0.8, Strictness: 0.7, SpeechRate: 1.0,
		},
		PositionGround: {
			Name: "Ground Control", Formality: 0.8, Friendliness: 0.4,
			Verbosity: 0.3, Strictness: 0.9, SpeechRate: 1.0,
		},
		PositionTower: {
			Name: "Tower", Formality: 0.8, Friendliness: 0.6,
			Verbosity: 0.5, Strictness: 0.8, SpeechRate: 1.0,
		},
		PositionDeparture: {
			Name: "Departure", Formality: 0.7, Friendliness: 0.6,
			Verbosity: 0.6, Strictness: 0.6, SpeechRate: 1.0,
		},
		PositionCenter: {
			Name: "Center", Formality: 0.6, Friendliness: 0.7,
			Verbosity: 0.7, Strictness: 0.5, SpeechRate: 1.0,
		},
		PositionApproach: {
			Name: "Approach", Formality: 0.7, Friendliness: 0.7,
			Verbosity: 0.6, Strictness: 0.7, SpeechRate: 1.0,
		},
	}
}

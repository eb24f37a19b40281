package atc

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// natoPhonetic maps letters and digits to their radiotelephony words
var natoPhonetic = map[rune]string{
	'A': "Alpha", 'B': "Bravo", 'C': "Charlie", 'D': "Delta", 'E': "Echo",
	'F': "Foxtrot", 'G': "Golf", 'H': "Hotel", 'I': "India", 'J': "Juliet",
	'K': "Kilo", 'L': "Lima", 'M': "Mike", 'N': "November", 'O': "Oscar",
	'P': "Papa", 'Q': "Quebec", 'R': "Romeo", 'S': "Sierra", 'T': "Tango",
	'U': "Uniform", 'V': "Victor", 'W': "Whiskey", 'X': "X-ray", 'Y': "Yankee",
	'Z': "Zulu",
	'0': "Zero", '1': "One", '2': "Two", '3': "Three", '4': "Four",
	'5': "Five", '6': "Six", '7': "Seven", '8': "Eight", '9': "Niner",
}

// airlinePrefixes are telephony designators spoken as words rather than
// spelled out letter by letter
var airlinePrefixes = []string{"SPEEDBIRD", "LUFTHANSA", "UNITED", "DELTA", "AMERICAN"}

var titleCaser = cases.Title(language.English)

// Phoneticize transliterates letters and digits to phonetic words. Spaces
// are dropped; any other character passes through unchanged.
func Phoneticize(text string) string {
	var words []string
	for _, ch := range strings.ToUpper(text) {
		if word, ok := natoPhonetic[ch]; ok {
			words = append(words, word)
		} else if unicode.IsSpace(ch) {
			continue
		} else {
			words = append(words, string(ch))
		}
	}
	return strings.Join(words, " ")
}

// FormatCallsign renders a callsign for transmission: a recognized airline
// prefix is spoken as a word, the remainder is phoneticized.
func FormatCallsign(callsign string) string {
	upper := strings.ToUpper(callsign)
	for _, prefix := range airlinePrefixes {
		if strings.HasPrefix(upper, prefix) {
			return titleCaser.String(strings.ToLower(prefix)) + " " + Phoneticize(upper[len(prefix):])
		}
	}
	return Phoneticize(callsign)
}

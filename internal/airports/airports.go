// Package airports provides the airport database used to seed sectors,
// airspace volumes, and the telemetry simulator. A small built-in set covers
// the demo flight plan; an OurAirports-format CSV can be merged over it.
package airports

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Airport describes a single airport reference point
type Airport struct {
	ICAO        string  `json:"icao"`
	Name        string  `json:"name"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	ElevationFt float64 `json:"elevation_ft"`
}

// DB is an in-memory airport lookup keyed by ICAO code. The major airports
// from the built-in set are tracked separately; they are the ones that get
// Class B terminal volumes.
type DB struct {
	byICAO map[string]Airport
	majors []string
}

// Builtin returns a database preloaded with the airports the demo flight
// plan and the default Class B volumes reference
func Builtin() *DB {
	db := &DB{byICAO: make(map[string]Airport)}
	for _, apt := range []Airport{
		{ICAO: "EGLL", Name: "London Heathrow", Latitude: 51.4700, Longitude: -0.4543, ElevationFt: 83},
		{ICAO: "EDDF", Name: "Frankfurt Main", Latitude: 50.0379, Longitude: 8.5622, ElevationFt: 364},
		{ICAO: "KJFK", Name: "John F. Kennedy Intl", Latitude: 40.6413, Longitude: -73.7781, ElevationFt: 13},
		{ICAO: "KLAX", Name: "Los Angeles Intl", Latitude: 33.9416, Longitude: -118.4085, ElevationFt: 128},
		{ICAO: "LFPG", Name: "Paris Charles de Gaulle", Latitude: 49.0097, Longitude: 2.5479, ElevationFt: 392},
	} {
		db.byICAO[apt.ICAO] = apt
		db.majors = append(db.majors, apt.ICAO)
	}
	return db
}

// Majors returns the major terminal-area airports in a stable order
func (db *DB) Majors() []Airport {
	majors := make([]Airport, 0, len(db.majors))
	for _, icao := range db.majors {
		majors = append(majors, db.byICAO[icao])
	}
	return majors
}

// MergeCSV parses an OurAirports-format airports.csv and merges every row
// with a valid ident and coordinates over the current set. Rows that fail to
// parse are skipped rather than failing the whole load.
func (db *DB) MergeCSV(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open airports CSV: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.LazyQuotes = true

	// Skip header
	if _, err := reader.Read(); err != nil {
		return fmt.Errorf("failed to read airports CSV header: %w", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read airports CSV: %w", err)
	}

	loaded := 0
	for _, record := range records {
		if len(record) < 7 {
			continue
		}

		// ident (index 1), name (index 3), lat (index 4), lon (index 5),
		// elevation (index 6)
		ident := strings.ToUpper(strings.TrimSpace(record[1]))
		if ident == "" {
			continue
		}

		lat, err := strconv.ParseFloat(record[4], 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(record[5], 64)
		if err != nil {
			continue
		}

		apt := Airport{
			ICAO:      ident,
			Name:      record[3],
			Latitude:  lat,
			Longitude: lon,
		}
		// Elevation might be empty
		if record[6] != "" {
			if elev, err := strconv.ParseFloat(record[6], 64); err == nil {
				apt.ElevationFt = elev
			}
		}

		db.byICAO[ident] = apt
		loaded++
	}

	if loaded == 0 {
		return fmt.Errorf("no usable airport rows in %s", path)
	}
	return nil
}

// Get returns the airport for the given ICAO code
func (db *DB) Get(icao string) (Airport, bool) {
	apt, ok := db.byICAO[strings.ToUpper(icao)]
	return apt, ok
}

// GetOrZero returns the airport for the given ICAO code, or a placeholder at
// 0,0 carrying the requested code when it is unknown. Unknown airports keep
// the session usable; sectors just end up centered on the null island.
func (db *DB) GetOrZero(icao string) Airport {
	if apt, ok := db.Get(icao); ok {
		return apt
	}
	return Airport{ICAO: strings.ToUpper(icao), Name: "Unknown"}
}

// Len returns the number of airports in the database
func (db *DB) Len() int {
	return len(db.byICAO)
}

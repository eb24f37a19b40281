package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server      ServerConfig      `toml:"server"`      // HTTP server settings
	Logging     LoggingConfig     `toml:"logging"`     // Application logging settings
	Storage     StorageConfig     `toml:"storage"`     // Data persistence settings
	Airports    AirportsConfig    `toml:"airports"`    // Airport database settings
	SimBrief    SimBriefConfig    `toml:"simbrief"`    // SimBrief flight plan import settings
	Frequencies FrequenciesConfig `toml:"frequencies"` // Radio frequency generation settings
	Phases      PhasesConfig      `toml:"phases"`      // Flight phase thresholds and pacing
	Weather     WeatherConfig     `toml:"wx"`          // METAR fetching settings
	Simulation  SimulationConfig  `toml:"simulation"`  // Built-in telemetry simulator settings
	Session     SessionConfig     `toml:"session"`     // ATC session runner settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // Primary HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // List of origins allowed for CORS requests (use ["*"] for all origins)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// StorageConfig contains data persistence configuration
type StorageConfig struct {
	SQLiteBasePath     string `toml:"sqlite_base_path"`    // Directory for SQLite database files (filename is generated as offline-atc-YYYY-MM-DD.db)
	MaxTransmissions   int    `toml:"max_transmissions"`   // Maximum number of transmissions returned by the API when no limit is given
	DisablePersistence bool   `toml:"disable_persistence"` // Skip the SQLite transmission log entirely
}

// AirportsConfig contains airport database configuration
type AirportsConfig struct {
	CSVPath string `toml:"csv_path"` // Optional path to an OurAirports-format airports.csv, merged over the built-in set
}

// SimBriefConfig contains settings for the SimBrief flight plan importer
type SimBriefConfig struct {
	Enabled        bool   `toml:"enabled"`         // Fetch the flight plan from SimBrief; when false or the fetch fails the demo plan is used
	Username       string `toml:"username"`        // SimBrief username to fetch the latest OFP for
	BaseURL        string `toml:"base_url"`        // SimBrief API base URL
	TimeoutSeconds int    `toml:"timeout_seconds"` // HTTP timeout for the fetch in seconds
}

// FrequencyBand describes the generation range for one controller position
// type. Generated decimals are snapped down to the 25 kHz channel grid.
type FrequencyBand struct {
	BaseMHz int `toml:"base_mhz"` // Integer MHz part (e.g., 121)
	MinKHz  int `toml:"min_khz"`  // Minimum decimal part in kHz (e.g., 700)
	MaxKHz  int `toml:"max_khz"`  // Maximum decimal part in kHz (e.g., 900)
}

// FrequenciesConfig contains radio frequency generation settings per
// controller position, plus the sector handoff trigger distance
type FrequenciesConfig struct {
	Clearance FrequencyBand `toml:"clearance"`
	Ground    FrequencyBand `toml:"ground"`
	Tower     FrequencyBand `toml:"tower"`
	Departure FrequencyBand `toml:"departure"`
	Approach  FrequencyBand `toml:"approach"`
	Center    FrequencyBand `toml:"center"`

	HandoffThresholdNM float64 `toml:"handoff_threshold_nm"` // Distance from the active sector boundary at which a handoff is triggered
}

// PhasesConfig contains flight phase detection thresholds and announcement
// pacing hints
type PhasesConfig struct {
	TakeoffAltitudeAGLFt    float64 `toml:"takeoff_altitude_agl_ft"`    // AGL above which a cleared aircraft is considered airborne
	InitialClimbAGLFt       float64 `toml:"initial_climb_agl_ft"`       // AGL above which departure hands out the climb clearance
	ApproachAltitudeFt      float64 `toml:"approach_altitude_ft"`       // MSL below which the approach clearance is issued
	FinalApproachAltitudeFt float64 `toml:"final_approach_altitude_ft"` // MSL below which the aircraft is switched to tower
	LandingMaxSpeedKts      float64 `toml:"landing_max_speed_kts"`      // Groundspeed below which a rollout counts as landed

	LineupToTakeoffDelaySecs float64 `toml:"lineup_to_takeoff_delay_seconds"` // Pacing hint between line-up and takeoff clearances
	HandoffSwitchDelaySecs   float64 `toml:"handoff_switch_delay_seconds"`    // Pacing hint between a handoff and the check-in on the new frequency
	CheckInDelaySecs         float64 `toml:"check_in_delay_seconds"`          // Pacing hint before a check-in acknowledgment
	CruiseCheckDelaySecs     float64 `toml:"cruise_check_delay_seconds"`      // Pacing hint before the cruise level check
}

// WeatherConfig contains settings for METAR fetching
type WeatherConfig struct {
	Enabled                bool   `toml:"enabled"`                  // Fetch live METAR wind for takeoff/landing clearances
	APIBaseURL             string `toml:"api_base_url"`             // Weather API base URL (AviationWeather.gov data API)
	RefreshIntervalMinutes int    `toml:"refresh_interval_minutes"` // How often to refresh the METAR
	RequestTimeoutSeconds  int    `toml:"request_timeout_seconds"`  // HTTP timeout for weather requests
	MaxRetries             int    `toml:"max_retries"`              // Number of retry attempts per fetch
}

// SimulationConfig contains the flight profile for the built-in telemetry
// simulator
type SimulationConfig struct {
	TaxiSpeedKts     float64 `toml:"taxi_speed_kts"`        // Groundspeed while taxiing
	RotateSpeedKts   float64 `toml:"rotate_speed_kts"`      // Groundspeed at which the takeoff roll lifts off
	CruiseSpeedKts   float64 `toml:"cruise_speed_kts"`      // Target groundspeed once airborne
	ApproachSpeedKts float64 `toml:"approach_speed_kts"`    // Target groundspeed below the approach altitude
	TakeoffAccelKts  float64 `toml:"takeoff_accel_kts_sec"` // Acceleration during the takeoff roll in knots per second
	ClimbRateFPM     float64 `toml:"climb_rate_fpm"`        // Vertical speed while climbing
	DescentRateFPM   float64 `toml:"descent_rate_fpm"`      // Vertical speed while descending (positive number)
	LandingDecelKts  float64 `toml:"landing_decel_kts_sec"` // Deceleration after touchdown in knots per second
}

// SessionConfig contains settings for the session runner driving the
// controller with telemetry samples
type SessionConfig struct {
	UpdateIntervalSecs   float64 `toml:"update_interval_seconds"`    // Telemetry polling cadence
	Seed                 int64   `toml:"seed"`                       // Seed for the session random source (0 = derive from clock)
	AutoCommands         bool    `toml:"auto_commands"`              // Issue the next sensible pilot request automatically (self-flying demo)
	AutoCommandDelaySecs float64 `toml:"auto_command_delay_seconds"` // Minimum dwell time in a phase before the next automatic request
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in
// order of preference. When no file is found anywhere, an empty configuration
// is returned and Validate fills in defaults, so the server can run without
// a config file at all.
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,
		"configs/config.toml",
		"config.toml",
	}

	for _, path := range searchPaths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
			}
			return config, nil
		}
	}

	return &Config{}, nil
}

// Validate validates the configuration and fills in defaults for any values
// left unset
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8060
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.ReadTimeoutSecs <= 0 {
		c.Server.ReadTimeoutSecs = 30
	}
	if c.Server.WriteTimeoutSecs <= 0 {
		c.Server.WriteTimeoutSecs = 30
	}
	if c.Server.IdleTimeoutSecs <= 0 {
		c.Server.IdleTimeoutSecs = 60
	}

	switch c.Logging.Level {
	case "":
		c.Logging.Level = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "":
		c.Logging.Format = "console"
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Storage.SQLiteBasePath == "" {
		c.Storage.SQLiteBasePath = "data"
	}
	if c.Storage.MaxTransmissions <= 0 {
		c.Storage.MaxTransmissions = 100
	}

	if c.SimBrief.BaseURL == "" {
		c.SimBrief.BaseURL = "https://www.simbrief.com/api/xml.fetcher.php"
	}
	if c.SimBrief.TimeoutSeconds <= 0 {
		c.SimBrief.TimeoutSeconds = 10
	}
	if c.SimBrief.Enabled && c.SimBrief.Username == "" {
		return fmt.Errorf("simbrief username is required when simbrief import is enabled")
	}

	defaultBand(&c.Frequencies.Clearance, 121, 700, 900)
	defaultBand(&c.Frequencies.Ground, 121, 600, 900)
	defaultBand(&c.Frequencies.Tower, 118, 100, 900)
	defaultBand(&c.Frequencies.Departure, 119, 100, 900)
	defaultBand(&c.Frequencies.Approach, 120, 100, 900)
	defaultBand(&c.Frequencies.Center, 132, 100, 900)
	for _, band := range []FrequencyBand{
		c.Frequencies.Clearance, c.Frequencies.Ground, c.Frequencies.Tower,
		c.Frequencies.Departure, c.Frequencies.Approach, c.Frequencies.Center,
	} {
		if band.MinKHz > band.MaxKHz {
			return fmt.Errorf("invalid frequency band for base %d: min %d > max %d", band.BaseMHz, band.MinKHz, band.MaxKHz)
		}
		if band.MinKHz < 0 || band.MaxKHz > 975 {
			return fmt.Errorf("frequency band for base %d outside 0-975 kHz", band.BaseMHz)
		}
	}
	if c.Frequencies.HandoffThresholdNM <= 0 {
		c.Frequencies.HandoffThresholdNM = 15
	}

	if c.Phases.TakeoffAltitudeAGLFt <= 0 {
		c.Phases.TakeoffAltitudeAGLFt = 100
	}
	if c.Phases.InitialClimbAGLFt <= 0 {
		c.Phases.InitialClimbAGLFt = 1500
	}
	if c.Phases.ApproachAltitudeFt <= 0 {
		c.Phases.ApproachAltitudeFt = 10000
	}
	if c.Phases.FinalApproachAltitudeFt <= 0 {
		c.Phases.FinalApproachAltitudeFt = 3000
	}
	if c.Phases.LandingMaxSpeedKts <= 0 {
		c.Phases.LandingMaxSpeedKts = 60
	}
	if c.Phases.LineupToTakeoffDelaySecs <= 0 {
		c.Phases.LineupToTakeoffDelaySecs = 3
	}
	if c.Phases.HandoffSwitchDelaySecs <= 0 {
		c.Phases.HandoffSwitchDelaySecs = 2
	}
	if c.Phases.CheckInDelaySecs <= 0 {
		c.Phases.CheckInDelaySecs = 1
	}
	if c.Phases.CruiseCheckDelaySecs <= 0 {
		c.Phases.CruiseCheckDelaySecs = 5
	}

	if c.Weather.APIBaseURL == "" {
		c.Weather.APIBaseURL = "https://aviationweather.gov/api/data"
	}
	if c.Weather.RefreshIntervalMinutes <= 0 {
		c.Weather.RefreshIntervalMinutes = 15
	}
	if c.Weather.RequestTimeoutSeconds <= 0 {
		c.Weather.RequestTimeoutSeconds = 10
	}
	if c.Weather.MaxRetries < 0 {
		return fmt.Errorf("invalid weather max_retries: %d", c.Weather.MaxRetries)
	}
	if c.Weather.MaxRetries == 0 {
		c.Weather.MaxRetries = 3
	}

	if c.Simulation.TaxiSpeedKts <= 0 {
		c.Simulation.TaxiSpeedKts = 15
	}
	if c.Simulation.RotateSpeedKts <= 0 {
		c.Simulation.RotateSpeedKts = 145
	}
	if c.Simulation.CruiseSpeedKts <= 0 {
		c.Simulation.CruiseSpeedKts = 450
	}
	if c.Simulation.ApproachSpeedKts <= 0 {
		c.Simulation.ApproachSpeedKts = 180
	}
	if c.Simulation.TakeoffAccelKts <= 0 {
		c.Simulation.TakeoffAccelKts = 5
	}
	if c.Simulation.ClimbRateFPM <= 0 {
		c.Simulation.ClimbRateFPM = 2400
	}
	if c.Simulation.DescentRateFPM <= 0 {
		c.Simulation.DescentRateFPM = 1800
	}
	if c.Simulation.LandingDecelKts <= 0 {
		c.Simulation.LandingDecelKts = 4
	}

	if c.Session.UpdateIntervalSecs <= 0 {
		c.Session.UpdateIntervalSecs = 2
	}
	if c.Session.AutoCommandDelaySecs <= 0 {
		c.Session.AutoCommandDelaySecs = 15
	}

	return nil
}

func defaultBand(band *FrequencyBand, base, min, max int) {
	if band.BaseMHz == 0 {
		band.BaseMHz = base
	}
	if band.MinKHz == 0 {
		band.MinKHz = min
	}
	if band.MaxKHz == 0 {
		band.MaxKHz = max
	}
}

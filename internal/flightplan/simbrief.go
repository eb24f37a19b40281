package flightplan

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/walker79/offline-atc/internal/config"
	"github.com/walker79/offline-atc/pkg/logger"
)

// SimBriefClient fetches the latest generated OFP for a SimBrief user and
// converts it into a FlightPlan
type SimBriefClient struct {
	config     config.SimBriefConfig
	httpClient *http.Client
	logger     *logger.Logger
}

// NewSimBriefClient creates a new SimBrief API client
func NewSimBriefClient(cfg config.SimBriefConfig, log *logger.Logger) *SimBriefClient {
	return &SimBriefClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: log.Named("simbrief"),
	}
}

// simbriefOFP mirrors the subset of the SimBrief JSON OFP the session needs
type simbriefOFP struct {
	ATC struct {
		Callsign string `json:"callsign"`
	} `json:"atc"`
	Origin struct {
		ICAOCode string `json:"icao_code"`
		PlanRwy  string `json:"plan_rwy"`
	} `json:"origin"`
	Destination struct {
		ICAOCode string `json:"icao_code"`
		PlanRwy  string `json:"plan_rwy"`
	} `json:"destination"`
	General struct {
		InitialAltitude string `json:"initial_altitude"`
		Route           string `json:"route"`
		AirDistance     string `json:"air_distance"`
	} `json:"general"`
	Navlog struct {
		Fix []struct {
			Ident     string `json:"ident"`
			ViaAirway string `json:"via_airway"`
		} `json:"fix"`
	} `json:"navlog"`
}

// Fetch retrieves the user's latest OFP and maps it to a FlightPlan. The
// squawk is always locally generated; SimBrief does not assign one.
func (c *SimBriefClient) Fetch(ctx context.Context, rng *rand.Rand) (*FlightPlan, error) {
	fetchURL := fmt.Sprintf("%s?username=%s&json=1",
		c.config.BaseURL, url.QueryEscape(c.config.Username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create simbrief request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request to simbrief API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("simbrief API returned status %d", resp.StatusCode)
	}

	var ofp simbriefOFP
	if err := json.NewDecoder(resp.Body).Decode(&ofp); err != nil {
		return nil, fmt.Errorf("error decoding simbrief OFP: %w", err)
	}

	plan, err := c.convert(&ofp, rng)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Fetched SimBrief flight plan",
		logger.String("callsign", plan.Callsign),
		logger.String("origin", plan.Origin),
		logger.String("destination", plan.Destination),
		logger.String("flight_level", plan.FlightLevel))
	return plan, nil
}

func (c *SimBriefClient) convert(ofp *simbriefOFP, rng *rand.Rand) (*FlightPlan, error) {
	cruise, err := strconv.Atoi(strings.TrimSpace(ofp.General.InitialAltitude))
	if err != nil {
		return nil, fmt.Errorf("invalid initial_altitude in OFP: %q", ofp.General.InitialAltitude)
	}

	distance, err := strconv.ParseFloat(strings.TrimSpace(ofp.General.AirDistance), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid air_distance in OFP: %q", ofp.General.AirDistance)
	}

	// SID and STAR are the airway of the first and last navlog fixes when
	// they are procedure-style entries rather than enroute airways.
	var sid, star string
	var waypoints []string
	fixes := ofp.Navlog.Fix
	if len(fixes) > 0 {
		sid = fixes[0].ViaAirway
		star = fixes[len(fixes)-1].ViaAirway
		for _, fix := range fixes {
			waypoints = append(waypoints, fix.Ident)
		}
	}

	plan := &FlightPlan{
		Callsign:        strings.ToUpper(strings.TrimSpace(ofp.ATC.Callsign)),
		Origin:          strings.ToUpper(ofp.Origin.ICAOCode),
		Destination:     strings.ToUpper(ofp.Destination.ICAOCode),
		DepartureRunway: ofp.Origin.PlanRwy,
		ArrivalRunway:   ofp.Destination.PlanRwy,
		SID:             sid,
		STAR:            star,
		CruiseAltitude:  cruise,
		FlightLevel:     FlightLevelString(cruise),
		Route:           ofp.General.Route,
		RouteDistanceNM: distance,
		Waypoints:       waypoints,
		Squawk:          GenerateSquawk(rng),
	}

	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("simbrief OFP produced an unusable plan: %w", err)
	}
	return plan, nil
}

// Resolve returns the session flight plan: the SimBrief OFP when importing
// is enabled and the fetch succeeds, otherwise the built-in demo plan.
func Resolve(ctx context.Context, cfg config.SimBriefConfig, rng *rand.Rand, log *logger.Logger) *FlightPlan {
	if cfg.Enabled {
		client := NewSimBriefClient(cfg, log)
		plan, err := client.Fetch(ctx, rng)
		if err == nil {
			return plan
		}
		log.Warn("SimBrief import failed, falling back to demo flight plan",
			logger.Error(err))
	}
	return Demo(rng)
}

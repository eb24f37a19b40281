package api

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/walker79/offline-atc/internal/airports"
	"github.com/walker79/offline-atc/internal/atc"
	"github.com/walker79/offline-atc/internal/config"
	"github.com/walker79/offline-atc/internal/flightplan"
	"github.com/walker79/offline-atc/internal/session"
	"github.com/walker79/offline-atc/internal/simulation"
	"github.com/walker79/offline-atc/pkg/logger"
)

type nullAnnouncer struct{}

func (nullAnnouncer) Announce(atc.Transmission) {}

func testRouter(t *testing.T) (http.Handler, *session.Service) {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	cfg := &config.Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}

	rng := rand.New(rand.NewSource(5))
	plan := flightplan.Demo(rng)
	db := airports.Builtin()
	controller := atc.NewController(plan, db, cfg.Frequencies, cfg.Phases, nullAnnouncer{}, nil, rng, log)
	flight := simulation.NewFlight(plan, db, cfg.Simulation, log)
	svc := session.NewService(cfg.Session, flight, controller, nil, log)

	router := NewRouter(svc, nil, plan, cfg, log, nil, nil)
	return router.Routes(), svc
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func post(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
	return rec
}

func TestGetSessionBeforeFirstTick(t *testing.T) {
	handler, svc := testRouter(t)

	if rec := get(t, handler, "/api/v1/session"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 before the first tick", rec.Code)
	}

	svc.Tick(time.Now().UTC())
	rec := get(t, handler, "/api/v1/session")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var snap session.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Phase != "Cold & Dark" {
		t.Errorf("phase = %q", snap.Phase)
	}
}

func TestPostCommandOutcomeStatus(t *testing.T) {
	handler, _ := testRouter(t)

	rec := post(t, handler, "/api/v1/commands/clearance")
	if rec.Code != http.StatusOK {
		t.Errorf("clearance status = %d, want 200", rec.Code)
	}

	// Landing from Cold & Dark is a phase rejection
	rec = post(t, handler, "/api/v1/commands/landing")
	if rec.Code != http.StatusConflict {
		t.Errorf("landing status = %d, want 409", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["outcome"] != string(atc.OutcomeRejectedWrongPhase) {
		t.Errorf("outcome = %q", body["outcome"])
	}

	if rec := post(t, handler, "/api/v1/commands/warp"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown command status = %d, want 404", rec.Code)
	}
}

func TestPostForceCommand(t *testing.T) {
	handler, _ := testRouter(t)

	if rec := post(t, handler, "/api/v1/commands/taxi/force"); rec.Code != http.StatusOK {
		t.Errorf("forced taxi status = %d, want 200", rec.Code)
	}
	if rec := post(t, handler, "/api/v1/commands/warp/force"); rec.Code != http.StatusNotFound {
		t.Errorf("forced unknown status = %d, want 404", rec.Code)
	}
}

func TestGetFrequencies(t *testing.T) {
	handler, _ := testRouter(t)

	rec := get(t, handler, "/api/v1/frequencies")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Frequencies []atc.FrequencyInfo `json:"frequencies"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Frequencies) == 0 {
		t.Error("no frequencies returned")
	}
}

func TestGetFlightPlanAndHealth(t *testing.T) {
	handler, _ := testRouter(t)

	rec := get(t, handler, "/api/v1/flightplan")
	if rec.Code != http.StatusOK {
		t.Fatalf("flightplan status = %d", rec.Code)
	}
	var plan flightplan.FlightPlan
	if err := json.Unmarshal(rec.Body.Bytes(), &plan); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if plan.Callsign != "SPEEDBIRD123" {
		t.Errorf("callsign = %q", plan.Callsign)
	}

	if rec := get(t, handler, "/api/v1/health"); rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
}

func TestDisabledFeaturesReport404(t *testing.T) {
	handler, _ := testRouter(t)

	if rec := get(t, handler, "/api/v1/transmissions"); rec.Code != http.StatusNotFound {
		t.Errorf("transmissions status = %d, want 404 with persistence off", rec.Code)
	}
	if rec := get(t, handler, "/api/v1/wx"); rec.Code != http.StatusNotFound {
		t.Errorf("wx status = %d, want 404 with weather off", rec.Code)
	}
}

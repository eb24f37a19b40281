package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/walker79/offline-atc/internal/atc"
	"github.com/walker79/offline-atc/internal/config"
	"github.com/walker79/offline-atc/internal/flightplan"
	"github.com/walker79/offline-atc/internal/session"
	"github.com/walker79/offline-atc/internal/storage/sqlite"
	"github.com/walker79/offline-atc/internal/weather"
	"github.com/walker79/offline-atc/internal/websocket"
	"github.com/walker79/offline-atc/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	sessionService      *session.Service
	weatherService      *weather.Service
	flightPlan          *flightplan.FlightPlan
	config              *config.Config
	logger              *logger.Logger
	wsServer            *websocket.Server
	transmissionStorage *sqlite.TransmissionStorage
}

// NewHandler creates a new API handler. weatherService and
// transmissionStorage may be nil when those features are disabled.
func NewHandler(sessionService *session.Service, weatherService *weather.Service, flightPlan *flightplan.FlightPlan, config *config.Config, logger *logger.Logger, wsServer *websocket.Server, transmissionStorage *sqlite.TransmissionStorage) *Handler {
	return &Handler{
		sessionService:      sessionService,
		weatherService:      weatherService,
		flightPlan:          flightPlan,
		config:              config,
		logger:              logger.Named("api-handler"),
		wsServer:            wsServer,
		transmissionStorage: transmissionStorage,
	}
}

// GetSession returns the latest session snapshot
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	snapshot := h.sessionService.Snapshot()
	if snapshot == nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "session has not ticked yet",
		})
		return
	}
	WriteJSON(w, http.StatusOK, snapshot)
}

// GetFlightPlan returns the active flight plan
func (h *Handler) GetFlightPlan(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.flightPlan)
}

// GetFrequencies returns every sector frequency for the session
func (h *Handler) GetFrequencies(w http.ResponseWriter, r *http.Request) {
	snapshot := h.sessionService.Snapshot()

	response := map[string]interface{}{
		"frequencies": h.sessionService.Frequencies(),
	}
	if snapshot != nil {
		response["active"] = snapshot.Controller
	}
	WriteJSON(w, http.StatusOK, response)
}

// PostCommand issues a pilot request by name
func (h *Handler) PostCommand(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	outcome, err := h.sessionService.Command(name)
	if err != nil {
		WriteJSON(w, http.StatusNotFound, map[string]string{
			"error": err.Error(),
		})
		return
	}
	WriteJSON(w, statusForOutcome(outcome), map[string]string{
		"command": name,
		"outcome": string(outcome),
	})
}

// PostForceCommand re-issues a pilot request on demand. The command's own
// phase precondition still applies, so a wrong-phase force reports the
// rejection with a 200.
func (h *Handler) PostForceCommand(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	outcome := h.sessionService.ForceCommand(name)
	if outcome == atc.OutcomeUnknownCommand {
		WriteJSON(w, http.StatusNotFound, map[string]string{
			"error":   "unknown command",
			"command": name,
		})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"command": name,
		"outcome": string(outcome),
	})
}

// GetTransmissions returns archived transmissions, newest first
func (h *Handler) GetTransmissions(w http.ResponseWriter, r *http.Request) {
	if h.transmissionStorage == nil {
		WriteJSON(w, http.StatusNotFound, map[string]string{
			"error": "persistence is disabled",
		})
		return
	}

	limit := h.config.Storage.MaxTransmissions
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	var (
		records []*sqlite.TransmissionRecord
		err     error
	)
	if position := r.URL.Query().Get("position"); position != "" {
		records, err = h.transmissionStorage.GetTransmissionsByPosition(position, limit, offset)
	} else {
		records, err = h.transmissionStorage.GetTransmissions(limit, offset)
	}
	if err != nil {
		h.logger.Error("Failed to read transmissions", logger.Error(err))
		WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to read transmissions",
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transmissions": records,
		"count":         len(records),
	})
}

// GetWeatherData returns the latest METARs for the session airports
func (h *Handler) GetWeatherData(w http.ResponseWriter, r *http.Request) {
	if h.weatherService == nil {
		WriteJSON(w, http.StatusNotFound, map[string]string{
			"error": "weather fetching is disabled",
		})
		return
	}

	metars := map[string]interface{}{}
	for _, icao := range []string{h.flightPlan.Origin, h.flightPlan.Destination} {
		if metar := h.weatherService.METAR(icao); metar != nil {
			metars[icao] = metar
		}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"metars": metars,
	})
}

// GetHealth returns the health status of the API
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":   "ok",
		"callsign": h.flightPlan.Callsign,
	}
	if snapshot := h.sessionService.Snapshot(); snapshot != nil {
		response["phase"] = snapshot.Phase
		response["last_update"] = snapshot.UpdatedAt
	}
	WriteJSON(w, http.StatusOK, response)
}

// GetConfig returns the active configuration
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	// The SimBrief section carries the username; leave it out.
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"server":      h.config.Server,
		"phases":      h.config.Phases,
		"frequencies": h.config.Frequencies,
		"simulation":  h.config.Simulation,
		"session":     h.config.Session,
	})
}

// HandleWebSocket upgrades the connection and streams session events
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsServer.HandleConnection(w, r)
}

// statusForOutcome maps a command outcome to an HTTP status: executed and
// no-op outcomes are 200, a rejection is 409.
func statusForOutcome(outcome atc.CommandOutcome) int {
	if outcome == atc.OutcomeRejectedWrongPhase {
		return http.StatusConflict
	}
	return http.StatusOK
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

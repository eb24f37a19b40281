// Package session runs the ATC session loop: it advances the simulated
// flight, feeds each telemetry sample to the controller, optionally issues
// pilot requests automatically, and publishes state snapshots.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mohae/deepcopy"

	"github.com/walker79/offline-atc/internal/atc"
	"github.com/walker79/offline-atc/internal/config"
	"github.com/walker79/offline-atc/internal/flightplan"
	"github.com/walker79/offline-atc/internal/simulation"
	"github.com/walker79/offline-atc/internal/telemetry"
	"github.com/walker79/offline-atc/internal/websocket"
	"github.com/walker79/offline-atc/pkg/logger"
)

// Snapshot is the public view of the session at one tick
type Snapshot struct {
	Phase      string                 `json:"phase"`
	Airspace   string                 `json:"airspace"`
	Controller atc.ControllerInfo     `json:"controller"`
	Telemetry  telemetry.State        `json:"telemetry"`
	FlightPlan *flightplan.FlightPlan `json:"flight_plan"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// Service drives the session on a fixed tick
type Service struct {
	cfg        config.SessionConfig
	flight     *simulation.Flight
	controller *atc.Controller
	wsServer   *websocket.Server
	logger     *logger.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool

	// mutex serializes ticks against externally issued commands
	mutex      sync.Mutex
	lastTick   time.Time
	phaseSince time.Time
	snapshot   *Snapshot
}

// NewService creates a session service. wsServer may be nil when no clients
// are expected.
func NewService(
	cfg config.SessionConfig,
	flight *simulation.Flight,
	controller *atc.Controller,
	wsServer *websocket.Server,
	log *logger.Logger,
) *Service {
	return &Service{
		cfg:        cfg,
		flight:     flight,
		controller: controller,
		wsServer:   wsServer,
		logger:     log.Named("session"),
	}
}

// Start begins the session loop
func (s *Service) Start(ctx context.Context) error {
	if s.started {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true
	now := time.Now().UTC()
	s.lastTick = now
	s.phaseSince = now

	s.logger.Info("Starting session",
		logger.String("callsign", s.flight.Plan().Callsign),
		logger.Float64("update_interval_secs", s.cfg.UpdateIntervalSecs),
		logger.Bool("auto_commands", s.cfg.AutoCommands))

	s.wg.Add(1)
	go s.run()
	return nil
}

// Stop terminates the session loop
func (s *Service) Stop() {
	if !s.started {
		return
	}
	s.logger.Info("Stopping session")
	s.cancel()
	s.wg.Wait()
	s.started = false
}

func (s *Service) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Duration(s.cfg.UpdateIntervalSecs * float64(time.Second)))
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Tick(time.Now().UTC())
		}
	}
}

// Tick advances the session to now. Exposed so tests can drive the loop
// without the ticker.
func (s *Service) Tick(now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	dt := now.Sub(s.lastTick)
	if s.lastTick.IsZero() {
		dt = 0
		s.phaseSince = now
	}
	s.lastTick = now

	before := s.controller.Phase()
	s.flight.Advance(dt, before)
	state := s.flight.State()
	s.controller.Update(&state)

	if s.cfg.AutoCommands {
		s.autoCommandLocked(now)
	}

	after := s.controller.Phase()
	if after != before {
		s.phaseSince = now
		s.broadcast(websocket.MessageTypePhaseChange, map[string]any{
			"from": before.String(),
			"to":   after.String(),
		})
	}

	s.snapshot = &Snapshot{
		Phase:      s.controller.Phase().String(),
		Airspace:   string(s.controller.Airspace()),
		Controller: s.controller.ActiveControllerInfo(),
		Telemetry:  state,
		FlightPlan: deepcopy.Copy(s.flight.Plan()).(*flightplan.FlightPlan),
		UpdatedAt:  now,
	}
	s.broadcast(websocket.MessageTypeSessionState, map[string]any{
		"phase":      s.snapshot.Phase,
		"airspace":   s.snapshot.Airspace,
		"controller": s.snapshot.Controller,
		"telemetry":  s.snapshot.Telemetry,
	})
}

// autoCommandLocked issues the next pilot request once the flight has sat in
// a request-gated phase for the configured delay
func (s *Service) autoCommandLocked(now time.Time) {
	if now.Sub(s.phaseSince) < time.Duration(s.cfg.AutoCommandDelaySecs*float64(time.Second)) {
		return
	}

	name, ok := nextRequest[s.controller.Phase()]
	if !ok {
		return
	}

	outcome, err := s.commandLocked(name)
	if err != nil {
		s.logger.Error("Auto command failed", logger.String("command", name), logger.Error(err))
		return
	}
	s.logger.Info("Issued automatic pilot request",
		logger.String("command", name),
		logger.String("outcome", string(outcome)))
	s.phaseSince = now
}

// nextRequest maps each phase that waits on a pilot request to the command
// that moves the flight along. Phases driven by telemetry are absent.
var nextRequest = map[atc.Phase]string{
	atc.PhaseColdAndDark:       "clearance",
	atc.PhaseClearanceDelivery: "pushback",
	atc.PhasePushbackApproved:  "taxi",
	atc.PhaseTaxiOut:           "takeoff",
	atc.PhaseTopOfDescent:      "descent",
	atc.PhaseFinalApproach:     "landing",
	atc.PhaseLanded:            "taxi_to_gate",
}

// Command issues a named pilot request to the controller
func (s *Service) Command(name string) (atc.CommandOutcome, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.commandLocked(name)
}

func (s *Service) commandLocked(name string) (atc.CommandOutcome, error) {
	switch name {
	case "clearance":
		return s.controller.RequestClearance(), nil
	case "pushback":
		return s.controller.RequestPushback(), nil
	case "taxi":
		return s.controller.RequestTaxi(), nil
	case "takeoff":
		return s.controller.RequestTakeoff(), nil
	case "climb":
		return s.controller.RequestClimb(), nil
	case "cruise_altitude":
		return s.controller.RequestCruiseAltitude(), nil
	case "descent":
		return s.controller.RequestDescent(), nil
	case "landing":
		return s.controller.RequestLanding(), nil
	case "taxi_to_gate":
		return s.controller.RequestTaxiToGate(), nil
	default:
		return atc.OutcomeUnknownCommand, fmt.Errorf("unknown command: %s", name)
	}
}

// ForceCommand re-issues a named request regardless of auto-command pacing.
// The command's own phase precondition still applies.
func (s *Service) ForceCommand(name string) atc.CommandOutcome {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.controller.Force(name)
}

// Frequencies returns every sector frequency for the session
func (s *Service) Frequencies() []atc.FrequencyInfo {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.controller.Registry().FrequencyList()
}

// Snapshot returns a copy of the latest session snapshot, or nil before the
// first tick
func (s *Service) Snapshot() *Snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.snapshot == nil {
		return nil
	}
	return deepcopy.Copy(s.snapshot).(*Snapshot)
}

func (s *Service) broadcast(messageType string, data map[string]any) {
	if s.wsServer == nil {
		return
	}
	s.wsServer.Broadcast(&websocket.Message{Type: messageType, Data: data})
}

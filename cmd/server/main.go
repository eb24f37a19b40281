package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/walker79/offline-atc/internal/airports"
	"github.com/walker79/offline-atc/internal/announcer"
	"github.com/walker79/offline-atc/internal/api"
	"github.com/walker79/offline-atc/internal/atc"
	"github.com/walker79/offline-atc/internal/config"
	"github.com/walker79/offline-atc/internal/flightplan"
	"github.com/walker79/offline-atc/internal/session"
	"github.com/walker79/offline-atc/internal/simulation"
	"github.com/walker79/offline-atc/internal/storage/sqlite"
	"github.com/walker79/offline-atc/internal/weather"
	"github.com/walker79/offline-atc/internal/websocket"
	"github.com/walker79/offline-atc/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting Offline-ATC server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
	)

	// Seed the session random source
	seed := cfg.Session.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	log.Info("Session random source seeded", logger.Int64("seed", seed))

	// Build the airport database
	airportDB := airports.Builtin()
	if cfg.Airports.CSVPath != "" {
		if err := airportDB.MergeCSV(cfg.Airports.CSVPath); err != nil {
			log.Error("Failed to load airports CSV", logger.Error(err), logger.String("path", cfg.Airports.CSVPath))
			os.Exit(1)
		}
		log.Info("Merged airports CSV", logger.String("path", cfg.Airports.CSVPath), logger.Int("airports", airportDB.Len()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Resolve the flight plan: SimBrief when configured, demo otherwise
	plan := flightplan.Resolve(ctx, cfg.SimBrief, rng, log)
	log.Info("Flight plan loaded",
		logger.String("callsign", plan.Callsign),
		logger.String("origin", plan.Origin),
		logger.String("destination", plan.Destination),
		logger.String("cruise", plan.FlightLevel),
	)

	// Create weather service for the session airports
	weatherService := weather.NewService(cfg.Weather, []string{plan.Origin, plan.Destination}, log)
	if err := weatherService.Start(); err != nil {
		log.Error("Failed to start weather service", logger.Error(err))
		os.Exit(1)
	}

	// Create SQLite transmission storage
	var transmissionStorage *sqlite.TransmissionStorage
	if !cfg.Storage.DisablePersistence {
		if err := os.MkdirAll(cfg.Storage.SQLiteBasePath, 0755); err != nil {
			log.Error("Failed to create database directory", logger.Error(err), logger.String("path", cfg.Storage.SQLiteBasePath))
			os.Exit(1)
		}
		transmissionStorage, err = sqlite.Open(cfg.Storage.SQLiteBasePath, log)
		if err != nil {
			log.Error("Failed to create SQLite storage", logger.Error(err))
			os.Exit(1)
		}
		defer transmissionStorage.Close()
	} else {
		log.Info("Persistence disabled, transmissions will not be archived")
	}

	// Create WebSocket server
	wsServer := websocket.NewServer(log)
	go wsServer.Run()

	// Fan transmissions out to the log, the archive and WebSocket clients
	sinks := []atc.Announcer{announcer.NewLog(log), announcer.NewWebSocket(wsServer)}
	if transmissionStorage != nil {
		sinks = append(sinks, announcer.NewStorage(transmissionStorage, log))
	}
	radio := announcer.NewMulti(sinks...)

	// Takeoff and landing clearances read the live wind when a METAR is
	// available: origin field until the arrival segment, destination after.
	var controller *atc.Controller
	windFn := func() string {
		icao := plan.Origin
		if controller != nil {
			switch controller.Phase() {
			case atc.PhaseTopOfDescent, atc.PhaseDescent, atc.PhaseApproach,
				atc.PhaseFinalApproach, atc.PhaseLandingClearance,
				atc.PhaseLanded, atc.PhaseTaxiIn, atc.PhaseParking:
				icao = plan.Destination
			}
		}
		if dir, speed, ok := weatherService.Wind(icao); ok {
			return atc.FormatWind(dir, speed)
		}
		return atc.WindCalm
	}

	controller = atc.NewController(plan, airportDB, cfg.Frequencies, cfg.Phases, radio, windFn, rng, log)
	flight := simulation.NewFlight(plan, airportDB, cfg.Simulation, log)

	// Create and start the session loop
	sessionService := session.NewService(cfg.Session, flight, controller, wsServer, log)
	if err := sessionService.Start(ctx); err != nil {
		log.Error("Failed to start session service", logger.Error(err))
		os.Exit(1)
	}

	// Create API router
	router := api.NewRouter(sessionService, weatherService, plan, cfg, log, wsServer, transmissionStorage)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error on startup", logger.String("addr", server.Addr), logger.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	// Stop background services first
	log.Info("Stopping session service...")
	sessionService.Stop()
	log.Info("Session service stopped.")

	log.Info("Stopping weather service...")
	weatherService.Stop()
	log.Info("Weather service stopped.")

	// Cancel the main context
	cancel()

	// Shutdown the HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", logger.Error(err))
	} else {
		log.Info("HTTP server shutdown complete")
	}

	log.Info("Server fully stopped")
}
